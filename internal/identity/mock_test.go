package identity

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/agrohub/agrohub/internal/domain"
	"github.com/google/uuid"
)

// mockRepository is an in-memory Repository with a unique email index.
type mockRepository struct {
	mu    sync.Mutex
	users map[string]*domain.User

	// skipEmailLookup makes GetUserByEmail report "not found" so that
	// concurrent creates race past the pre-check like they can in a real store.
	skipEmailLookup bool
}

func newMockRepository() *mockRepository {
	return &mockRepository{users: make(map[string]*domain.User)}
}

func (m *mockRepository) CreateUser(_ context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Email == user.Email {
			return ErrEmailExists
		}
	}

	now := time.Now()
	user.ID = uuid.NewString()
	user.CreatedAt = now
	user.UpdatedAt = now
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *mockRepository) GetUserByID(_ context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return public(u), nil
}

func (m *mockRepository) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.skipEmailLookup {
		return nil, ErrUserNotFound
	}
	for _, u := range m.users {
		if u.Email == email {
			return public(u), nil
		}
	}
	return nil, ErrUserNotFound
}

func (m *mockRepository) GetCredentialsByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrUserNotFound
}

func (m *mockRepository) UpdateUser(_ context.Context, id string, update UserUpdate) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	if update.Email != nil {
		for _, other := range m.users {
			if other.ID != id && other.Email == *update.Email {
				return nil, ErrEmailExists
			}
		}
		u.Email = *update.Email
	}
	if update.Name != nil {
		u.Name = *update.Name
	}
	if update.Bio != nil {
		u.Bio = *update.Bio
	}
	if update.Phone != nil {
		u.Phone = *update.Phone
	}
	if update.ProfilePicture != nil {
		u.ProfilePicture = *update.ProfilePicture
	}
	if update.Address != nil {
		addr := *update.Address
		u.Address = &addr
	}
	u.UpdatedAt = time.Now()
	return public(u), nil
}

func (m *mockRepository) UpdateUserRole(_ context.Context, id string, role domain.Role) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	u.Role = role
	u.UpdatedAt = time.Now()
	return public(u), nil
}

func (m *mockRepository) DeleteUser(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[id]; !ok {
		return false, nil
	}
	delete(m.users, id)
	return true, nil
}

func (m *mockRepository) ListUsers(_ context.Context) ([]domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	users := make([]domain.User, 0, len(m.users))
	for _, u := range m.users {
		users = append(users, *public(u))
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].CreatedAt.After(users[j].CreatedAt)
	})
	return users, nil
}

func (m *mockRepository) storedHash(email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Email == email {
			return u.PasswordHash
		}
	}
	return ""
}

func public(u *domain.User) *domain.User {
	cp := *u
	cp.PasswordHash = ""
	return &cp
}

// fakeHasher avoids bcrypt cost in service tests.
type fakeHasher struct{}

func (fakeHasher) Hash(password string) (string, error) {
	return "hashed:" + password, nil
}

func (fakeHasher) Verify(password, hash string) bool {
	return hash == "hashed:"+password
}

// fakeTokens encodes claims in the clear.
type fakeTokens struct{}

func (fakeTokens) Issue(_ context.Context, c Claims) (string, error) {
	return "tok:" + c.UserID + ":" + string(c.Role), nil
}

func (fakeTokens) Verify(_ context.Context, token string) (*Claims, error) {
	parts := strings.Split(token, ":")
	if len(parts) != 3 || parts[0] != "tok" {
		return nil, errors.Join(ErrInvalidToken, ErrTokenMalformed)
	}
	return &Claims{UserID: parts[1], Role: domain.Role(parts[2])}, nil
}

func newTestService() (*Service, *mockRepository) {
	repo := newMockRepository()
	return NewService(repo, fakeHasher{}, fakeTokens{}), repo
}
