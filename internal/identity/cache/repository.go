// Package cache provides a read-through cache for identity lookups by ID.
package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/agrohub/agrohub/internal/domain"
	"github.com/agrohub/agrohub/internal/identity"
	"github.com/agrohub/agrohub/internal/pkg/ctxlog"
)

// DefaultTTL bounds how long a cached profile may be served.
const DefaultTTL = 5 * time.Minute

const keyPrefix = "agrohub:user:"

// Store is the key-value backend, satisfied by *cache.Client.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// Repository decorates an identity.Repository, caching GetUserByID.
// Writes go to the wrapped repository first and then invalidate the entry.
// A lookup that overlaps an invalidation is returned but not cached.
type Repository struct {
	identity.Repository
	store Store
	ttl   time.Duration

	mu  sync.Mutex // orders cache fills against invalidations
	gen uint64     // bumped on every invalidation
}

var _ identity.Repository = (*Repository)(nil)

// NewRepository wraps next. A non-positive ttl selects DefaultTTL.
func NewRepository(next identity.Repository, store Store, ttl time.Duration) *Repository {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Repository{Repository: next, store: store, ttl: ttl}
}

// cachedUser never carries the password hash.
type cachedUser struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Email          string          `json:"email"`
	Role           domain.Role     `json:"role"`
	ProfilePicture string          `json:"profilePicture"`
	Bio            string          `json:"bio"`
	Phone          string          `json:"phone"`
	Address        *domain.Address `json:"address,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

func key(id string) string {
	return keyPrefix + id
}

// GetUserByID serves from cache when possible.
func (r *Repository) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	if raw, _ := r.store.Get(ctx, key(id)); raw != nil {
		var cu cachedUser
		if err := json.Unmarshal(raw, &cu); err == nil {
			return cu.toDomain(), nil
		}
	}

	r.mu.Lock()
	gen := r.gen
	r.mu.Unlock()

	user, err := r.Repository.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(fromDomain(user))
	if err != nil {
		return user, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.gen == gen {
		_ = r.store.Set(ctx, key(id), raw, r.ttl)
	}
	return user, nil
}

// UpdateUser updates and invalidates.
func (r *Repository) UpdateUser(ctx context.Context, id string, update identity.UserUpdate) (*domain.User, error) {
	user, err := r.Repository.UpdateUser(ctx, id, update)
	r.invalidate(ctx, id)
	return user, err
}

// UpdateUserRole updates and invalidates.
func (r *Repository) UpdateUserRole(ctx context.Context, id string, role domain.Role) (*domain.User, error) {
	user, err := r.Repository.UpdateUserRole(ctx, id, role)
	r.invalidate(ctx, id)
	return user, err
}

// DeleteUser deletes and invalidates.
func (r *Repository) DeleteUser(ctx context.Context, id string) (bool, error) {
	deleted, err := r.Repository.DeleteUser(ctx, id)
	r.invalidate(ctx, id)
	return deleted, err
}

func (r *Repository) invalidate(ctx context.Context, id string) {
	r.mu.Lock()
	r.gen++
	r.mu.Unlock()

	if err := r.store.Delete(ctx, key(id)); err != nil {
		ctxlog.FromContext(ctx).Warn("cache invalidation failed", "user_id", id, "error", err)
	}
}

func fromDomain(u *domain.User) cachedUser {
	return cachedUser{
		ID:             u.ID,
		Name:           u.Name,
		Email:          u.Email,
		Role:           u.Role,
		ProfilePicture: u.ProfilePicture,
		Bio:            u.Bio,
		Phone:          u.Phone,
		Address:        u.Address,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

func (c cachedUser) toDomain() *domain.User {
	return &domain.User{
		ID:             c.ID,
		Name:           c.Name,
		Email:          c.Email,
		Role:           c.Role,
		ProfilePicture: c.ProfilePicture,
		Bio:            c.Bio,
		Phone:          c.Phone,
		Address:        c.Address,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}
