// Package identity provides registration, login, token validation and
// profile management for community members.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/agrohub/agrohub/internal/domain"
	"github.com/agrohub/agrohub/internal/pkg/ctxlog"
	"github.com/go-playground/validator/v10"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Field limits enforced on every write.
const (
	MinPasswordLength = 6
	MaxBioLength      = 500
)

var validate = validator.New()

// Service provides identity business logic.
type Service struct {
	repo   Repository
	hasher Hasher
	tokens TokenService
}

// NewService creates a new identity service.
func NewService(repo Repository, hasher Hasher, tokens TokenService) *Service {
	return &Service{
		repo:   repo,
		hasher: hasher,
		tokens: tokens,
	}
}

// RegisterInput contains data for creating an account.
type RegisterInput struct {
	Name           string
	Email          string
	Password       string
	Role           domain.Role
	ProfilePicture string
	Bio            string
	Phone          string
}

// LoginInput contains credentials for login.
type LoginInput struct {
	Email    string
	Password string
}

// ProfileInput contains profile fields to change. Nil means "not provided".
// Empty Name, Email and ProfilePicture are treated as not provided; empty Bio
// and Phone clear the stored value.
type ProfileInput struct {
	Name           *string
	Email          *string
	Bio            *string
	Phone          *string
	ProfilePicture *string
	Address        *domain.Address
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	User  *domain.User
	Token string
}

// Register creates a farmer or expert account and issues a token for it.
// An empty role defaults to farmer; admin cannot be self-assigned.
func (s *Service) Register(ctx context.Context, input RegisterInput) (result *AuthResult, err error) {
	defer func() { recordAuthOperation("register", err) }()

	input, err = normalizeAccountInput(input)
	if err != nil {
		return nil, err
	}

	if input.Role == "" {
		input.Role = domain.RoleFarmer
	}
	if input.Role != domain.RoleFarmer && input.Role != domain.RoleExpert {
		return nil, ErrRoleNotAllowed
	}

	user, err := s.createAccount(ctx, input)
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.Issue(ctx, Claims{UserID: user.ID, Role: user.Role})
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	ctxlog.FromContext(ctx).Info("user registered", "user_id", user.ID, "role", user.Role)

	return &AuthResult{User: user, Token: token}, nil
}

// CreateAccount creates an account on someone else's behalf without issuing
// a token. An empty role defaults to farmer.
func (s *Service) CreateAccount(ctx context.Context, input RegisterInput) (*domain.User, error) {
	input, err := normalizeAccountInput(input)
	if err != nil {
		return nil, err
	}

	if input.Role == "" {
		input.Role = domain.RoleFarmer
	}
	if !input.Role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, input.Role)
	}

	return s.createAccount(ctx, input)
}

func (s *Service) createAccount(ctx context.Context, input RegisterInput) (*domain.User, error) {
	_, err := s.repo.GetUserByEmail(ctx, input.Email)
	if err == nil {
		return nil, ErrEmailExists
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("check existing user: %w", err)
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	picture := input.ProfilePicture
	if picture == "" {
		picture = DefaultAvatarURL(input.Name)
	}

	user := &domain.User{
		Name:           input.Name,
		Email:          input.Email,
		PasswordHash:   hash,
		Role:           input.Role,
		ProfilePicture: picture,
		Bio:            input.Bio,
		Phone:          input.Phone,
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	user.PasswordHash = ""
	return user, nil
}

// Login verifies credentials and issues a token. Unknown email and wrong
// password both return ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, input LoginInput) (result *AuthResult, err error) {
	defer func() { recordAuthOperation("login", err) }()

	email := NormalizeEmail(input.Email)
	if email == "" || input.Password == "" {
		return nil, ErrMissingField
	}

	user, err := s.repo.GetCredentialsByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user credentials: %w", err)
	}

	if !s.hasher.Verify(input.Password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	user.PasswordHash = ""

	token, err := s.tokens.Issue(ctx, Claims{UserID: user.ID, Role: user.Role})
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	ctxlog.FromContext(ctx).Info("user logged in", "user_id", user.ID)

	return &AuthResult{User: user, Token: token}, nil
}

// GetProfile returns the user identified by a token subject.
func (s *Service) GetProfile(ctx context.Context, subjectID string) (*domain.User, error) {
	return s.repo.GetUserByID(ctx, subjectID)
}

// UpdateProfile applies the provided profile fields to the target user.
// Password and role are never changed here.
func (s *Service) UpdateProfile(ctx context.Context, targetID string, input ProfileInput) (*domain.User, error) {
	var update UserUpdate

	if input.Name != nil {
		if name := strings.TrimSpace(*input.Name); name != "" {
			update.Name = &name
		}
	}

	if input.Email != nil {
		if email := NormalizeEmail(*input.Email); email != "" {
			if err := validate.Var(email, "email"); err != nil {
				return nil, fmt.Errorf("%w: invalid email", ErrValidation)
			}
			existing, err := s.repo.GetUserByEmail(ctx, email)
			switch {
			case err == nil && existing.ID != targetID:
				return nil, ErrEmailExists
			case err != nil && !errors.Is(err, ErrUserNotFound):
				return nil, fmt.Errorf("check existing user: %w", err)
			}
			update.Email = &email
		}
	}

	if input.Bio != nil {
		if utf8.RuneCountInString(*input.Bio) > MaxBioLength {
			return nil, fmt.Errorf("%w: bio must be at most %d characters", ErrValidation, MaxBioLength)
		}
		update.Bio = input.Bio
	}

	update.Phone = input.Phone

	if input.ProfilePicture != nil {
		if picture := strings.TrimSpace(*input.ProfilePicture); picture != "" {
			update.ProfilePicture = &picture
		}
	}

	update.Address = input.Address

	if update.IsEmpty() {
		return s.repo.GetUserByID(ctx, targetID)
	}

	user, err := s.repo.UpdateUser(ctx, targetID, update)
	if err != nil {
		return nil, err
	}

	ctxlog.FromContext(ctx).Info("user profile updated", "user_id", user.ID)

	return user, nil
}

// ValidateToken verifies a token and returns its subject and role.
func (s *Service) ValidateToken(ctx context.Context, token string) (string, domain.Role, error) {
	claims, err := s.tokens.Verify(ctx, token)
	if err != nil {
		return "", "", err
	}
	return claims.UserID, claims.Role, nil
}

// EnsureAdmin creates an admin account with the given credentials unless a
// user with that email already exists. Reports whether an account was created.
func (s *Service) EnsureAdmin(ctx context.Context, name, email, password string) (bool, error) {
	_, err := s.repo.GetUserByEmail(ctx, NormalizeEmail(email))
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return false, fmt.Errorf("check admin: %w", err)
	}

	user, err := s.CreateAccount(ctx, RegisterInput{
		Name:     name,
		Email:    email,
		Password: password,
		Role:     domain.RoleAdmin,
	})
	if err != nil {
		if errors.Is(err, ErrEmailExists) {
			return false, nil
		}
		return false, err
	}

	ctxlog.FromContext(ctx).Info("bootstrap admin created", "user_id", user.ID)
	return true, nil
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return cases.Lower(language.Und).String(strings.TrimSpace(email))
}

func normalizeAccountInput(input RegisterInput) (RegisterInput, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = NormalizeEmail(input.Email)
	input.ProfilePicture = strings.TrimSpace(input.ProfilePicture)

	if input.Name == "" || input.Email == "" || input.Password == "" {
		return input, ErrMissingField
	}
	if err := validate.Var(input.Email, "email"); err != nil {
		return input, fmt.Errorf("%w: invalid email", ErrValidation)
	}
	if len(input.Password) < MinPasswordLength {
		return input, fmt.Errorf("%w: password must be at least %d characters", ErrValidation, MinPasswordLength)
	}
	if utf8.RuneCountInString(input.Bio) > MaxBioLength {
		return input, fmt.Errorf("%w: bio must be at most %d characters", ErrValidation, MaxBioLength)
	}
	return input, nil
}
