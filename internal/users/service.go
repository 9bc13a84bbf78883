// Package users provides administrative management of community accounts.
package users

import (
	"context"
	"fmt"

	"github.com/agrohub/agrohub/internal/domain"
	"github.com/agrohub/agrohub/internal/identity"
	"github.com/agrohub/agrohub/internal/pkg/ctxlog"
)

// AccountManager creates accounts and applies profile updates with the same
// rules as self-service. *identity.Service implements it.
type AccountManager interface {
	CreateAccount(ctx context.Context, input identity.RegisterInput) (*domain.User, error)
	UpdateProfile(ctx context.Context, targetID string, input identity.ProfileInput) (*domain.User, error)
}

// Repository is the subset of identity.Repository used here.
type Repository interface {
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
	UpdateUserRole(ctx context.Context, id string, role domain.Role) (*domain.User, error)
	DeleteUser(ctx context.Context, id string) (bool, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
}

// Service provides user management business logic.
type Service struct {
	repo     Repository
	accounts AccountManager
}

// NewService creates a new users service.
func NewService(repo Repository, accounts AccountManager) *Service {
	return &Service{repo: repo, accounts: accounts}
}

// ListAllUsers returns every user, newest first.
func (s *Service) ListAllUsers(ctx context.Context) ([]domain.User, error) {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// GetUser returns a user by ID.
func (s *Service) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return s.repo.GetUserByID(ctx, id)
}

// CreateUser creates an account of any role without issuing a token.
func (s *Service) CreateUser(ctx context.Context, input identity.RegisterInput) (*domain.User, error) {
	if input.Role == "" {
		input.Role = domain.RoleFarmer
	}
	if !input.Role.Valid() {
		return nil, ErrInvalidRole
	}

	user, err := s.accounts.CreateAccount(ctx, input)
	if err != nil {
		return nil, err
	}

	ctxlog.FromContext(ctx).Info("user created by admin", "target_id", user.ID, "role", user.Role)
	return user, nil
}

// UpdateUserRole changes the role of another user. Admins cannot change
// their own role.
func (s *Service) UpdateUserRole(ctx context.Context, actorID, id string, role domain.Role) (*domain.User, error) {
	if !role.Valid() {
		return nil, ErrInvalidRole
	}
	if id == actorID {
		return nil, ErrSelfRoleChange
	}

	user, err := s.repo.UpdateUserRole(ctx, id, role)
	if err != nil {
		return nil, err
	}

	ctxlog.FromContext(ctx).Info("user role changed", "target_id", id, "role", role)
	return user, nil
}

// UpdateUserProfile applies a profile update to any user.
func (s *Service) UpdateUserProfile(ctx context.Context, id string, input identity.ProfileInput) (*domain.User, error) {
	return s.accounts.UpdateProfile(ctx, id, input)
}

// DeleteUser permanently removes another user. Admins cannot delete
// themselves.
func (s *Service) DeleteUser(ctx context.Context, actorID, id string) error {
	if id == actorID {
		return ErrSelfDelete
	}

	deleted, err := s.repo.DeleteUser(ctx, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if !deleted {
		return identity.ErrUserNotFound
	}

	ctxlog.FromContext(ctx).Info("user deleted", "target_id", id)
	return nil
}
