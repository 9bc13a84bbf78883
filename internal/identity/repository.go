package identity

import (
	"context"

	"github.com/agrohub/agrohub/internal/domain"
)

// Repository defines the interface for user persistence.
//
// Every read except GetCredentialsByEmail leaves User.PasswordHash empty.
// Email uniqueness is enforced by the store: CreateUser and UpdateUser
// return ErrEmailExists when the unique index rejects a write.
type Repository interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetCredentialsByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateUser(ctx context.Context, id string, update UserUpdate) (*domain.User, error)
	UpdateUserRole(ctx context.Context, id string, role domain.Role) (*domain.User, error)
	DeleteUser(ctx context.Context, id string) (bool, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
}

// UserUpdate holds the profile fields to change. Nil fields are left untouched.
type UserUpdate struct {
	Name           *string
	Email          *string
	Bio            *string
	Phone          *string
	ProfilePicture *string
	Address        *domain.Address
}

// IsEmpty reports whether the update changes nothing.
func (u UserUpdate) IsEmpty() bool {
	return u.Name == nil && u.Email == nil && u.Bio == nil && u.Phone == nil &&
		u.ProfilePicture == nil && u.Address == nil
}
