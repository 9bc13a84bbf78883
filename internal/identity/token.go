package identity

import (
	"context"

	"github.com/agrohub/agrohub/internal/domain"
)

// Claims are the values carried by a signed token.
type Claims struct {
	UserID string
	Role   domain.Role
}

// TokenService issues and verifies signed, time-limited tokens.
// Verify returns ErrInvalidToken, ErrTokenExpired or ErrTokenMalformed.
type TokenService interface {
	Issue(ctx context.Context, claims Claims) (string, error)
	Verify(ctx context.Context, token string) (*Claims, error)
}
