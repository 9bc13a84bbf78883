// Package jwt implements the identity token service with HS256-signed JWTs.
package jwt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/agrohub/agrohub/internal/domain"
	"github.com/agrohub/agrohub/internal/identity"
	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// TokenDuration is how long an issued token stays valid.
const TokenDuration = 24 * time.Hour

// Config contains token service settings.
type Config struct {
	SecretKey string
}

// Claims is the JWT payload: {"id": ..., "role": ...} plus registered claims.
type Claims struct {
	UserID string `json:"id"`
	Role   string `json:"role"`
	jwtv5.RegisteredClaims
}

// Authenticator issues and verifies tokens.
type Authenticator struct {
	secret []byte
	now    func() time.Time
}

var _ identity.TokenService = (*Authenticator)(nil)

// NewAuthenticator creates a new token service.
func NewAuthenticator(cfg Config) *Authenticator {
	return &Authenticator{
		secret: []byte(cfg.SecretKey),
		now:    time.Now,
	}
}

// Issue signs claims with an expiry of now + TokenDuration.
func (a *Authenticator) Issue(_ context.Context, claims identity.Claims) (string, error) {
	now := a.now()
	token := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, Claims{
		UserID: claims.UserID,
		Role:   string(claims.Role),
		RegisteredClaims: jwtv5.RegisteredClaims{
			Subject:   claims.UserID,
			IssuedAt:  jwtv5.NewNumericDate(now),
			ExpiresAt: jwtv5.NewNumericDate(now.Add(TokenDuration)),
		},
	})

	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature and expiry and returns the embedded claims.
func (a *Authenticator) Verify(_ context.Context, tokenString string) (*identity.Claims, error) {
	var claims Claims
	token, err := jwtv5.ParseWithClaims(tokenString, &claims, a.keyFunc,
		jwtv5.WithValidMethods([]string{jwtv5.SigningMethodHS256.Alg()}),
		jwtv5.WithExpirationRequired(),
		jwtv5.WithTimeFunc(a.now),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwtv5.ErrTokenMalformed):
			return nil, fmt.Errorf("%w: %v", identity.ErrTokenMalformed, err)
		case errors.Is(err, jwtv5.ErrTokenExpired):
			return nil, identity.ErrTokenExpired
		default:
			return nil, fmt.Errorf("%w: %v", identity.ErrInvalidToken, err)
		}
	}

	role := domain.Role(claims.Role)
	if !token.Valid || claims.UserID == "" || !role.Valid() {
		return nil, identity.ErrInvalidToken
	}

	return &identity.Claims{UserID: claims.UserID, Role: role}, nil
}

func (a *Authenticator) keyFunc(_ *jwtv5.Token) (interface{}, error) {
	return a.secret, nil
}
