// Package postgres provides PostgreSQL implementation of the identity repository.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/agrohub/agrohub/internal/domain"
	"github.com/agrohub/agrohub/internal/identity"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgreSQL error codes.
const (
	uniqueViolation = "23505"
	checkViolation  = "23514"
)

// publicColumns never include password_hash.
const publicColumns = `id, name, email, role, profile_picture, bio, phone, address, created_at, updated_at`

// Repository implements the identity.Repository interface using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

var _ identity.Repository = (*Repository)(nil)

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// CreateUser inserts a user and fills in its ID and timestamps.
func (r *Repository) CreateUser(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (name, email, password_hash, role, profile_picture, bio, phone, address)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.ProfilePicture,
		user.Bio,
		user.Phone,
		user.Address,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		return mapWriteError("create user", err)
	}
	return nil
}

// GetUserByID retrieves a user by ID.
func (r *Repository) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	if !isUUID(id) {
		return nil, identity.ErrUserNotFound
	}

	query := `SELECT ` + publicColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, identity.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return user, nil
}

// GetUserByEmail retrieves a user by email.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + publicColumns + ` FROM users WHERE email = $1`
	user, err := scanUser(r.db.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, identity.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return user, nil
}

// GetCredentialsByEmail retrieves a user together with its password hash.
// This is the only query that selects password_hash.
func (r *Repository) GetCredentialsByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + publicColumns + `, password_hash FROM users WHERE email = $1`

	var user domain.User
	err := r.db.QueryRow(ctx, query, email).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Role,
		&user.ProfilePicture,
		&user.Bio,
		&user.Phone,
		&user.Address,
		&user.CreatedAt,
		&user.UpdatedAt,
		&user.PasswordHash,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, identity.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user credentials: %w", err)
	}
	return &user, nil
}

// UpdateUser applies the non-nil fields of update and refreshes updated_at.
func (r *Repository) UpdateUser(ctx context.Context, id string, update identity.UserUpdate) (*domain.User, error) {
	if !isUUID(id) {
		return nil, identity.ErrUserNotFound
	}

	query := `
		UPDATE users
		SET name = COALESCE($2, name),
		    email = COALESCE($3, email),
		    bio = COALESCE($4, bio),
		    phone = COALESCE($5, phone),
		    profile_picture = COALESCE($6, profile_picture),
		    address = COALESCE($7, address),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING ` + publicColumns

	user, err := scanUser(r.db.QueryRow(ctx, query,
		id,
		update.Name,
		update.Email,
		update.Bio,
		update.Phone,
		update.ProfilePicture,
		update.Address,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, identity.ErrUserNotFound
		}
		return nil, mapWriteError("update user", err)
	}
	return user, nil
}

// UpdateUserRole changes the role of a user.
func (r *Repository) UpdateUserRole(ctx context.Context, id string, role domain.Role) (*domain.User, error) {
	if !isUUID(id) {
		return nil, identity.ErrUserNotFound
	}

	query := `
		UPDATE users
		SET role = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + publicColumns

	user, err := scanUser(r.db.QueryRow(ctx, query, id, role))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, identity.ErrUserNotFound
		}
		return nil, mapWriteError("update user role", err)
	}
	return user, nil
}

// DeleteUser permanently removes a user. Reports whether a row was deleted.
func (r *Repository) DeleteUser(ctx context.Context, id string) (bool, error) {
	if !isUUID(id) {
		return false, nil
	}

	result, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete user: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// ListUsers returns all users, newest first.
func (r *Repository) ListUsers(ctx context.Context) ([]domain.User, error) {
	query := `SELECT ` + publicColumns + ` FROM users ORDER BY created_at DESC, id`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]domain.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	return users, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Role,
		&user.ProfilePicture,
		&user.Bio,
		&user.Phone,
		&user.Address,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// mapWriteError turns constraint violations into identity errors.
func mapWriteError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolation:
			return identity.ErrEmailExists
		case checkViolation:
			return fmt.Errorf("%w: %s", identity.ErrValidation, pgErr.ConstraintName)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
