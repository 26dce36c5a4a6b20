package auth

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/guruweb/resto/internal/platform/db"
	"github.com/guruweb/resto/internal/shared"
)

// ErrEmailTaken is returned when the email already has an account.
var ErrEmailTaken = errors.New("email already registered")

// Repository defines persistence operations for auth module.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	Create(ctx context.Context, u User) (*User, error)
	UpdatePassword(ctx context.Context, email, hash string) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool db.DBTX
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool db.DBTX) *PGRepository {
	return &PGRepository{pool: pool}
}

const userColumns = `id, email, name, password_hash, role, COALESCE(business_id::text, ''), created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Role, &u.BusinessID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// FindByEmail fetches a user by email, case-insensitively.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	return scanUser(db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email))
}

// Create inserts a user. An empty BusinessID is stored as NULL.
func (r *PGRepository) Create(ctx context.Context, u User) (*User, error) {
	user, err := scanUser(db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO users (email, name, password_hash, role, business_id)
		VALUES ($1, $2, $3, $4, NULLIF($5, '')::uuid)
		RETURNING `+userColumns,
		u.Email, u.Name, u.PasswordHash, u.Role, u.BusinessID))
	if _, ok := shared.UniqueViolation(err); ok {
		return nil, ErrEmailTaken
	}
	return user, err
}

// UpdatePassword replaces the password hash of the account.
func (r *PGRepository) UpdatePassword(ctx context.Context, email, hash string) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx,
		`UPDATE users SET password_hash = $2, updated_at = now() WHERE lower(email) = lower($1)`, email, hash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ Repository = (*PGRepository)(nil)
