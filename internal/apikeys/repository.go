package apikeys

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/guruweb/resto/internal/platform/db"
)

// Repository persists API keys.
type Repository interface {
	// Touch marks an active key as used and returns its business.
	Touch(ctx context.Context, key string) (string, error)
	// LegacyBusiness resolves the single key stored on the business row.
	LegacyBusiness(ctx context.Context, key string) (string, error)
	Create(ctx context.Context, k APIKey) (APIKey, error)
	List(ctx context.Context, businessID string) ([]APIKey, error)
	Revoke(ctx context.Context, businessID, id string) error
}

type pgRepository struct {
	pool db.DBTX
}

// NewRepository returns a Postgres-backed Repository.
func NewRepository(pool db.DBTX) Repository {
	return &pgRepository{pool: pool}
}

func (r *pgRepository) Touch(ctx context.Context, key string) (string, error) {
	var businessID string
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		UPDATE api_keys SET last_used_at = now()
		WHERE key = $1 AND is_active
		RETURNING business_id`, key).Scan(&businessID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrInvalidKey
	}
	return businessID, err
}

func (r *pgRepository) LegacyBusiness(ctx context.Context, key string) (string, error) {
	var businessID string
	err := db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT id FROM businesses WHERE api_key = $1`, key).Scan(&businessID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrInvalidKey
	}
	return businessID, err
}

const keyColumns = `id, business_id, key, name, is_active, created_at, last_used_at`

func scanKey(row pgx.Row) (APIKey, error) {
	var k APIKey
	err := row.Scan(&k.ID, &k.BusinessID, &k.Key, &k.Name, &k.IsActive, &k.CreatedAt, &k.LastUsedAt)
	return k, err
}

func (r *pgRepository) Create(ctx context.Context, k APIKey) (APIKey, error) {
	return scanKey(db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO api_keys (business_id, key, name, is_active)
		VALUES ($1, $2, $3, true)
		RETURNING `+keyColumns, k.BusinessID, k.Key, k.Name))
}

func (r *pgRepository) List(ctx context.Context, businessID string) ([]APIKey, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx,
		`SELECT `+keyColumns+` FROM api_keys WHERE business_id = $1 ORDER BY created_at DESC`, businessID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []APIKey
	for rows.Next() {
		k, err := scanKey(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

func (r *pgRepository) Revoke(ctx context.Context, businessID, id string) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx,
		`UPDATE api_keys SET is_active = false WHERE business_id = $1 AND id = $2`, businessID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
