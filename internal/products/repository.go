package products

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/guruweb/resto/internal/platform/db"
)

var ErrNotFound = errors.New("product not found")

// Repository persists products.
type Repository interface {
	List(ctx context.Context, businessID string, filter ListFilter) ([]Product, error)
	Get(ctx context.Context, businessID, id string) (Product, error)
	GetMany(ctx context.Context, businessID string, ids []string) (map[string]Product, error)
	Create(ctx context.Context, p Product) (Product, error)
	Update(ctx context.Context, p Product) (Product, error)
	SetAvailability(ctx context.Context, businessID, id string, available bool) error
	Delete(ctx context.Context, businessID, id string) error
}

type pgRepository struct {
	pool db.DBTX
}

// NewRepository returns a Postgres-backed Repository.
func NewRepository(pool db.DBTX) Repository {
	return &pgRepository{pool: pool}
}

const productColumns = `id, business_id, name, description, price::float8, category, is_available, created_at, updated_at`

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.BusinessID, &p.Name, &p.Description, &p.Price, &p.Category, &p.IsAvailable, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	return p, err
}

func (r *pgRepository) List(ctx context.Context, businessID string, filter ListFilter) ([]Product, error) {
	conditions := []string{"business_id = $1"}
	args := []any{businessID}
	if filter.Category != "" {
		args = append(args, filter.Category)
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)))
	}
	if filter.OnlyAvailable {
		conditions = append(conditions, "is_available")
	}
	rows, err := db.Conn(ctx, r.pool).Query(ctx,
		`SELECT `+productColumns+` FROM products WHERE `+strings.Join(conditions, " AND ")+` ORDER BY category, name`,
		args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *pgRepository) Get(ctx context.Context, businessID, id string) (Product, error) {
	return scanProduct(db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE business_id = $1 AND id = $2`, businessID, id))
}

func (r *pgRepository) GetMany(ctx context.Context, businessID string, ids []string) (map[string]Product, error) {
	out := make(map[string]Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := db.Conn(ctx, r.pool).Query(ctx,
		`SELECT `+productColumns+` FROM products WHERE business_id = $1 AND id = ANY($2::uuid[])`, businessID, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out[p.ID] = p
	}
	return out, rows.Err()
}

func (r *pgRepository) Create(ctx context.Context, p Product) (Product, error) {
	return scanProduct(db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO products (business_id, name, description, price, category, is_available)
		VALUES ($1, $2, $3, $4::float8, $5, $6)
		RETURNING `+productColumns,
		p.BusinessID, p.Name, p.Description, p.Price, p.Category, p.IsAvailable))
}

func (r *pgRepository) Update(ctx context.Context, p Product) (Product, error) {
	return scanProduct(db.Conn(ctx, r.pool).QueryRow(ctx, `
		UPDATE products
		SET name = $3, description = $4, price = $5::float8, category = $6, updated_at = now()
		WHERE business_id = $1 AND id = $2
		RETURNING `+productColumns,
		p.BusinessID, p.ID, p.Name, p.Description, p.Price, p.Category))
}

func (r *pgRepository) SetAvailability(ctx context.Context, businessID, id string, available bool) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx,
		`UPDATE products SET is_available = $3, updated_at = now() WHERE business_id = $1 AND id = $2`,
		businessID, id, available)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgRepository) Delete(ctx context.Context, businessID, id string) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx,
		`DELETE FROM products WHERE business_id = $1 AND id = $2`, businessID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
