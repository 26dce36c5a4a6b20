package customers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/guruweb/resto/internal/platform/db"
	"github.com/guruweb/resto/internal/shared"
)

// Repository persists customers. Every call is scoped by business id.
type Repository interface {
	Get(ctx context.Context, businessID, id string) (Customer, error)
	FindByPhone(ctx context.Context, businessID, phone string) (Customer, error)
	Create(ctx context.Context, c Customer) (Customer, error)
	Update(ctx context.Context, c Customer) (Customer, error)
	Search(ctx context.Context, businessID, query string, limit int) ([]Customer, error)
	List(ctx context.Context, businessID string, filter ListFilter) ([]Customer, int, error)
}

type pgRepository struct {
	pool db.DBTX
}

// NewRepository returns a Postgres-backed Repository. Calls join the
// transaction carried on the context, if any.
func NewRepository(pool db.DBTX) Repository {
	return &pgRepository{pool: pool}
}

const customerColumns = `id, business_id, name, phone, address, notes, email, status, created_at, updated_at`

func scanCustomer(row pgx.Row) (Customer, error) {
	var c Customer
	err := row.Scan(&c.ID, &c.BusinessID, &c.Name, &c.Phone, &c.Address, &c.Notes, &c.Email, &c.Status, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Customer{}, ErrNotFound
	}
	return c, err
}

func (r *pgRepository) Get(ctx context.Context, businessID, id string) (Customer, error) {
	row := db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE business_id = $1 AND id = $2`, businessID, id)
	return scanCustomer(row)
}

func (r *pgRepository) FindByPhone(ctx context.Context, businessID, phone string) (Customer, error) {
	row := db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE business_id = $1 AND phone = $2`, businessID, phone)
	return scanCustomer(row)
}

func (r *pgRepository) Create(ctx context.Context, c Customer) (Customer, error) {
	row := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO customers (business_id, name, phone, address, notes, email, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+customerColumns,
		c.BusinessID, c.Name, c.Phone, c.Address, c.Notes, c.Email, c.Status)
	created, err := scanCustomer(row)
	if _, ok := shared.UniqueViolation(err); ok {
		return Customer{}, ErrAlreadyExists
	}
	return created, err
}

func (r *pgRepository) Update(ctx context.Context, c Customer) (Customer, error) {
	row := db.Conn(ctx, r.pool).QueryRow(ctx, `
		UPDATE customers
		SET name = $3, phone = $4, address = $5, notes = $6, email = $7, status = $8, updated_at = now()
		WHERE business_id = $1 AND id = $2
		RETURNING `+customerColumns,
		c.BusinessID, c.ID, c.Name, c.Phone, c.Address, c.Notes, c.Email, c.Status)
	updated, err := scanCustomer(row)
	if _, ok := shared.UniqueViolation(err); ok {
		return Customer{}, ErrAlreadyExists
	}
	return updated, err
}

func (r *pgRepository) Search(ctx context.Context, businessID, query string, limit int) ([]Customer, error) {
	pattern := "%" + query + "%"
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `
		SELECT `+customerColumns+`
		FROM customers
		WHERE business_id = $1 AND (name ILIKE $2 OR phone ILIKE $2)
		ORDER BY name
		LIMIT $3`, businessID, pattern, limit)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

func (r *pgRepository) List(ctx context.Context, businessID string, filter ListFilter) ([]Customer, int, error) {
	conditions := []string{"business_id = $1"}
	args := []any{businessID}
	argPos := 2

	if filter.Query != "" {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR phone ILIKE $%d)", argPos, argPos))
		args = append(args, "%"+filter.Query+"%")
		argPos++
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, filter.Status)
		argPos++
	}
	where := "WHERE " + strings.Join(conditions, " AND ")

	conn := db.Conn(ctx, r.pool)
	var total int
	if err := conn.QueryRow(ctx, "SELECT COUNT(*) FROM customers "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf(`SELECT %s FROM customers %s ORDER BY name LIMIT $%d OFFSET $%d`,
		customerColumns, where, argPos, argPos+1)
	args = append(args, limit, filter.Offset)

	rows, err := conn.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	list, err := collect(rows)
	return list, total, err
}

func collect(rows pgx.Rows) ([]Customer, error) {
	defer rows.Close()
	var out []Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
