package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/guruweb/resto/internal/platform/db"
)

// Repository persists orders and their items. Every call is scoped by
// business id.
type Repository interface {
	Create(ctx context.Context, o Order) (Order, error)
	Get(ctx context.Context, businessID, id string) (Order, error)
	List(ctx context.Context, businessID string, filter ListFilter) ([]Order, int, error)
	Board(ctx context.Context, businessID string, deliveredSince time.Time) ([]Order, error)
	Between(ctx context.Context, businessID string, from, to time.Time) ([]Order, error)
	SalesTotal(ctx context.Context, businessID string, from, to time.Time) (float64, error)
	SetStatus(ctx context.Context, businessID, id string, status Status) error
	Confirm(ctx context.Context, businessID, id string, minutes int) error
	SaveInvoice(ctx context.Context, businessID, id string, inv Invoice) error
}

type pgRepository struct {
	pool db.DBTX
}

// NewRepository returns a Postgres-backed Repository.
func NewRepository(pool db.DBTX) Repository {
	return &pgRepository{pool: pool}
}

const orderSelect = `
	SELECT o.id, o.business_id, COALESCE(o.customer_id::text, ''),
	       COALESCE(c.name, ''), COALESCE(c.phone, ''), COALESCE(c.address, ''),
	       o.status, o.total::float8, o.payment_method, o.source, o.estimated_wait_time,
	       o.afip_cae, o.afip_cae_expiration, o.afip_invoice_number, o.afip_invoice_type,
	       o.afip_invoice_punto_venta, o.afip_invoiced_at, o.created_at, o.updated_at
	FROM orders o
	LEFT JOIN customers c ON c.id = o.customer_id`

func scanOrder(row pgx.Row) (Order, error) {
	var (
		o          Order
		cae        *string
		expiration *time.Time
		number     *int64
		kind       *int
		pos        *int
		invoicedAt *time.Time
	)
	err := row.Scan(&o.ID, &o.BusinessID, &o.CustomerID,
		&o.CustomerName, &o.CustomerPhone, &o.CustomerAddress,
		&o.Status, &o.Total, &o.PaymentMethod, &o.Source, &o.EstimatedWaitTime,
		&cae, &expiration, &number, &kind, &pos, &invoicedAt, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	if err != nil {
		return Order{}, err
	}
	if cae != nil && *cae != "" {
		inv := &Invoice{CAE: *cae}
		if expiration != nil {
			inv.CAEExpiration = *expiration
		}
		if number != nil {
			inv.Number = *number
		}
		if kind != nil {
			inv.Type = *kind
		}
		if pos != nil {
			inv.PointOfSale = *pos
		}
		if invoicedAt != nil {
			inv.InvoicedAt = *invoicedAt
		}
		o.Invoice = inv
	}
	return o, nil
}

func (r *pgRepository) Create(ctx context.Context, o Order) (Order, error) {
	conn := db.Conn(ctx, r.pool)
	err := conn.QueryRow(ctx, `
		INSERT INTO orders (business_id, customer_id, status, total, payment_method, source, estimated_wait_time)
		VALUES ($1, NULLIF($2, '')::uuid, $3, $4::float8, $5, $6, $7)
		RETURNING id, created_at, updated_at`,
		o.BusinessID, o.CustomerID, o.Status, o.Total, o.PaymentMethod, o.Source, o.EstimatedWaitTime,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return Order{}, fmt.Errorf("insert order: %w", err)
	}

	for i := range o.Items {
		item := &o.Items[i]
		item.OrderID = o.ID
		err := conn.QueryRow(ctx, `
			INSERT INTO order_items (order_id, product_id, name, quantity, price, notes)
			VALUES ($1, NULLIF($2, '')::uuid, $3, $4, $5::float8, $6)
			RETURNING id`,
			o.ID, item.ProductID, item.Name, item.Quantity, item.Price, item.Notes,
		).Scan(&item.ID)
		if err != nil {
			return Order{}, fmt.Errorf("insert order item: %w", err)
		}
	}
	return o, nil
}

func (r *pgRepository) Get(ctx context.Context, businessID, id string) (Order, error) {
	row := db.Conn(ctx, r.pool).QueryRow(ctx, orderSelect+` WHERE o.business_id = $1 AND o.id = $2`, businessID, id)
	o, err := scanOrder(row)
	if err != nil {
		return Order{}, err
	}
	list := []Order{o}
	if err := r.attachItems(ctx, list); err != nil {
		return Order{}, err
	}
	return list[0], nil
}

func (r *pgRepository) List(ctx context.Context, businessID string, filter ListFilter) ([]Order, int, error) {
	conditions := []string{"o.business_id = $1"}
	args := []any{businessID}
	argPos := 2

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("o.status = $%d", argPos))
		args = append(args, filter.Status)
		argPos++
	}
	if !filter.Date.IsZero() {
		from, to := DayBounds(filter.Date)
		conditions = append(conditions, fmt.Sprintf("o.created_at >= $%d AND o.created_at < $%d", argPos, argPos+1))
		args = append(args, from, to)
		argPos += 2
	}
	where := " WHERE " + strings.Join(conditions, " AND ")

	conn := db.Conn(ctx, r.pool)
	var total int
	if err := conn.QueryRow(ctx, "SELECT COUNT(*) FROM orders o"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	query := orderSelect + where + fmt.Sprintf(" ORDER BY o.created_at DESC LIMIT $%d OFFSET $%d", argPos, argPos+1)
	args = append(args, limit, filter.Offset)

	rows, err := conn.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	list, err := collect(rows)
	if err != nil {
		return nil, 0, err
	}
	if err := r.attachItems(ctx, list); err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *pgRepository) Board(ctx context.Context, businessID string, deliveredSince time.Time) ([]Order, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, orderSelect+`
		WHERE o.business_id = $1
		  AND (o.status IN ('pending', 'preparation', 'ready')
		       OR (o.status = 'delivered' AND o.updated_at >= $2))
		ORDER BY o.created_at`, businessID, deliveredSince)
	if err != nil {
		return nil, err
	}
	list, err := collect(rows)
	if err != nil {
		return nil, err
	}
	return list, r.attachItems(ctx, list)
}

func (r *pgRepository) Between(ctx context.Context, businessID string, from, to time.Time) ([]Order, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, orderSelect+`
		WHERE o.business_id = $1 AND o.created_at >= $2 AND o.created_at < $3
		ORDER BY o.created_at`, businessID, from, to)
	if err != nil {
		return nil, err
	}
	list, err := collect(rows)
	if err != nil {
		return nil, err
	}
	return list, r.attachItems(ctx, list)
}

func (r *pgRepository) SalesTotal(ctx context.Context, businessID string, from, to time.Time) (float64, error) {
	var total float64
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		SELECT COALESCE(SUM(total), 0)::float8
		FROM orders
		WHERE business_id = $1 AND status <> 'cancelled'
		  AND created_at >= $2 AND created_at < $3`, businessID, from, to).Scan(&total)
	return total, err
}

func (r *pgRepository) SetStatus(ctx context.Context, businessID, id string, status Status) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx,
		`UPDATE orders SET status = $3, updated_at = now() WHERE business_id = $1 AND id = $2`,
		businessID, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgRepository) Confirm(ctx context.Context, businessID, id string, minutes int) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `
		UPDATE orders SET status = 'preparation', estimated_wait_time = $3, updated_at = now()
		WHERE business_id = $1 AND id = $2`, businessID, id, minutes)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SaveInvoice stores the authorization unless the order already carries one.
func (r *pgRepository) SaveInvoice(ctx context.Context, businessID, id string, inv Invoice) error {
	var expiration *time.Time
	if !inv.CAEExpiration.IsZero() {
		expiration = &inv.CAEExpiration
	}
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `
		UPDATE orders
		SET afip_cae = $3, afip_cae_expiration = $4, afip_invoice_number = $5,
		    afip_invoice_type = $6, afip_invoice_punto_venta = $7, afip_invoiced_at = $8,
		    updated_at = now()
		WHERE business_id = $1 AND id = $2 AND afip_cae IS NULL`,
		businessID, id, inv.CAE, expiration, inv.Number, inv.Type, inv.PointOfSale, inv.InvoicedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyInvoiced
	}
	return nil
}

func (r *pgRepository) attachItems(ctx context.Context, list []Order) error {
	if len(list) == 0 {
		return nil
	}
	ids := make([]string, len(list))
	index := make(map[string]int, len(list))
	for i, o := range list {
		ids[i] = o.ID
		index[o.ID] = i
	}
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `
		SELECT id, order_id, COALESCE(product_id::text, ''), name, quantity, price::float8, notes
		FROM order_items
		WHERE order_id = ANY($1::uuid[])
		ORDER BY name`, ids)
	if err != nil {
		return fmt.Errorf("load order items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Name, &it.Quantity, &it.Price, &it.Notes); err != nil {
			return err
		}
		if i, ok := index[it.OrderID]; ok {
			list[i].Items = append(list[i].Items, it)
		}
	}
	return rows.Err()
}

func collect(rows pgx.Rows) ([]Order, error) {
	defer rows.Close()
	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
