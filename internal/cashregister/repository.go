package cashregister

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/guruweb/resto/internal/platform/db"
	"github.com/guruweb/resto/internal/shared"
)

// Repository persists register sessions.
type Repository interface {
	Current(ctx context.Context, businessID string) (Register, error)
	Get(ctx context.Context, businessID, id string) (Register, error)
	Open(ctx context.Context, r Register) (Register, error)
	Close(ctx context.Context, r Register) (Register, error)
	History(ctx context.Context, businessID string, limit int) ([]Register, error)
}

type pgRepository struct {
	pool db.DBTX
}

// NewRepository returns a Postgres-backed Repository.
func NewRepository(pool db.DBTX) Repository {
	return &pgRepository{pool: pool}
}

const registerColumns = `id, business_id, COALESCE(opened_by_id::text, ''), COALESCE(closed_by_id::text, ''),
	opening_time, closing_time, initial_amount::float8, final_amount_calculated::float8,
	final_amount_actual::float8, notes, status`

func scanRegister(row pgx.Row) (Register, error) {
	var r Register
	err := row.Scan(&r.ID, &r.BusinessID, &r.OpenedByID, &r.ClosedByID,
		&r.OpeningTime, &r.ClosingTime, &r.InitialAmount, &r.FinalAmountCalculated,
		&r.FinalAmountActual, &r.Notes, &r.Status)
	if errors.Is(err, pgx.ErrNoRows) {
		return Register{}, ErrNotFound
	}
	return r, err
}

func (p *pgRepository) Current(ctx context.Context, businessID string) (Register, error) {
	row := db.Conn(ctx, p.pool).QueryRow(ctx,
		`SELECT `+registerColumns+` FROM cash_registers WHERE business_id = $1 AND status = 'open'`, businessID)
	r, err := scanRegister(row)
	if errors.Is(err, ErrNotFound) {
		return Register{}, ErrNoOpenRegister
	}
	return r, err
}

func (p *pgRepository) Get(ctx context.Context, businessID, id string) (Register, error) {
	row := db.Conn(ctx, p.pool).QueryRow(ctx,
		`SELECT `+registerColumns+` FROM cash_registers WHERE business_id = $1 AND id = $2`, businessID, id)
	return scanRegister(row)
}

// Open inserts an open session. The partial unique index on open rows
// turns a concurrent second open into ErrRegisterAlreadyOpen.
func (p *pgRepository) Open(ctx context.Context, r Register) (Register, error) {
	row := db.Conn(ctx, p.pool).QueryRow(ctx, `
		INSERT INTO cash_registers (business_id, opened_by_id, initial_amount, notes, status)
		VALUES ($1, NULLIF($2, '')::uuid, $3::float8, $4, 'open')
		RETURNING `+registerColumns,
		r.BusinessID, r.OpenedByID, r.InitialAmount, r.Notes)
	opened, err := scanRegister(row)
	if _, ok := shared.UniqueViolation(err); ok {
		return Register{}, ErrRegisterAlreadyOpen
	}
	return opened, err
}

func (p *pgRepository) Close(ctx context.Context, r Register) (Register, error) {
	row := db.Conn(ctx, p.pool).QueryRow(ctx, `
		UPDATE cash_registers
		SET status = 'closed', closed_by_id = NULLIF($3, '')::uuid, closing_time = $4,
		    final_amount_calculated = $5::float8, final_amount_actual = $6::float8, notes = $7
		WHERE business_id = $1 AND id = $2 AND status = 'open'
		RETURNING `+registerColumns,
		r.BusinessID, r.ID, r.ClosedByID, r.ClosingTime, r.FinalAmountCalculated, r.FinalAmountActual, r.Notes)
	closed, err := scanRegister(row)
	if errors.Is(err, ErrNotFound) {
		return Register{}, ErrNoOpenRegister
	}
	return closed, err
}

func (p *pgRepository) History(ctx context.Context, businessID string, limit int) ([]Register, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.Conn(ctx, p.pool).Query(ctx, `
		SELECT `+registerColumns+`
		FROM cash_registers
		WHERE business_id = $1
		ORDER BY opening_time DESC
		LIMIT $2`, businessID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Register
	for rows.Next() {
		r, err := scanRegister(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
