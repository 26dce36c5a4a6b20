package businesses

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/guruweb/resto/internal/platform/db"
	"github.com/guruweb/resto/internal/shared"
)

var (
	ErrNotFound    = errors.New("business not found")
	ErrAPIKeyTaken = errors.New("api key already in use")
)

// Repository persists businesses.
type Repository interface {
	Get(ctx context.Context, id string) (Business, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	Create(ctx context.Context, b Business) (Business, error)
	UpdateProfile(ctx context.Context, id string, in ProfileInput) error
	UpdateAFIP(ctx context.Context, id string, in AFIPSettingsInput) error
}

type pgRepository struct {
	pool db.DBTX
}

// NewRepository returns a Postgres-backed Repository.
func NewRepository(pool db.DBTX) Repository {
	return &pgRepository{pool: pool}
}

const businessColumns = `id, name, slug, COALESCE(api_key, ''), webhook_url, webhook_status_url,
	afip_cuit, afip_token, afip_environment, afip_punto_venta, afip_certificate, afip_private_key,
	created_at, updated_at`

func scanBusiness(row pgx.Row) (Business, error) {
	var b Business
	err := row.Scan(&b.ID, &b.Name, &b.Slug, &b.APIKey, &b.WebhookURL, &b.WebhookStatusURL,
		&b.AFIPCUIT, &b.AFIPToken, &b.AFIPEnvironment, &b.AFIPPuntoVenta, &b.AFIPCertificate, &b.AFIPPrivateKey,
		&b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Business{}, ErrNotFound
	}
	return b, err
}

func (r *pgRepository) Get(ctx context.Context, id string) (Business, error) {
	return scanBusiness(db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+businessColumns+` FROM businesses WHERE id = $1`, id))
}

func (r *pgRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM businesses WHERE slug = $1)`, slug).Scan(&exists)
	return exists, err
}

func (r *pgRepository) Create(ctx context.Context, b Business) (Business, error) {
	return scanBusiness(db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO businesses (name, slug)
		VALUES ($1, $2)
		RETURNING `+businessColumns, b.Name, b.Slug))
}

func (r *pgRepository) UpdateProfile(ctx context.Context, id string, in ProfileInput) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `
		UPDATE businesses
		SET name = $2, webhook_url = $3, webhook_status_url = $4, api_key = NULLIF($5, ''), updated_at = now()
		WHERE id = $1`,
		id, in.Name, in.WebhookURL, in.WebhookStatusURL, in.APIKey)
	if _, ok := shared.UniqueViolation(err); ok {
		return ErrAPIKeyTaken
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgRepository) UpdateAFIP(ctx context.Context, id string, in AFIPSettingsInput) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `
		UPDATE businesses
		SET afip_cuit = $2, afip_token = $3, afip_environment = $4, afip_punto_venta = $5,
		    afip_certificate = $6, afip_private_key = $7, updated_at = now()
		WHERE id = $1`,
		id, in.CUIT, in.Token, in.Environment, in.PuntoVenta, in.Certificate, in.PrivateKey)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
