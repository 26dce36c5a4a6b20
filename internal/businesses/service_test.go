package businesses

import (
	"context"
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guruweb/resto/internal/afip"
	"github.com/guruweb/resto/internal/auth"
	"github.com/guruweb/resto/internal/platform/db"
	"github.com/guruweb/resto/internal/shared"
)

type recordingUsers struct {
	created []auth.NewUser
	err     error
}

func (r *recordingUsers) CreateUser(ctx context.Context, in auth.NewUser) (*auth.User, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.created = append(r.created, in)
	return &auth.User{ID: "u1", Email: in.Email, Role: in.Role, BusinessID: in.BusinessID}, nil
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Pizzería Don Ñoño":      "pizzeria-don-nono",
		"  La   Parrilla  ":      "la-parrilla",
		"Café & Bar #1":          "cafe-bar-1",
		"¡¡¡":                    "",
		"Empanadas de la Abuela": "empanadas-de-la-abuela",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slugify(in), in)
	}
}

func TestCreateTenant(t *testing.T) {
	repo := NewMemoryRepository()
	repo.Put(Business{Name: "existing", Slug: "la-esquina"})
	users := &recordingUsers{}
	svc := NewService(repo, db.NoopTransactor{}, users)

	b, admin, err := svc.CreateTenant(context.Background(), "La Esquina", "admin@esquina.test", "secreto123")
	require.NoError(t, err)
	assert.Equal(t, "la-esquina-2", b.Slug)
	assert.Equal(t, afip.EnvironmentDev, b.AFIPEnvironment)
	require.Len(t, users.created, 1)
	assert.Equal(t, shared.RoleBusinessAdmin, users.created[0].Role)
	assert.Equal(t, b.ID, admin.BusinessID)

	_, _, err = svc.CreateTenant(context.Background(), "!!!", "a@b.test", "secreto123")
	assert.Error(t, err)

	users.err = errors.New("boom")
	_, _, err = svc.CreateTenant(context.Background(), "Otro", "a@b.test", "secreto123")
	assert.ErrorContains(t, err, "create admin")
}

func TestUpdateAFIPSettings(t *testing.T) {
	repo := NewMemoryRepository()
	b := repo.Put(Business{Name: "Resto", Slug: "resto"})
	svc := NewService(repo, db.NoopTransactor{}, &recordingUsers{})
	ctx := context.Background()

	err := svc.UpdateAFIPSettings(ctx, b.ID, AFIPSettingsInput{CUIT: "20-12345678-9", Token: "tok", Environment: "prod"})
	require.NoError(t, err)

	got, err := svc.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, got.AFIPConfigured())
	assert.Equal(t, "20123456789", got.AFIPCUIT)
	assert.Equal(t, 1, got.PointOfSale())
	assert.Equal(t, afip.EnvironmentProd, got.AFIPCredentials().Environment)

	err = svc.UpdateAFIPSettings(ctx, b.ID, AFIPSettingsInput{CUIT: "123", Token: "tok", Environment: "staging"})
	var verrs validator.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Len(t, verrs, 2)
}

func TestUpdateProfileAPIKeyConflict(t *testing.T) {
	repo := NewMemoryRepository()
	a := repo.Put(Business{Name: "A", Slug: "a", APIKey: "shared-key-0123456789"})
	b := repo.Put(Business{Name: "B", Slug: "b"})
	svc := NewService(repo, db.NoopTransactor{}, &recordingUsers{})

	err := svc.UpdateProfile(context.Background(), b.ID, ProfileInput{Name: "B", APIKey: a.APIKey})
	assert.ErrorIs(t, err, ErrAPIKeyTaken)

	err = svc.UpdateProfile(context.Background(), b.ID, ProfileInput{Name: "B", WebhookURL: "not a url"})
	var verrs validator.ValidationErrors
	assert.True(t, errors.As(err, &verrs))
}
