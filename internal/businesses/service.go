package businesses

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/guruweb/resto/internal/auth"
	"github.com/guruweb/resto/internal/platform/db"
	"github.com/guruweb/resto/internal/shared"
)

// UserCreator registers dashboard accounts.
type UserCreator interface {
	CreateUser(ctx context.Context, in auth.NewUser) (*auth.User, error)
}

// Service manages tenants and their settings.
type Service struct {
	repo     Repository
	tx       db.Transactor
	users    UserCreator
	validate *validator.Validate
}

// NewService constructs a Service.
func NewService(repo Repository, tx db.Transactor, users UserCreator) *Service {
	return &Service{repo: repo, tx: tx, users: users, validate: shared.NewValidator()}
}

// Get returns the business.
func (s *Service) Get(ctx context.Context, id string) (Business, error) {
	return s.repo.Get(ctx, id)
}

// UpdateProfile saves name, webhook URLs and the legacy API key.
func (s *Service) UpdateProfile(ctx context.Context, id string, in ProfileInput) error {
	in.Name = strings.TrimSpace(in.Name)
	in.WebhookURL = strings.TrimSpace(in.WebhookURL)
	in.WebhookStatusURL = strings.TrimSpace(in.WebhookStatusURL)
	in.APIKey = strings.TrimSpace(in.APIKey)
	if err := s.validate.Struct(in); err != nil {
		return err
	}
	return s.repo.UpdateProfile(ctx, id, in)
}

// UpdateAFIPSettings saves the electronic invoicing credentials.
func (s *Service) UpdateAFIPSettings(ctx context.Context, id string, in AFIPSettingsInput) error {
	in.CUIT = strings.ReplaceAll(strings.TrimSpace(in.CUIT), "-", "")
	in.Token = strings.TrimSpace(in.Token)
	in.Certificate = strings.TrimSpace(in.Certificate)
	in.PrivateKey = strings.TrimSpace(in.PrivateKey)
	if in.PuntoVenta == 0 {
		in.PuntoVenta = 1
	}
	if err := s.validate.Struct(in); err != nil {
		return err
	}
	return s.repo.UpdateAFIP(ctx, id, in)
}

// CreateTenant creates a business and its first business_admin in one
// transaction.
func (s *Service) CreateTenant(ctx context.Context, name, adminEmail, password string) (Business, *auth.User, error) {
	name = strings.TrimSpace(name)
	base := Slugify(name)
	if base == "" {
		return Business{}, nil, errors.New("businesses: name must contain letters or digits")
	}

	var (
		business Business
		admin    *auth.User
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		slug, err := s.freeSlug(ctx, base)
		if err != nil {
			return err
		}
		business, err = s.repo.Create(ctx, Business{Name: name, Slug: slug})
		if err != nil {
			return fmt.Errorf("create business: %w", err)
		}
		admin, err = s.users.CreateUser(ctx, auth.NewUser{
			Email:      adminEmail,
			Name:       "Admin " + name,
			Password:   password,
			Role:       shared.RoleBusinessAdmin,
			BusinessID: business.ID,
		})
		if err != nil {
			return fmt.Errorf("create admin: %w", err)
		}
		return nil
	})
	if err != nil {
		return Business{}, nil, err
	}
	return business, admin, nil
}

func (s *Service) freeSlug(ctx context.Context, base string) (string, error) {
	slug := base
	for i := 2; ; i++ {
		taken, err := s.repo.SlugExists(ctx, slug)
		if err != nil {
			return "", fmt.Errorf("check slug: %w", err)
		}
		if !taken {
			return slug, nil
		}
		slug = base + "-" + strconv.Itoa(i)
	}
}
