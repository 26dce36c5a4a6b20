package customers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/guruweb/resto/internal/shared"
)

// SearchLimit caps autocomplete results.
const SearchLimit = 10

// Service holds customer business rules.
type Service struct {
	repo     Repository
	validate *validator.Validate
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, validate: shared.NewValidator()}
}

// Create registers a customer. A phone already known to the business yields
// a *DuplicateError carrying the existing row.
func (s *Service) Create(ctx context.Context, businessID string, in CreateInput) (Customer, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Address = strings.TrimSpace(in.Address)
	in.Email = strings.TrimSpace(in.Email)
	if err := s.validate.Struct(in); err != nil {
		return Customer{}, err
	}

	existing, err := s.repo.FindByPhone(ctx, businessID, in.Phone)
	switch {
	case err == nil:
		return Customer{}, &DuplicateError{Existing: existing}
	case !errors.Is(err, ErrNotFound):
		return Customer{}, fmt.Errorf("check existing customer: %w", err)
	}

	created, err := s.repo.Create(ctx, Customer{
		BusinessID: businessID,
		Name:       in.Name,
		Phone:      in.Phone,
		Address:    in.Address,
		Email:      in.Email,
		Notes:      in.Notes,
		Status:     StatusForAddress(in.Address),
	})
	if errors.Is(err, ErrAlreadyExists) {
		// lost a race with a concurrent insert
		if existing, ferr := s.repo.FindByPhone(ctx, businessID, in.Phone); ferr == nil {
			return Customer{}, &DuplicateError{Existing: existing}
		}
	}
	if err != nil {
		return Customer{}, fmt.Errorf("create customer: %w", err)
	}
	return created, nil
}

// Update applies the non-nil fields of in. Giving an address to a customer
// waiting for one makes it active unless a status is supplied.
func (s *Service) Update(ctx context.Context, businessID, id string, in UpdateInput) (Customer, error) {
	if err := s.validate.Struct(in); err != nil {
		return Customer{}, err
	}
	c, err := s.repo.Get(ctx, businessID, id)
	if err != nil {
		return Customer{}, err
	}
	if in.Empty() {
		return c, nil
	}

	if in.Name != nil {
		c.Name = strings.TrimSpace(*in.Name)
	}
	if in.Phone != nil {
		c.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.Email != nil {
		c.Email = strings.TrimSpace(*in.Email)
	}
	if in.Notes != nil {
		c.Notes = *in.Notes
	}
	if in.Address != nil {
		c.Address = strings.TrimSpace(*in.Address)
		if c.Address != "" && c.Status == StatusWaitingAddress {
			c.Status = StatusActive
		}
	}
	if in.Status != nil {
		c.Status = *in.Status
	}

	updated, err := s.repo.Update(ctx, c)
	if err != nil {
		return Customer{}, fmt.Errorf("update customer: %w", err)
	}
	return updated, nil
}

// Get returns one customer of the business.
func (s *Service) Get(ctx context.Context, businessID, id string) (Customer, error) {
	return s.repo.Get(ctx, businessID, id)
}

// FindByPhone looks a customer up by exact phone.
func (s *Service) FindByPhone(ctx context.Context, businessID, phone string) (Customer, error) {
	return s.repo.FindByPhone(ctx, businessID, strings.TrimSpace(phone))
}

// Search matches name or phone, for the order form autocomplete.
func (s *Service) Search(ctx context.Context, businessID, query string) ([]Customer, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	return s.repo.Search(ctx, businessID, query, SearchLimit)
}

// List pages through the business customers.
func (s *Service) List(ctx context.Context, businessID string, filter ListFilter) ([]Customer, int, error) {
	return s.repo.List(ctx, businessID, filter)
}

// UpsertByPhone resolves the customer of an incoming order. A new phone is
// created with a status derived from the address. A known phone keeps its
// row; a different non-empty address replaces address and name and makes
// the customer active. Run it inside the order transaction.
func (s *Service) UpsertByPhone(ctx context.Context, businessID, name, phone, address string) (Customer, error) {
	name = strings.TrimSpace(name)
	phone = strings.TrimSpace(phone)
	address = strings.TrimSpace(address)

	existing, err := s.repo.FindByPhone(ctx, businessID, phone)
	if errors.Is(err, ErrNotFound) {
		created, err := s.repo.Create(ctx, Customer{
			BusinessID: businessID,
			Name:       name,
			Phone:      phone,
			Address:    address,
			Status:     StatusForAddress(address),
		})
		if err != nil {
			return Customer{}, fmt.Errorf("create customer: %w", err)
		}
		return created, nil
	}
	if err != nil {
		return Customer{}, fmt.Errorf("find customer: %w", err)
	}

	if address == "" || address == existing.Address {
		return existing, nil
	}
	existing.Address = address
	if name != "" {
		existing.Name = name
	}
	existing.Status = StatusActive
	updated, err := s.repo.Update(ctx, existing)
	if err != nil {
		return Customer{}, fmt.Errorf("update customer: %w", err)
	}
	return updated, nil
}
