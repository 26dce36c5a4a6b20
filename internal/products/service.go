package products

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/guruweb/resto/internal/shared"
)

// Service manages the product catalog.
type Service struct {
	repo     Repository
	validate *validator.Validate
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, validate: shared.NewValidator()}
}

func (s *Service) normalize(in Input) (Input, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Category = strings.TrimSpace(in.Category)
	in.Description = strings.TrimSpace(in.Description)
	in.Price = math.Round(in.Price*100) / 100
	return in, s.validate.Struct(in)
}

// List returns the catalog ordered by category then name.
func (s *Service) List(ctx context.Context, businessID string, filter ListFilter) ([]Product, error) {
	list, err := s.repo.List(ctx, businessID, filter)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return list, nil
}

// Get returns one product.
func (s *Service) Get(ctx context.Context, businessID, id string) (Product, error) {
	return s.repo.Get(ctx, businessID, id)
}

// Lookup returns the products among ids that belong to the business.
func (s *Service) Lookup(ctx context.Context, businessID string, ids []string) (map[string]Product, error) {
	return s.repo.GetMany(ctx, businessID, ids)
}

// Create adds an available product.
func (s *Service) Create(ctx context.Context, businessID string, in Input) (Product, error) {
	in, err := s.normalize(in)
	if err != nil {
		return Product{}, err
	}
	return s.repo.Create(ctx, Product{
		BusinessID:  businessID,
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Category:    in.Category,
		IsAvailable: true,
	})
}

// Update replaces the editable fields of a product.
func (s *Service) Update(ctx context.Context, businessID, id string, in Input) (Product, error) {
	in, err := s.normalize(in)
	if err != nil {
		return Product{}, err
	}
	return s.repo.Update(ctx, Product{
		ID:          id,
		BusinessID:  businessID,
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Category:    in.Category,
	})
}

// SetAvailability toggles whether the product can be ordered.
func (s *Service) SetAvailability(ctx context.Context, businessID, id string, available bool) error {
	return s.repo.SetAvailability(ctx, businessID, id, available)
}

// Delete removes a product. Order items keep their name and price snapshot.
func (s *Service) Delete(ctx context.Context, businessID, id string) error {
	return s.repo.Delete(ctx, businessID, id)
}

// Categories returns the distinct categories of list in order of appearance.
func Categories(list []Product) []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range list {
		if p.Category == "" || seen[p.Category] {
			continue
		}
		seen[p.Category] = true
		out = append(out, p.Category)
	}
	return out
}
