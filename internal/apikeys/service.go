package apikeys

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Service issues and resolves API keys.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Resolve returns the business a key belongs to. Active rows in api_keys win
// over the legacy businesses.api_key column.
func (s *Service) Resolve(ctx context.Context, key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", ErrInvalidKey
	}
	businessID, err := s.repo.Touch(ctx, key)
	if err == nil {
		return businessID, nil
	}
	if !errors.Is(err, ErrInvalidKey) {
		return "", fmt.Errorf("resolve api key: %w", err)
	}
	businessID, err = s.repo.LegacyBusiness(ctx, key)
	if err != nil && !errors.Is(err, ErrInvalidKey) {
		return "", fmt.Errorf("resolve legacy api key: %w", err)
	}
	return businessID, err
}

// Create issues a new key for the business.
func (s *Service) Create(ctx context.Context, businessID, name string) (APIKey, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "default"
	}
	return s.repo.Create(ctx, APIKey{BusinessID: businessID, Key: NewKey(), Name: name, IsActive: true})
}

// List returns all keys of the business, newest first.
func (s *Service) List(ctx context.Context, businessID string) ([]APIKey, error) {
	return s.repo.List(ctx, businessID)
}

// Revoke deactivates a key.
func (s *Service) Revoke(ctx context.Context, businessID, id string) error {
	return s.repo.Revoke(ctx, businessID, id)
}
