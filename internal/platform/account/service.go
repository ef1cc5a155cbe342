package account

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Service manages account lifecycle
type Service struct {
	repo Repository
}

// NewService creates a new account service
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create creates a new account
func (s *Service) Create(ctx context.Context, acc *Account) (*Account, error) {
	acc.Normalize()
	if err := acc.Validate(); err != nil {
		return nil, err
	}

	if acc.ID == uuid.Nil {
		acc.ID = uuid.New()
	}
	acc.CreatedAt = time.Now().UTC()

	if err := s.repo.Create(ctx, acc); err != nil {
		return nil, err
	}
	return acc, nil
}

// Get retrieves an account by ID
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Account, error) {
	return s.repo.GetByID(ctx, id)
}

// List retrieves accounts with paging
func (s *Service) List(ctx context.Context, limit, offset int) ([]*Account, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	return s.repo.List(ctx, limit, offset)
}

// UpdateInput carries the fields of a partial account update
type UpdateInput struct {
	Name     *string
	Currency *string
}

// Update applies a partial update to an account
func (s *Service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*Account, error) {
	acc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		acc.Name = *input.Name
	}
	if input.Currency != nil {
		acc.Currency = *input.Currency
	}

	acc.Normalize()
	if err := acc.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, acc); err != nil {
		return nil, err
	}
	return acc, nil
}

// Delete removes an account together with its transactions and positions
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// GetCurrency returns the currency code for an account. It satisfies the
// ledger's AccountSource.
func (s *Service) GetCurrency(ctx context.Context, id uuid.UUID) (string, error) {
	acc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return acc.Currency, nil
}
