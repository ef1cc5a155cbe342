package portfolio

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Service manages portfolio lifecycle
type Service struct {
	repo Repository
}

// NewService creates a new portfolio service
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create creates a new portfolio with its account membership
func (s *Service) Create(ctx context.Context, p *Portfolio) (*Portfolio, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt = time.Now().UTC()

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Get retrieves a portfolio by ID
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Portfolio, error) {
	return s.repo.GetByID(ctx, id)
}

// List retrieves portfolios with paging
func (s *Service) List(ctx context.Context, limit, offset int) ([]*Portfolio, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	return s.repo.List(ctx, limit, offset)
}

// UpdateInput carries the fields of a partial portfolio update. A non-nil
// AccountIDs replaces the membership entirely.
type UpdateInput struct {
	Name        *string
	Description *string
	AccountIDs  *[]uuid.UUID
}

// Update applies a partial update to a portfolio
func (s *Service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*Portfolio, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		p.Name = *input.Name
	}
	if input.Description != nil {
		p.Description = *input.Description
	}
	if input.AccountIDs != nil {
		p.AccountIDs = *input.AccountIDs
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Delete removes a portfolio; member accounts are untouched
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}
