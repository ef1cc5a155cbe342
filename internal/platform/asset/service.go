package asset

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/foliotrack/foliotrack/internal/ledger"
	"github.com/foliotrack/foliotrack/pkg/logger"
)

// Service manages the asset registry and price lookups
type Service struct {
	repo  Repository
	cache PriceCache
	log   *logger.Logger
}

// NewService creates a new asset service. The cache may be nil, in which case
// every price lookup goes to the repository.
func NewService(repo Repository, cache PriceCache, log *logger.Logger) *Service {
	return &Service{
		repo:  repo,
		cache: cache,
		log:   log.WithField("component", "asset"),
	}
}

// Create registers a new asset
func (s *Service) Create(ctx context.Context, a *Asset) (*Asset, error) {
	a.Normalize()
	if err := a.Validate(); err != nil {
		return nil, err
	}

	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	now := time.Now().UTC()
	a.CreatedAt = now
	a.LastUpdated = now

	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Get retrieves an asset by ID
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Asset, error) {
	return s.repo.GetByID(ctx, id)
}

// List retrieves assets with paging
func (s *Service) List(ctx context.Context, limit, offset int) ([]*Asset, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	return s.repo.List(ctx, limit, offset)
}

// UpdateInput carries the fields of a partial asset update
type UpdateInput struct {
	Ticker       *string
	Name         *string
	Type         *AssetType
	Currency     *string
	CurrentPrice *decimal.Decimal
}

// Update applies a partial update. A price change stamps last_updated and
// write-throughs the price cache.
func (s *Service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*Asset, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Ticker != nil {
		a.Ticker = *input.Ticker
	}
	if input.Name != nil {
		a.Name = *input.Name
	}
	if input.Type != nil {
		a.Type = *input.Type
	}
	if input.Currency != nil {
		a.Currency = *input.Currency
	}
	priceChanged := false
	if input.CurrentPrice != nil {
		a.CurrentPrice = *input.CurrentPrice
		a.LastUpdated = time.Now().UTC()
		priceChanged = true
	}

	a.Normalize()
	if err := a.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}

	if priceChanged && s.cache != nil {
		if err := s.cache.Set(ctx, a.Ticker, a.CurrentPrice); err != nil {
			s.log.Warn("failed to cache updated price", "ticker", a.Ticker, "error", err)
		}
	}

	return a, nil
}

// Delete removes an asset; it fails with ErrAssetInUse while transactions
// reference it.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// CurrentPrice returns the current price for an asset, preferring the cache.
// A missing cache entry falls back to the stored price; the stored price is
// whatever the last refresh left behind, stale or not.
func (s *Service) CurrentPrice(ctx context.Context, id uuid.UUID) (decimal.Decimal, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return decimal.Zero, err
	}

	if s.cache != nil {
		if price, ok, err := s.cache.Get(ctx, a.Ticker); err == nil && ok {
			return price, nil
		}
	}

	return a.CurrentPrice, nil
}

// FindCashAssetID resolves the fiat asset representing a currency. It
// satisfies the ledger's AssetSource.
func (s *Service) FindCashAssetID(ctx context.Context, currency string) (uuid.UUID, error) {
	a, err := s.repo.FindByTickerAndType(ctx, currency, AssetTypeFiat)
	if errors.Is(err, ErrAssetNotFound) {
		return uuid.Nil, ledger.ErrCashAssetNotFound
	}
	if err != nil {
		return uuid.Nil, err
	}
	return a.ID, nil
}
