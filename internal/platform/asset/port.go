package asset

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Repository defines the interface for asset persistence
type Repository interface {
	Create(ctx context.Context, asset *Asset) error
	GetByID(ctx context.Context, id uuid.UUID) (*Asset, error)
	GetByTicker(ctx context.Context, ticker string) (*Asset, error)
	FindByTickerAndType(ctx context.Context, ticker string, assetType AssetType) (*Asset, error)
	List(ctx context.Context, limit, offset int) ([]*Asset, error)
	Update(ctx context.Context, asset *Asset) error
	// Delete removes the asset. It returns ErrAssetInUse while transactions
	// reference it.
	Delete(ctx context.Context, id uuid.UUID) error
	// UpdatePrice stamps a new current price and last_updated for a ticker.
	UpdatePrice(ctx context.Context, ticker string, price decimal.Decimal, updatedAt time.Time) error
}

// PriceCache caches current prices keyed by ticker
type PriceCache interface {
	Get(ctx context.Context, ticker string) (decimal.Decimal, bool, error)
	Set(ctx context.Context, ticker string, price decimal.Decimal) error
}

// PriceProvider fetches current quotes from an external market-data source
type PriceProvider interface {
	// Quotes returns the current price per ticker. Tickers missing from the
	// result simply have no fresh quote; that is not an error.
	Quotes(ctx context.Context, tickers []string) (map[string]decimal.Decimal, error)
}
