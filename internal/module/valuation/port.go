package valuation

import (
	"context"

	"github.com/google/uuid"

	"github.com/foliotrack/foliotrack/internal/ledger"
	"github.com/foliotrack/foliotrack/internal/platform/account"
	"github.com/foliotrack/foliotrack/internal/platform/asset"
	"github.com/foliotrack/foliotrack/internal/platform/portfolio"
)

// AccountSource provides account reads for valuation
type AccountSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (*account.Account, error)
	ListAll(ctx context.Context) ([]*account.Account, error)
}

// AssetSource provides asset reads for valuation. The stored current_price is
// the price oracle's last observation.
type AssetSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (*asset.Asset, error)
}

// PositionSource provides materialized position reads. ListAll returns
// positions ordered by asset ID ascending so that dashboard tie-breaking is
// deterministic.
type PositionSource interface {
	ListPositionsByAccount(ctx context.Context, accountID uuid.UUID) ([]*ledger.Position, error)
	ListAllPositions(ctx context.Context) ([]*ledger.Position, error)
}

// PortfolioSource provides portfolio reads for valuation
type PortfolioSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (*portfolio.Portfolio, error)
}
