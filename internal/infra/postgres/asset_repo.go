package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/foliotrack/foliotrack/internal/platform/asset"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// AssetRepository implements the asset repository interface using PostgreSQL
type AssetRepository struct {
	pool *pgxpool.Pool
}

// NewAssetRepository creates a new PostgreSQL asset repository
func NewAssetRepository(pool *pgxpool.Pool) *AssetRepository {
	return &AssetRepository{pool: pool}
}

const assetColumns = `id, ticker, name, type, currency, current_price, last_updated, created_at`

// Create inserts a new asset
func (r *AssetRepository) Create(ctx context.Context, a *asset.Asset) error {
	query := `
		INSERT INTO assets (id, ticker, name, type, currency, current_price, last_updated, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	q := querierFor(ctx, r.pool)
	_, err := q.Exec(ctx, query,
		a.ID, a.Ticker, a.Name, string(a.Type), a.Currency, a.CurrentPrice, a.LastUpdated, a.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return asset.ErrTickerTaken
		}
		return fmt.Errorf("failed to create asset: %w", err)
	}

	return nil
}

// GetByID retrieves an asset by ID
func (r *AssetRepository) GetByID(ctx context.Context, id uuid.UUID) (*asset.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM assets WHERE id = $1`

	q := querierFor(ctx, r.pool)
	a, err := scanAsset(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, asset.ErrAssetNotFound
		}
		return nil, fmt.Errorf("failed to get asset: %w", err)
	}

	return a, nil
}

// GetByTicker retrieves an asset by its ticker symbol
func (r *AssetRepository) GetByTicker(ctx context.Context, ticker string) (*asset.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM assets WHERE ticker = $1`

	q := querierFor(ctx, r.pool)
	a, err := scanAsset(q.QueryRow(ctx, query, ticker))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, asset.ErrAssetNotFound
		}
		return nil, fmt.Errorf("failed to get asset by ticker: %w", err)
	}

	return a, nil
}

// FindByTickerAndType retrieves an asset matching both ticker and type.
// The cash lookup uses this to find the fiat asset for an account currency.
func (r *AssetRepository) FindByTickerAndType(ctx context.Context, ticker string, typ asset.AssetType) (*asset.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM assets WHERE ticker = $1 AND type = $2`

	q := querierFor(ctx, r.pool)
	a, err := scanAsset(q.QueryRow(ctx, query, ticker, string(typ)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, asset.ErrAssetNotFound
		}
		return nil, fmt.Errorf("failed to find asset: %w", err)
	}

	return a, nil
}

// List returns assets ordered by ticker
func (r *AssetRepository) List(ctx context.Context, limit, offset int) ([]*asset.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM assets ORDER BY ticker ASC LIMIT $1 OFFSET $2`

	q := querierFor(ctx, r.pool)
	rows, err := q.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}
	defer rows.Close()

	var assets []*asset.Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan asset: %w", err)
		}
		assets = append(assets, a)
	}

	return assets, rows.Err()
}

// Update rewrites an asset's mutable fields
func (r *AssetRepository) Update(ctx context.Context, a *asset.Asset) error {
	query := `
		UPDATE assets
		SET ticker = $2, name = $3, type = $4, currency = $5, current_price = $6, last_updated = $7
		WHERE id = $1
	`

	q := querierFor(ctx, r.pool)
	tag, err := q.Exec(ctx, query,
		a.ID, a.Ticker, a.Name, string(a.Type), a.Currency, a.CurrentPrice, a.LastUpdated,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return asset.ErrTickerTaken
		}
		return fmt.Errorf("failed to update asset: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return asset.ErrAssetNotFound
	}

	return nil
}

// UpdatePrice stores a fresh quote for a ticker
func (r *AssetRepository) UpdatePrice(ctx context.Context, ticker string, price decimal.Decimal, updatedAt time.Time) error {
	query := `UPDATE assets SET current_price = $2, last_updated = $3 WHERE ticker = $1`

	q := querierFor(ctx, r.pool)
	tag, err := q.Exec(ctx, query, ticker, price, updatedAt)
	if err != nil {
		return fmt.Errorf("failed to update asset price: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return asset.ErrAssetNotFound
	}

	return nil
}

// Delete removes an asset. The schema restricts deletion while transactions
// still reference the asset; that surfaces as ErrAssetInUse. Derived position
// rows cascade away with the asset.
func (r *AssetRepository) Delete(ctx context.Context, id uuid.UUID) error {
	q := querierFor(ctx, r.pool)
	tag, err := q.Exec(ctx, `DELETE FROM assets WHERE id = $1`, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return asset.ErrAssetInUse
		}
		return fmt.Errorf("failed to delete asset: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return asset.ErrAssetNotFound
	}

	return nil
}

func scanAsset(row pgx.Row) (*asset.Asset, error) {
	var a asset.Asset
	err := row.Scan(
		&a.ID,
		&a.Ticker,
		&a.Name,
		&a.Type,
		&a.Currency,
		&a.CurrentPrice,
		&a.LastUpdated,
		&a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &a, nil
}
