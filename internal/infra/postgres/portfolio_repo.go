package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/foliotrack/foliotrack/internal/platform/portfolio"
)

// PortfolioRepository implements the portfolio repository interface using PostgreSQL
type PortfolioRepository struct {
	pool *pgxpool.Pool
}

// NewPortfolioRepository creates a new PostgreSQL portfolio repository
func NewPortfolioRepository(pool *pgxpool.Pool) *PortfolioRepository {
	return &PortfolioRepository{pool: pool}
}

// Create inserts a portfolio together with its account membership
func (r *PortfolioRepository) Create(ctx context.Context, p *portfolio.Portfolio) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO portfolios (id, name, description, created_at) VALUES ($1, $2, $3, $4)`,
		p.ID, p.Name, p.Description, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create portfolio: %w", err)
	}

	if err := insertMembership(ctx, tx, p.ID, p.AccountIDs); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetByID retrieves a portfolio including its account membership
func (r *PortfolioRepository) GetByID(ctx context.Context, id uuid.UUID) (*portfolio.Portfolio, error) {
	query := `SELECT id, name, description, created_at FROM portfolios WHERE id = $1`

	q := querierFor(ctx, r.pool)
	var p portfolio.Portfolio
	err := q.QueryRow(ctx, query, id).Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, portfolio.ErrPortfolioNotFound
		}
		return nil, fmt.Errorf("failed to get portfolio: %w", err)
	}

	accountIDs, err := r.membership(ctx, id)
	if err != nil {
		return nil, err
	}
	p.AccountIDs = accountIDs

	return &p, nil
}

// List returns portfolios with their memberships, newest first
func (r *PortfolioRepository) List(ctx context.Context, limit, offset int) ([]*portfolio.Portfolio, error) {
	query := `
		SELECT id, name, description, created_at
		FROM portfolios
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	q := querierFor(ctx, r.pool)
	rows, err := q.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list portfolios: %w", err)
	}
	defer rows.Close()

	var portfolios []*portfolio.Portfolio
	for rows.Next() {
		var p portfolio.Portfolio
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan portfolio: %w", err)
		}
		portfolios = append(portfolios, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, p := range portfolios {
		accountIDs, err := r.membership(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		p.AccountIDs = accountIDs
	}

	return portfolios, nil
}

// Update rewrites a portfolio and replaces its account membership
func (r *PortfolioRepository) Update(ctx context.Context, p *portfolio.Portfolio) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE portfolios SET name = $2, description = $3 WHERE id = $1`,
		p.ID, p.Name, p.Description,
	)
	if err != nil {
		return fmt.Errorf("failed to update portfolio: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return portfolio.ErrPortfolioNotFound
	}

	_, err = tx.Exec(ctx, `DELETE FROM portfolio_accounts WHERE portfolio_id = $1`, p.ID)
	if err != nil {
		return fmt.Errorf("failed to clear portfolio membership: %w", err)
	}

	if err := insertMembership(ctx, tx, p.ID, p.AccountIDs); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Delete removes a portfolio; membership rows cascade
func (r *PortfolioRepository) Delete(ctx context.Context, id uuid.UUID) error {
	q := querierFor(ctx, r.pool)
	tag, err := q.Exec(ctx, `DELETE FROM portfolios WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete portfolio: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return portfolio.ErrPortfolioNotFound
	}

	return nil
}

func (r *PortfolioRepository) membership(ctx context.Context, portfolioID uuid.UUID) ([]uuid.UUID, error) {
	query := `
		SELECT account_id
		FROM portfolio_accounts
		WHERE portfolio_id = $1
		ORDER BY account_id ASC
	`

	q := querierFor(ctx, r.pool)
	rows, err := q.Query(ctx, query, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolio membership: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan portfolio membership: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

func insertMembership(ctx context.Context, tx pgx.Tx, portfolioID uuid.UUID, accountIDs []uuid.UUID) error {
	for _, accountID := range accountIDs {
		_, err := tx.Exec(ctx,
			`INSERT INTO portfolio_accounts (portfolio_id, account_id) VALUES ($1, $2)`,
			portfolioID, accountID,
		)
		if err != nil {
			return fmt.Errorf("failed to add account to portfolio: %w", err)
		}
	}

	return nil
}
