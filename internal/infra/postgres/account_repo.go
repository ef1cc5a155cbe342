package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/foliotrack/foliotrack/internal/platform/account"
)

// AccountRepository implements the account repository interface using PostgreSQL
type AccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new PostgreSQL account repository
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

// Create inserts a new account
func (r *AccountRepository) Create(ctx context.Context, acc *account.Account) error {
	query := `
		INSERT INTO accounts (id, name, currency, created_at)
		VALUES ($1, $2, $3, $4)
	`

	q := querierFor(ctx, r.pool)
	_, err := q.Exec(ctx, query, acc.ID, acc.Name, acc.Currency, acc.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}

	return nil
}

// GetByID retrieves an account by ID
func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	query := `SELECT id, name, currency, created_at FROM accounts WHERE id = $1`

	q := querierFor(ctx, r.pool)
	var acc account.Account
	err := q.QueryRow(ctx, query, id).Scan(&acc.ID, &acc.Name, &acc.Currency, &acc.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, account.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return &acc, nil
}

// List returns accounts ordered by creation time, newest first
func (r *AccountRepository) List(ctx context.Context, limit, offset int) ([]*account.Account, error) {
	query := `
		SELECT id, name, currency, created_at
		FROM accounts
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	q := querierFor(ctx, r.pool)
	rows, err := q.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	return scanAccounts(rows)
}

// ListAll returns every account without paging
func (r *AccountRepository) ListAll(ctx context.Context) ([]*account.Account, error) {
	query := `SELECT id, name, currency, created_at FROM accounts ORDER BY created_at ASC`

	q := querierFor(ctx, r.pool)
	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	return scanAccounts(rows)
}

func scanAccounts(rows pgx.Rows) ([]*account.Account, error) {
	var accounts []*account.Account
	for rows.Next() {
		var acc account.Account
		if err := rows.Scan(&acc.ID, &acc.Name, &acc.Currency, &acc.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, &acc)
	}

	return accounts, rows.Err()
}

// Update rewrites an account's mutable fields
func (r *AccountRepository) Update(ctx context.Context, acc *account.Account) error {
	query := `UPDATE accounts SET name = $2, currency = $3 WHERE id = $1`

	q := querierFor(ctx, r.pool)
	tag, err := q.Exec(ctx, query, acc.ID, acc.Name, acc.Currency)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return account.ErrAccountNotFound
	}

	return nil
}

// Delete removes an account. Transactions and positions referencing it are
// removed by the schema's ON DELETE CASCADE.
func (r *AccountRepository) Delete(ctx context.Context, id uuid.UUID) error {
	q := querierFor(ctx, r.pool)
	tag, err := q.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return account.ErrAccountNotFound
	}

	return nil
}
