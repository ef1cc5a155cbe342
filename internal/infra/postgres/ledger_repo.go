package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/foliotrack/foliotrack/internal/ledger"
)

// LedgerRepository implements the ledger repository interface using PostgreSQL
type LedgerRepository struct {
	pool *pgxpool.Pool
}

// NewLedgerRepository creates a new PostgreSQL ledger repository
func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{pool: pool}
}

const transactionColumns = `id, account_id, asset_id, type, quantity, price_per_unit, fee, transaction_time, notes`

// CreateTransaction inserts a new transaction
func (r *LedgerRepository) CreateTransaction(ctx context.Context, txn *ledger.Transaction) error {
	query := `
		INSERT INTO transactions (id, account_id, asset_id, type, quantity, price_per_unit, fee, transaction_time, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	q := querierFor(ctx, r.pool)
	_, err := q.Exec(ctx, query,
		txn.ID,
		txn.AccountID,
		txn.AssetID,
		string(txn.Type),
		txn.Quantity,
		txn.PricePerUnit,
		txn.Fee,
		txn.TransactionTime,
		txn.Notes,
	)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	return nil
}

// GetTransaction retrieves a transaction by ID
func (r *LedgerRepository) GetTransaction(ctx context.Context, id uuid.UUID) (*ledger.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`

	q := querierFor(ctx, r.pool)
	txn, err := scanTransaction(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ledger.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	return txn, nil
}

// UpdateTransaction rewrites a transaction row
func (r *LedgerRepository) UpdateTransaction(ctx context.Context, txn *ledger.Transaction) error {
	query := `
		UPDATE transactions
		SET account_id = $2, asset_id = $3, type = $4, quantity = $5,
		    price_per_unit = $6, fee = $7, transaction_time = $8, notes = $9
		WHERE id = $1
	`

	q := querierFor(ctx, r.pool)
	tag, err := q.Exec(ctx, query,
		txn.ID,
		txn.AccountID,
		txn.AssetID,
		string(txn.Type),
		txn.Quantity,
		txn.PricePerUnit,
		txn.Fee,
		txn.TransactionTime,
		txn.Notes,
	)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ledger.ErrTransactionNotFound
	}

	return nil
}

// DeleteTransaction removes a transaction row
func (r *LedgerRepository) DeleteTransaction(ctx context.Context, id uuid.UUID) error {
	q := querierFor(ctx, r.pool)
	tag, err := q.Exec(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ledger.ErrTransactionNotFound
	}

	return nil
}

const transactionDetailSelect = `
	SELECT t.id, t.account_id, t.asset_id, t.type, t.quantity, t.price_per_unit,
	       t.fee, t.transaction_time, t.notes, acc.name, a.ticker, a.name
	FROM transactions t
	JOIN accounts acc ON acc.id = t.account_id
	LEFT JOIN assets a ON a.id = t.asset_id`

// GetTransactionDetail retrieves a transaction by ID joined with account and
// asset names for display
func (r *LedgerRepository) GetTransactionDetail(ctx context.Context, id uuid.UUID) (*ledger.TransactionDetail, error) {
	query := transactionDetailSelect + ` WHERE t.id = $1`

	q := querierFor(ctx, r.pool)
	d, err := scanTransactionDetail(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ledger.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	return d, nil
}

// ListTransactions lists transactions, newest first, joined with account and
// asset names for display
func (r *LedgerRepository) ListTransactions(ctx context.Context, filters ledger.TransactionFilters) ([]*ledger.TransactionDetail, error) {
	query := transactionDetailSelect
	args := []any{}

	if filters.AccountID != nil {
		query += ` WHERE t.account_id = $1`
		args = append(args, *filters.AccountID)
	}

	query += ` ORDER BY t.transaction_time DESC`

	limit := filters.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT %d OFFSET %d`, limit, filters.Offset)

	q := querierFor(ctx, r.pool)
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var details []*ledger.TransactionDetail
	for rows.Next() {
		d, err := scanTransactionDetail(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		details = append(details, d)
	}

	return details, rows.Err()
}

func scanTransactionDetail(row pgx.Row) (*ledger.TransactionDetail, error) {
	var d ledger.TransactionDetail
	var quantity, pricePerUnit decimal.NullDecimal
	var notes *string

	err := row.Scan(
		&d.ID,
		&d.AccountID,
		&d.AssetID,
		&d.Type,
		&quantity,
		&pricePerUnit,
		&d.Fee,
		&d.TransactionTime,
		&notes,
		&d.AccountName,
		&d.AssetTicker,
		&d.AssetName,
	)
	if err != nil {
		return nil, err
	}

	d.Quantity = quantity.Decimal
	d.PricePerUnit = pricePerUnit.Decimal
	if notes != nil {
		d.Notes = *notes
	}

	return &d, nil
}

// ListTransactionsForPosition returns every transaction for one
// (account, asset) pair ordered by transaction_time ascending, with ID
// breaking ties so replays fold in a stable order.
func (r *LedgerRepository) ListTransactionsForPosition(ctx context.Context, accountID, assetID uuid.UUID) ([]*ledger.Transaction, error) {
	query := `SELECT ` + transactionColumns + `
		FROM transactions
		WHERE account_id = $1 AND asset_id = $2
		ORDER BY transaction_time ASC, id ASC`

	return r.queryTransactions(ctx, query, accountID, assetID)
}

// ListTransactionsForAccount returns every transaction for an account,
// regardless of asset, ordered by transaction_time ascending with ID
// breaking ties.
func (r *LedgerRepository) ListTransactionsForAccount(ctx context.Context, accountID uuid.UUID) ([]*ledger.Transaction, error) {
	query := `SELECT ` + transactionColumns + `
		FROM transactions
		WHERE account_id = $1
		ORDER BY transaction_time ASC, id ASC`

	return r.queryTransactions(ctx, query, accountID)
}

func (r *LedgerRepository) queryTransactions(ctx context.Context, query string, args ...any) ([]*ledger.Transaction, error) {
	q := querierFor(ctx, r.pool)
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var txns []*ledger.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txns = append(txns, txn)
	}

	return txns, rows.Err()
}

// scanTransaction reads one transaction row. Quantity and price_per_unit are
// nullable in the schema; NULL folds to zero, which the recalculators treat
// identically.
func scanTransaction(row pgx.Row) (*ledger.Transaction, error) {
	var txn ledger.Transaction
	var quantity, pricePerUnit decimal.NullDecimal
	var notes *string

	err := row.Scan(
		&txn.ID,
		&txn.AccountID,
		&txn.AssetID,
		&txn.Type,
		&quantity,
		&pricePerUnit,
		&txn.Fee,
		&txn.TransactionTime,
		&notes,
	)
	if err != nil {
		return nil, err
	}

	txn.Quantity = quantity.Decimal
	txn.PricePerUnit = pricePerUnit.Decimal
	if notes != nil {
		txn.Notes = *notes
	}

	return &txn, nil
}

// Position operations

// GetPosition retrieves the position for one (account, asset) pair
func (r *LedgerRepository) GetPosition(ctx context.Context, accountID, assetID uuid.UUID) (*ledger.Position, error) {
	query := `
		SELECT id, account_id, asset_id, total_quantity, average_cost, last_updated
		FROM positions
		WHERE account_id = $1 AND asset_id = $2
	`

	q := querierFor(ctx, r.pool)
	var pos ledger.Position
	err := q.QueryRow(ctx, query, accountID, assetID).Scan(
		&pos.ID,
		&pos.AccountID,
		&pos.AssetID,
		&pos.TotalQuantity,
		&pos.AverageCost,
		&pos.LastUpdated,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ledger.ErrPositionNotFound
		}
		return nil, fmt.Errorf("failed to get position: %w", err)
	}

	return &pos, nil
}

// UpsertPosition inserts or replaces the materialized position row
func (r *LedgerRepository) UpsertPosition(ctx context.Context, pos *ledger.Position) error {
	query := `
		INSERT INTO positions (id, account_id, asset_id, total_quantity, average_cost, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (account_id, asset_id) DO UPDATE
		SET total_quantity = EXCLUDED.total_quantity,
		    average_cost = EXCLUDED.average_cost,
		    last_updated = EXCLUDED.last_updated
	`

	q := querierFor(ctx, r.pool)
	_, err := q.Exec(ctx, query,
		pos.ID,
		pos.AccountID,
		pos.AssetID,
		pos.TotalQuantity,
		pos.AverageCost,
		pos.LastUpdated,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert position: %w", err)
	}

	return nil
}

// ListPositionsByAccount returns all positions for an account ordered by
// asset ID ascending
func (r *LedgerRepository) ListPositionsByAccount(ctx context.Context, accountID uuid.UUID) ([]*ledger.Position, error) {
	query := `
		SELECT id, account_id, asset_id, total_quantity, average_cost, last_updated
		FROM positions
		WHERE account_id = $1
		ORDER BY asset_id ASC
	`

	return r.queryPositions(ctx, query, accountID)
}

// ListAllPositions returns every position in the system ordered by asset ID
// ascending; aggregation tie-breaking relies on this order.
func (r *LedgerRepository) ListAllPositions(ctx context.Context) ([]*ledger.Position, error) {
	query := `
		SELECT id, account_id, asset_id, total_quantity, average_cost, last_updated
		FROM positions
		ORDER BY asset_id ASC, account_id ASC
	`

	return r.queryPositions(ctx, query)
}

func (r *LedgerRepository) queryPositions(ctx context.Context, query string, args ...any) ([]*ledger.Position, error) {
	q := querierFor(ctx, r.pool)
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query positions: %w", err)
	}
	defer rows.Close()

	var positions []*ledger.Position
	for rows.Next() {
		var pos ledger.Position
		if err := rows.Scan(
			&pos.ID,
			&pos.AccountID,
			&pos.AssetID,
			&pos.TotalQuantity,
			&pos.AverageCost,
			&pos.LastUpdated,
		); err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		positions = append(positions, &pos)
	}

	return positions, rows.Err()
}

// LockPositionKey takes a transaction-scoped advisory lock for one
// (account, asset) pair. Concurrent recomputations of the same pair queue on
// the lock instead of interleaving reads and writes; the lock is released
// when the surrounding transaction commits or rolls back.
func (r *LedgerRepository) LockPositionKey(ctx context.Context, accountID, assetID uuid.UUID) error {
	if txFromContext(ctx) == nil {
		return fmt.Errorf("position lock requires a transaction")
	}

	q := querierFor(ctx, r.pool)
	_, err := q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1 || ':' || $2, 0))`,
		accountID.String(), assetID.String())
	if err != nil {
		return fmt.Errorf("failed to acquire position lock: %w", err)
	}

	return nil
}

// Transaction management

// BeginTx starts a new database transaction and stores it in the context
func (r *LedgerRepository) BeginTx(ctx context.Context) (context.Context, error) {
	return beginTx(ctx, r.pool)
}

// CommitTx commits the database transaction from the context
func (r *LedgerRepository) CommitTx(ctx context.Context) error {
	return commitTx(ctx)
}

// RollbackTx rolls back the database transaction from the context
func (r *LedgerRepository) RollbackTx(ctx context.Context) error {
	return rollbackTx(ctx)
}
