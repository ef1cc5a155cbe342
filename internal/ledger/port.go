package ledger

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for ledger persistence operations
type Repository interface {
	// Transaction operations
	CreateTransaction(ctx context.Context, tx *Transaction) error
	GetTransaction(ctx context.Context, id uuid.UUID) (*Transaction, error)
	// GetTransactionDetail returns one transaction joined with account and
	// asset names for display.
	GetTransactionDetail(ctx context.Context, id uuid.UUID) (*TransactionDetail, error)
	UpdateTransaction(ctx context.Context, tx *Transaction) error
	DeleteTransaction(ctx context.Context, id uuid.UUID) error
	// ListTransactions returns transactions newest first, joined with account
	// and asset names for display.
	ListTransactions(ctx context.Context, filters TransactionFilters) ([]*TransactionDetail, error)

	// Ledger reads for recomputation. Both return transactions ordered by
	// transaction_time ascending; cost-basis replay depends on that order.
	ListTransactionsForPosition(ctx context.Context, accountID, assetID uuid.UUID) ([]*Transaction, error)
	ListTransactionsForAccount(ctx context.Context, accountID uuid.UUID) ([]*Transaction, error)

	// Position operations
	GetPosition(ctx context.Context, accountID, assetID uuid.UUID) (*Position, error)
	UpsertPosition(ctx context.Context, position *Position) error
	ListPositionsByAccount(ctx context.Context, accountID uuid.UUID) ([]*Position, error)

	// LockPositionKey serializes recomputation for one (account, asset) pair.
	// It must be called inside a repository transaction; the lock is released
	// on commit or rollback.
	LockPositionKey(ctx context.Context, accountID, assetID uuid.UUID) error

	// Transaction management
	BeginTx(ctx context.Context) (context.Context, error)
	CommitTx(ctx context.Context) error
	RollbackTx(ctx context.Context) error
}

// AccountSource provides the account attributes the ledger needs
type AccountSource interface {
	GetCurrency(ctx context.Context, accountID uuid.UUID) (string, error)
}

// AssetSource resolves the fiat asset backing an account currency. It returns
// the asset ID, or ErrCashAssetNotFound when no such asset exists.
type AssetSource interface {
	FindCashAssetID(ctx context.Context, currency string) (uuid.UUID, error)
}
