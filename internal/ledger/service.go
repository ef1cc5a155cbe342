package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/foliotrack/foliotrack/pkg/logger"
)

// Service orchestrates ledger mutations and position recomputation.
//
// Every transaction create, update or delete runs inside one repository
// transaction: the mutation itself, the recomputation of the affected
// (account, asset) position(s) and the recomputation of the account's cash
// position either all commit together or roll back together. Recomputation is
// a full replay of the relevant transactions, never an incremental patch, so
// repeating it over the same ledger always produces the same position.
type Service struct {
	repo     Repository
	accounts AccountSource
	assets   AssetSource
	log      *logger.Logger
}

// NewService creates a new ledger service
func NewService(repo Repository, accounts AccountSource, assets AssetSource, log *logger.Logger) *Service {
	return &Service{
		repo:     repo,
		accounts: accounts,
		assets:   assets,
		log:      log.WithField("component", "ledger"),
	}
}

// CreateTransaction records a new transaction and recomputes the affected
// positions before returning.
func (s *Service) CreateTransaction(ctx context.Context, txn *Transaction) (*Transaction, error) {
	if txn.ID == uuid.Nil {
		txn.ID = uuid.New()
	}
	if txn.TransactionTime.IsZero() {
		txn.TransactionTime = time.Now().UTC()
	}

	if err := txn.Validate(); err != nil {
		return nil, err
	}

	err := s.withTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.CreateTransaction(txCtx, txn); err != nil {
			return fmt.Errorf("failed to create transaction: %w", err)
		}
		return s.recalculateAffected(txCtx, txn.AccountID, txn.AssetID)
	})
	if err != nil {
		return nil, err
	}

	return txn, nil
}

// UpdateTransactionInput carries the fields of a partial transaction update.
// Nil fields are left unchanged.
type UpdateTransactionInput struct {
	AccountID       *uuid.UUID
	AssetID         *uuid.UUID
	Type            *TransactionType
	Quantity        *decimal.Decimal
	PricePerUnit    *decimal.Decimal
	Fee             *decimal.Decimal
	TransactionTime *time.Time
	Notes           *string
}

func (in UpdateTransactionInput) apply(txn *Transaction) {
	if in.AccountID != nil {
		txn.AccountID = *in.AccountID
	}
	if in.AssetID != nil {
		txn.AssetID = in.AssetID
	}
	if in.Type != nil {
		txn.Type = *in.Type
	}
	if in.Quantity != nil {
		txn.Quantity = *in.Quantity
	}
	if in.PricePerUnit != nil {
		txn.PricePerUnit = *in.PricePerUnit
	}
	if in.Fee != nil {
		txn.Fee = *in.Fee
	}
	if in.TransactionTime != nil {
		txn.TransactionTime = *in.TransactionTime
	}
	if in.Notes != nil {
		txn.Notes = *in.Notes
	}
}

// UpdateTransaction applies a partial update and recomputes positions for the
// old and the new (account, asset) pair when the transaction moved.
func (s *Service) UpdateTransaction(ctx context.Context, id uuid.UUID, input UpdateTransactionInput) (*Transaction, error) {
	txn, err := s.repo.GetTransaction(ctx, id)
	if err != nil {
		return nil, err
	}

	oldAccountID := txn.AccountID
	oldAssetID := txn.AssetID

	input.apply(txn)
	if err := txn.Validate(); err != nil {
		return nil, err
	}

	moved := oldAccountID != txn.AccountID || !uuidPtrEqual(oldAssetID, txn.AssetID)

	err = s.withTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.UpdateTransaction(txCtx, txn); err != nil {
			return fmt.Errorf("failed to update transaction: %w", err)
		}

		// The pair the transaction used to belong to must be replayed
		// without it before the new pair is computed.
		if moved {
			if oldAssetID != nil {
				if err := s.recalculatePosition(txCtx, oldAccountID, *oldAssetID); err != nil {
					return err
				}
			}
			if oldAccountID != txn.AccountID {
				if err := s.recalculateCash(txCtx, oldAccountID); err != nil {
					return err
				}
			}
		}

		return s.recalculateAffected(txCtx, txn.AccountID, txn.AssetID)
	})
	if err != nil {
		return nil, err
	}

	return txn, nil
}

// DeleteTransaction removes a transaction and recomputes the positions it
// contributed to.
func (s *Service) DeleteTransaction(ctx context.Context, id uuid.UUID) error {
	txn, err := s.repo.GetTransaction(ctx, id)
	if err != nil {
		return err
	}

	return s.withTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.DeleteTransaction(txCtx, id); err != nil {
			return fmt.Errorf("failed to delete transaction: %w", err)
		}
		return s.recalculateAffected(txCtx, txn.AccountID, txn.AssetID)
	})
}

// GetTransactionDetail retrieves a transaction by ID enriched with account
// and asset names
func (s *Service) GetTransactionDetail(ctx context.Context, id uuid.UUID) (*TransactionDetail, error) {
	return s.repo.GetTransactionDetail(ctx, id)
}

// ListTransactions lists transactions with filters, newest first, enriched
// with account and asset names.
func (s *Service) ListTransactions(ctx context.Context, filters TransactionFilters) ([]*TransactionDetail, error) {
	return s.repo.ListTransactions(ctx, filters)
}

// RecalculatePosition replays the ledger for one (account, asset) pair and
// rewrites the materialized position. It is idempotent and safe to call at
// any time.
func (s *Service) RecalculatePosition(ctx context.Context, accountID, assetID uuid.UUID) error {
	return s.withTx(ctx, func(txCtx context.Context) error {
		return s.recalculatePosition(txCtx, accountID, assetID)
	})
}

// RecalculateCash rewrites the account's cash position from its full
// transaction history.
func (s *Service) RecalculateCash(ctx context.Context, accountID uuid.UUID) error {
	return s.withTx(ctx, func(txCtx context.Context) error {
		return s.recalculateCash(txCtx, accountID)
	})
}

// recalculateAffected recomputes the asset position (when the transaction
// references an asset) and the account cash position. Cash is recomputed for
// every mutation because any transaction type can shift the cash balance.
func (s *Service) recalculateAffected(txCtx context.Context, accountID uuid.UUID, assetID *uuid.UUID) error {
	if assetID != nil {
		if err := s.recalculatePosition(txCtx, accountID, *assetID); err != nil {
			return err
		}
	}
	return s.recalculateCash(txCtx, accountID)
}

func (s *Service) recalculatePosition(txCtx context.Context, accountID, assetID uuid.UUID) error {
	if err := s.repo.LockPositionKey(txCtx, accountID, assetID); err != nil {
		return fmt.Errorf("failed to lock position: %w", err)
	}

	txns, err := s.repo.ListTransactionsForPosition(txCtx, accountID, assetID)
	if err != nil {
		return fmt.Errorf("failed to list transactions: %w", err)
	}

	quantity, averageCost := positionFold(txns)

	return s.writePosition(txCtx, accountID, assetID, quantity, averageCost)
}

func (s *Service) recalculateCash(txCtx context.Context, accountID uuid.UUID) error {
	currency, err := s.accounts.GetCurrency(txCtx, accountID)
	if err != nil {
		return fmt.Errorf("failed to resolve account currency: %w", err)
	}

	cashAssetID, err := s.assets.FindCashAssetID(txCtx, currency)
	if errors.Is(err, ErrCashAssetNotFound) {
		// Without a fiat asset for the account currency there is nothing to
		// materialize the balance against. Skipping keeps transaction
		// recording usable on a partially configured system.
		s.log.Warn("cash recomputation skipped, no fiat asset for currency",
			"account_id", accountID, "currency", currency)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to resolve cash asset: %w", err)
	}

	if err := s.repo.LockPositionKey(txCtx, accountID, cashAssetID); err != nil {
		return fmt.Errorf("failed to lock cash position: %w", err)
	}

	txns, err := s.repo.ListTransactionsForAccount(txCtx, accountID)
	if err != nil {
		return fmt.Errorf("failed to list account transactions: %w", err)
	}

	cash := cashFold(txns)

	// Cash has no cost basis; one unit of currency always costs one unit.
	return s.writePosition(txCtx, accountID, cashAssetID, cash, decimal.NewFromInt(1))
}

func (s *Service) writePosition(txCtx context.Context, accountID, assetID uuid.UUID, quantity, averageCost decimal.Decimal) error {
	position, err := s.repo.GetPosition(txCtx, accountID, assetID)
	if errors.Is(err, ErrPositionNotFound) {
		if quantity.IsZero() && averageCost.IsZero() {
			// Nothing ever held; do not materialize an empty row.
			return nil
		}
		position = &Position{
			ID:        uuid.New(),
			AccountID: accountID,
			AssetID:   assetID,
		}
	} else if err != nil {
		return fmt.Errorf("failed to get position: %w", err)
	}

	position.TotalQuantity = quantity
	position.AverageCost = averageCost
	position.LastUpdated = time.Now().UTC()

	if err := s.repo.UpsertPosition(txCtx, position); err != nil {
		return fmt.Errorf("failed to upsert position: %w", err)
	}

	return nil
}

// withTx runs fn inside a repository transaction with rollback on error.
func (s *Service) withTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	txCtx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			_ = s.repo.RollbackTx(txCtx)
		}
	}()

	if err := fn(txCtx); err != nil {
		return err
	}

	if err := s.repo.CommitTx(txCtx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	committed = true
	return nil
}

func uuidPtrEqual(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
