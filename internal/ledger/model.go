package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType represents the type of a ledger transaction
type TransactionType string

const (
	TransactionTypeBuy      TransactionType = "buy"
	TransactionTypeSell     TransactionType = "sell"
	TransactionTypeDeposit  TransactionType = "deposit"
	TransactionTypeWithdraw TransactionType = "withdraw"
	TransactionTypeDividend TransactionType = "dividend"
)

// IsValid returns true for a known transaction type
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypeBuy, TransactionTypeSell, TransactionTypeDeposit,
		TransactionTypeWithdraw, TransactionTypeDividend:
		return true
	}
	return false
}

// Transaction is a single immutable ledger record. Positions are never edited
// directly; they are derived from the transaction set.
type Transaction struct {
	ID              uuid.UUID
	AccountID       uuid.UUID
	AssetID         *uuid.UUID
	Type            TransactionType
	Quantity        decimal.Decimal
	PricePerUnit    decimal.Decimal
	Fee             decimal.Decimal
	TransactionTime time.Time
	Notes           string
}

// Validate checks the transaction fields
func (t *Transaction) Validate() error {
	if t.AccountID == uuid.Nil {
		return ErrAccountRequired
	}
	if !t.Type.IsValid() {
		return ErrInvalidTransactionType
	}
	if t.Quantity.IsNegative() {
		return ErrNegativeQuantity
	}
	if t.PricePerUnit.IsNegative() {
		return ErrNegativePrice
	}
	if t.Fee.IsNegative() {
		return ErrNegativeFee
	}
	return nil
}

// GrossAmount returns quantity * price_per_unit, the cash amount the
// transaction moves before fees.
func (t *Transaction) GrossAmount() decimal.Decimal {
	return t.Quantity.Mul(t.PricePerUnit)
}

// Position is the materialized holding for one (account, asset) pair,
// recomputed from the transaction ledger after every mutation.
type Position struct {
	ID            uuid.UUID
	AccountID     uuid.UUID
	AssetID       uuid.UUID
	TotalQuantity decimal.Decimal
	AverageCost   decimal.Decimal
	LastUpdated   time.Time
}

// CostBasis returns the total amount paid for the currently held quantity.
func (p *Position) CostBasis() decimal.Decimal {
	return p.TotalQuantity.Mul(p.AverageCost)
}

// MarketValue returns the position value at the given unit price.
func (p *Position) MarketValue(price decimal.Decimal) decimal.Decimal {
	return p.TotalQuantity.Mul(price)
}

// TransactionFilters defines filters for listing transactions
type TransactionFilters struct {
	AccountID *uuid.UUID
	Limit     int
	Offset    int
}

// TransactionDetail is a transaction joined with the account and asset names
// the listing endpoints display. Asset fields are nil for cash-only records.
type TransactionDetail struct {
	Transaction
	AccountName string
	AssetTicker *string
	AssetName   *string
}
