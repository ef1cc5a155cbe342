package ledger

import "errors"

// Transaction errors
var (
	ErrTransactionNotFound    = errors.New("transaction not found")
	ErrAccountRequired        = errors.New("account ID is required")
	ErrInvalidTransactionType = errors.New("invalid transaction type")
	ErrNegativeQuantity       = errors.New("quantity cannot be negative")
	ErrNegativePrice          = errors.New("price per unit cannot be negative")
	ErrNegativeFee            = errors.New("fee cannot be negative")
)

// Position errors
var (
	ErrPositionNotFound  = errors.New("position not found")
	ErrCashAssetNotFound = errors.New("no fiat asset matches the account currency")
)
