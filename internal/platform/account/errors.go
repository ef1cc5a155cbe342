package account

import "errors"

var (
	ErrAccountNotFound  = errors.New("account not found")
	ErrNameRequired     = errors.New("account name is required")
	ErrCurrencyRequired = errors.New("account currency is required")
	ErrInvalidCurrency  = errors.New("account currency must be at most 10 characters")
)
