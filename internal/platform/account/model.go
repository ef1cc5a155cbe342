package account

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Account is a container for transactions and positions, denominated in a
// single currency. The fiat asset with a ticker equal to Currency acts as the
// account's cash representation.
type Account struct {
	ID        uuid.UUID
	Name      string
	Currency  string
	CreatedAt time.Time
}

// Validate checks the account fields
func (a *Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrNameRequired
	}
	if strings.TrimSpace(a.Currency) == "" {
		return ErrCurrencyRequired
	}
	if len(a.Currency) > 10 {
		return ErrInvalidCurrency
	}
	return nil
}

// Normalize upper-cases the currency code
func (a *Account) Normalize() {
	a.Currency = strings.ToUpper(strings.TrimSpace(a.Currency))
	a.Name = strings.TrimSpace(a.Name)
}
