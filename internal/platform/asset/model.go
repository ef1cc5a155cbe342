package asset

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AssetType represents the kind of asset
type AssetType string

const (
	AssetTypeCrypto AssetType = "crypto"
	AssetTypeStock  AssetType = "stock"
	AssetTypeETF    AssetType = "etf"
	AssetTypeFiat   AssetType = "fiat"
)

// IsValid returns true for a known asset type
func (t AssetType) IsValid() bool {
	switch t {
	case AssetTypeCrypto, AssetTypeStock, AssetTypeETF, AssetTypeFiat:
		return true
	}
	return false
}

// Asset is a tradable instrument or a fiat currency. A fiat asset whose
// ticker equals an account's currency doubles as that account's cash
// representation, so cash balances are ordinary positions against it.
type Asset struct {
	ID           uuid.UUID
	Ticker       string
	Name         string
	Type         AssetType
	Currency     string
	CurrentPrice decimal.Decimal
	LastUpdated  time.Time
	CreatedAt    time.Time
}

// Validate checks the asset fields
func (a *Asset) Validate() error {
	if strings.TrimSpace(a.Ticker) == "" {
		return ErrTickerRequired
	}
	if len(a.Ticker) > 20 {
		return ErrTickerTooLong
	}
	if strings.TrimSpace(a.Name) == "" {
		return ErrNameRequired
	}
	if !a.Type.IsValid() {
		return ErrInvalidAssetType
	}
	if a.CurrentPrice.IsNegative() {
		return ErrNegativePrice
	}
	return nil
}

// Normalize upper-cases the ticker and currency
func (a *Asset) Normalize() {
	a.Ticker = strings.ToUpper(strings.TrimSpace(a.Ticker))
	a.Currency = strings.ToUpper(strings.TrimSpace(a.Currency))
	a.Name = strings.TrimSpace(a.Name)
	if a.Currency == "" {
		a.Currency = "USD"
	}
}

// IsCash returns true for fiat assets
func (a *Asset) IsCash() bool {
	return a.Type == AssetTypeFiat
}
