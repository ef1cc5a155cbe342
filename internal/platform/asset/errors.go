package asset

import "errors"

var (
	ErrAssetNotFound    = errors.New("asset not found")
	ErrTickerRequired   = errors.New("asset ticker is required")
	ErrTickerTooLong    = errors.New("asset ticker must be at most 20 characters")
	ErrTickerTaken      = errors.New("asset ticker already exists")
	ErrNameRequired     = errors.New("asset name is required")
	ErrInvalidAssetType = errors.New("invalid asset type")
	ErrNegativePrice    = errors.New("price cannot be negative")

	// ErrAssetInUse is returned when deleting an asset that transactions
	// still reference. Deletion is restricted, never cascaded, so ledger
	// history cannot silently disappear.
	ErrAssetInUse = errors.New("asset is referenced by transactions")
)
