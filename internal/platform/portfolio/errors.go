package portfolio

import "errors"

var (
	ErrPortfolioNotFound = errors.New("portfolio not found")
	ErrNameRequired      = errors.New("portfolio name is required")
)
