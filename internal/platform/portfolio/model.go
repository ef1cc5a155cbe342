package portfolio

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Portfolio is an administrative grouping of accounts. It owns no holdings of
// its own; every number reported for a portfolio is aggregated from its
// member accounts at read time.
type Portfolio struct {
	ID          uuid.UUID
	Name        string
	Description string
	AccountIDs  []uuid.UUID
	CreatedAt   time.Time
}

// Validate checks the portfolio fields
func (p *Portfolio) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrNameRequired
	}
	return nil
}
