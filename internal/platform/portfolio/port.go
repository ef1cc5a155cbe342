package portfolio

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for portfolio persistence. Create and
// Update replace the account membership with Portfolio.AccountIDs.
type Repository interface {
	Create(ctx context.Context, portfolio *Portfolio) error
	GetByID(ctx context.Context, id uuid.UUID) (*Portfolio, error)
	List(ctx context.Context, limit, offset int) ([]*Portfolio, error)
	Update(ctx context.Context, portfolio *Portfolio) error
	Delete(ctx context.Context, id uuid.UUID) error
}
