package account

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for account persistence
type Repository interface {
	Create(ctx context.Context, account *Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)
	List(ctx context.Context, limit, offset int) ([]*Account, error)
	Update(ctx context.Context, account *Account) error
	// Delete removes the account; transactions and positions cascade at the
	// persistence layer.
	Delete(ctx context.Context, id uuid.UUID) error
}
