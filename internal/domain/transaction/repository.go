package transaction

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository provides access to transaction records.
type Repository interface {
	Create(ctx context.Context, tx *Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*Transaction, error)
	Update(ctx context.Context, tx *Transaction) error

	// ListByUserSince returns the user's transactions created at or after
	// the given instant, newest first. Used for pattern analysis.
	ListByUserSince(ctx context.Context, userID uuid.UUID, since time.Time) ([]*Transaction, error)
}

// MerchantRepository provides read access to onboarded merchants.
type MerchantRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Merchant, error)
}
