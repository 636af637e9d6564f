package fraud

import (
	"context"
	"time"

	"github.com/google/uuid"

	"bnpl-risk-core/internal/domain/transaction"
	"bnpl-risk-core/internal/domain/user"
)

// Repository stores immutable fraud-check audit records.
type Repository interface {
	Create(ctx context.Context, check *FraudCheck) error
	GetByTransactionID(ctx context.Context, txID uuid.UUID) (*FraudCheck, error)

	// CountFlaggedByUserSince counts FLAG/BLOCK records for the user in
	// the lookback window.
	CountFlaggedByUserSince(ctx context.Context, userID uuid.UUID, since time.Time) (int, error)

	// CountFlaggedByMerchantSince counts FLAG/BLOCK records against the
	// merchant in the lookback window.
	CountFlaggedByMerchantSince(ctx context.Context, merchantID uuid.UUID, since time.Time) (int, error)
}

// DataSource materializes the behavior snapshot and rule context for
// one evaluation. Implementations gather from persistence and the
// activity cache in parallel.
type DataSource interface {
	Gather(ctx context.Context, tx *transaction.Transaction, usr *user.User, merch *transaction.Merchant) (BehaviorSnapshot, RuleContext, error)
}

// RuleEvaluator runs the fixed rule battery against one context.
type RuleEvaluator interface {
	Evaluate(ctx context.Context, rc RuleContext) ([]RuleResult, error)
}
