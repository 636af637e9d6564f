package credit

import (
	"context"

	"github.com/google/uuid"
)

// Repository provides access to credit accounts and their limit ledger.
// The WithHistory methods are atomic: the account write and the ledger
// row land together or not at all.
type Repository interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*Account, error)
	CreateWithHistory(ctx context.Context, account *Account, hist *LimitHistory) error
	UpdateLimitWithHistory(ctx context.Context, account *Account, hist *LimitHistory) error
	ListHistory(ctx context.Context, accountID uuid.UUID) ([]*LimitHistory, error)
}

// ProfileRepository stores self-reported financial profiles.
type ProfileRepository interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*FinancialProfile, error)
	Save(ctx context.Context, profile *FinancialProfile) error
}

// PaymentStats summarizes a user's historical installments for
// reassessment. Late means paid 1-30 days after the due date; missed
// means paid more than 30 days after, or still unpaid past 30 days.
type PaymentStats struct {
	Total  int
	Late   int
	Missed int
}

// HistoryProvider derives payment statistics from plan history.
type HistoryProvider interface {
	PaymentStats(ctx context.Context, userID uuid.UUID) (PaymentStats, error)
}
