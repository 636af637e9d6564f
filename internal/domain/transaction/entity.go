package transaction

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status represents the current state of a checkout transaction.
type Status string

const (
	StatusPending      Status = "pending"
	StatusApproved     Status = "approved"
	StatusFlagged      Status = "flagged"
	StatusFraudBlocked Status = "fraud_blocked"
	StatusFailed       Status = "failed"
)

// Transaction is one money-movement record per checkout attempt. It
// carries the fraud-check snapshot taken at the moment of evaluation so
// the audit trail survives later rule changes.
type Transaction struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"user_id"`
	MerchantID uuid.UUID `json:"merchant_id"`

	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description,omitempty"`
	Status      Status          `json:"status"`

	// Fraud snapshot, populated once the gate has run.
	RiskScore    *int     `json:"risk_score,omitempty"`
	FraudAction  string   `json:"fraud_action,omitempty"`
	FlaggedRules []string `json:"flagged_rules,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// New creates a pending transaction for a checkout attempt.
func New(userID, merchantID uuid.UUID, amount decimal.Decimal, description string, now time.Time) *Transaction {
	return &Transaction{
		ID:          uuid.New(),
		UserID:      userID,
		MerchantID:  merchantID,
		Amount:      amount,
		Description: description,
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// ApplyFraudSnapshot records the outcome of the fraud gate on the transaction.
func (t *Transaction) ApplyFraudSnapshot(riskScore int, action string, flaggedRules []string, now time.Time) {
	t.RiskScore = &riskScore
	t.FraudAction = action
	t.FlaggedRules = flaggedRules
	t.UpdatedAt = now
}

// Approve marks the transaction as approved and timestamps settlement.
func (t *Transaction) Approve(now time.Time) error {
	if t.Status != StatusPending && t.Status != StatusFlagged {
		return ErrInvalidStatusTransition
	}
	t.Status = StatusApproved
	t.ProcessedAt = &now
	t.UpdatedAt = now
	return nil
}

// Flag marks the transaction as approved-with-alert.
func (t *Transaction) Flag(now time.Time) error {
	if t.Status != StatusPending {
		return ErrInvalidStatusTransition
	}
	t.Status = StatusFlagged
	t.UpdatedAt = now
	return nil
}

// BlockForFraud halts the transaction permanently.
func (t *Transaction) BlockForFraud(now time.Time) error {
	if t.Status != StatusPending {
		return ErrInvalidStatusTransition
	}
	t.Status = StatusFraudBlocked
	t.ProcessedAt = &now
	t.UpdatedAt = now
	return nil
}

// Validate performs basic invariant checks before persistence.
func (t *Transaction) Validate() error {
	if t.ID == uuid.Nil {
		return ErrInvalidTransactionID
	}
	if t.UserID == uuid.Nil {
		return ErrInvalidUserID
	}
	if t.MerchantID == uuid.Nil {
		return ErrInvalidMerchantID
	}
	if !t.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

// Merchant is the read-only view of an onboarded merchant. Onboarding
// itself is out of core scope; merchant age and fraud history feed the
// high-risk-merchant rule.
type Merchant struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// AgeDays returns the merchant's age in whole days.
func (m *Merchant) AgeDays(now time.Time) int {
	return int(now.Sub(m.CreatedAt).Hours() / 24)
}
