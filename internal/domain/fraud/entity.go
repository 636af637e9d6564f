package fraud

import (
	"time"

	"github.com/google/uuid"
)

// Action is the decision the engine takes on a transaction.
type Action string

const (
	ActionAllow Action = "ALLOW"
	ActionFlag  Action = "FLAG"
	ActionBlock Action = "BLOCK"
)

// FraudCheck is the immutable audit record of one evaluation, 1:1 with
// the transaction it judged. Written on every evaluation, including
// degraded ones.
type FraudCheck struct {
	ID            uuid.UUID `json:"id"`
	TransactionID uuid.UUID `json:"transaction_id"`
	UserID        uuid.UUID `json:"user_id"`
	RiskScore     int       `json:"risk_score"`
	BehaviorScore float64   `json:"behavior_score"`
	RuleScore     float64   `json:"rule_score"`
	FlaggedRules  []string  `json:"flagged_rules"`
	Action        Action    `json:"action"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewFraudCheck builds an audit record for a completed evaluation.
func NewFraudCheck(transactionID, userID uuid.UUID, riskScore int, behaviorScore, ruleScore float64, flaggedRules []string, action Action, now time.Time) *FraudCheck {
	return &FraudCheck{
		ID:            uuid.New(),
		TransactionID: transactionID,
		UserID:        userID,
		RiskScore:     riskScore,
		BehaviorScore: behaviorScore,
		RuleScore:     ruleScore,
		FlaggedRules:  flaggedRules,
		Action:        action,
		CreatedAt:     now,
	}
}
