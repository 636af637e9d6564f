package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"bnpl-risk-core/internal/domain/fraud"
)

// FraudCheckModel is the database model for fraud-check audit records
type FraudCheckModel struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	TransactionID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	UserID        uuid.UUID `gorm:"type:uuid;index;not null"`
	RiskScore     int       `gorm:"not null"`
	BehaviorScore float64   `gorm:"not null"`
	RuleScore     float64   `gorm:"not null"`
	FlaggedRules  string    `gorm:"type:jsonb"`
	Action        string    `gorm:"type:varchar(10);index;not null"`
	CreatedAt     time.Time `gorm:"index;not null"`
}

// TableName returns the table name for fraud checks
func (FraudCheckModel) TableName() string {
	return "fraud_checks"
}

// FraudCheckRepository implements fraud.Repository
type FraudCheckRepository struct {
	db *gorm.DB
}

// NewFraudCheckRepository creates a new fraud-check repository
func NewFraudCheckRepository(client *Client) *FraudCheckRepository {
	return &FraudCheckRepository{db: client.DB()}
}

// Create stores a fraud check. Records are append-only.
func (r *FraudCheckRepository) Create(ctx context.Context, check *fraud.FraudCheck) error {
	flagged, _ := json.Marshal(check.FlaggedRules)
	model := &FraudCheckModel{
		ID:            check.ID,
		TransactionID: check.TransactionID,
		UserID:        check.UserID,
		RiskScore:     check.RiskScore,
		BehaviorScore: check.BehaviorScore,
		RuleScore:     check.RuleScore,
		FlaggedRules:  string(flagged),
		Action:        string(check.Action),
		CreatedAt:     check.CreatedAt,
	}
	return r.db.WithContext(ctx).Create(model).Error
}

// GetByTransactionID retrieves the check for a transaction
func (r *FraudCheckRepository) GetByTransactionID(ctx context.Context, txID uuid.UUID) (*fraud.FraudCheck, error) {
	var model FraudCheckModel
	if err := r.db.WithContext(ctx).First(&model, "transaction_id = ?", txID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fraud.ErrCheckNotFound
		}
		return nil, err
	}
	return modelToCheck(&model), nil
}

// CountFlaggedByUserSince counts FLAG/BLOCK records for a user in the window
func (r *FraudCheckRepository) CountFlaggedByUserSince(ctx context.Context, userID uuid.UUID, since time.Time) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&FraudCheckModel{}).
		Where("user_id = ? AND action IN ? AND created_at >= ?", userID, []string{string(fraud.ActionFlag), string(fraud.ActionBlock)}, since).
		Count(&count).Error
	return int(count), err
}

// CountFlaggedByMerchantSince counts FLAG/BLOCK records against a merchant in the window
func (r *FraudCheckRepository) CountFlaggedByMerchantSince(ctx context.Context, merchantID uuid.UUID, since time.Time) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&FraudCheckModel{}).
		Joins("JOIN transactions ON transactions.id = fraud_checks.transaction_id").
		Where("transactions.merchant_id = ? AND fraud_checks.action IN ? AND fraud_checks.created_at >= ?",
			merchantID, []string{string(fraud.ActionFlag), string(fraud.ActionBlock)}, since).
		Count(&count).Error
	return int(count), err
}

func modelToCheck(m *FraudCheckModel) *fraud.FraudCheck {
	var flagged []string
	json.Unmarshal([]byte(m.FlaggedRules), &flagged)
	return &fraud.FraudCheck{
		ID:            m.ID,
		TransactionID: m.TransactionID,
		UserID:        m.UserID,
		RiskScore:     m.RiskScore,
		BehaviorScore: m.BehaviorScore,
		RuleScore:     m.RuleScore,
		FlaggedRules:  flagged,
		Action:        fraud.Action(m.Action),
		CreatedAt:     m.CreatedAt,
	}
}
