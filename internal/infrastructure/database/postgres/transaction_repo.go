package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"bnpl-risk-core/internal/domain/transaction"
)

// TransactionModel is the database model for transactions
type TransactionModel struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey"`
	UserID       uuid.UUID       `gorm:"type:uuid;index;not null"`
	MerchantID   uuid.UUID       `gorm:"type:uuid;index;not null"`
	Amount       decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	Description  string          `gorm:"type:text"`
	Status       string          `gorm:"type:varchar(20);index;not null"`
	RiskScore    *int
	FraudAction  string    `gorm:"type:varchar(10)"`
	FlaggedRules string    `gorm:"type:jsonb"`
	CreatedAt    time.Time `gorm:"index;not null"`
	ProcessedAt  *time.Time
	UpdatedAt    time.Time `gorm:"not null"`
}

// TableName returns the table name for transactions
func (TransactionModel) TableName() string {
	return "transactions"
}

// MerchantModel is the database model for merchants
type MerchantModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"type:varchar(200);not null"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for merchants
func (MerchantModel) TableName() string {
	return "merchants"
}

// TransactionRepository implements transaction.Repository
type TransactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(client *Client) *TransactionRepository {
	return &TransactionRepository{db: client.DB()}
}

// Create stores a transaction
func (r *TransactionRepository) Create(ctx context.Context, tx *transaction.Transaction) error {
	return r.db.WithContext(ctx).Create(transactionToModel(tx)).Error
}

// GetByID retrieves a transaction by ID
func (r *TransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	var model TransactionModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, transaction.ErrTransactionNotFound
		}
		return nil, err
	}
	return modelToTransaction(&model), nil
}

// Update persists transaction changes
func (r *TransactionRepository) Update(ctx context.Context, tx *transaction.Transaction) error {
	return r.db.WithContext(ctx).Save(transactionToModel(tx)).Error
}

// ListByUserSince returns the user's transactions since the given instant, newest first
func (r *TransactionRepository) ListByUserSince(ctx context.Context, userID uuid.UUID, since time.Time) ([]*transaction.Transaction, error) {
	var models []TransactionModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND created_at >= ?", userID, since).
		Order("created_at DESC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	txs := make([]*transaction.Transaction, len(models))
	for i, m := range models {
		txs[i] = modelToTransaction(&m)
	}
	return txs, nil
}

// MerchantRepository implements transaction.MerchantRepository
type MerchantRepository struct {
	db *gorm.DB
}

// NewMerchantRepository creates a new merchant repository
func NewMerchantRepository(client *Client) *MerchantRepository {
	return &MerchantRepository{db: client.DB()}
}

// GetByID retrieves a merchant by ID
func (r *MerchantRepository) GetByID(ctx context.Context, id uuid.UUID) (*transaction.Merchant, error) {
	var model MerchantModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, transaction.ErrMerchantNotFound
		}
		return nil, err
	}
	return &transaction.Merchant{ID: model.ID, Name: model.Name, CreatedAt: model.CreatedAt}, nil
}

func transactionToModel(t *transaction.Transaction) *TransactionModel {
	flagged, _ := json.Marshal(t.FlaggedRules)
	return &TransactionModel{
		ID:           t.ID,
		UserID:       t.UserID,
		MerchantID:   t.MerchantID,
		Amount:       t.Amount,
		Description:  t.Description,
		Status:       string(t.Status),
		RiskScore:    t.RiskScore,
		FraudAction:  t.FraudAction,
		FlaggedRules: string(flagged),
		CreatedAt:    t.CreatedAt,
		ProcessedAt:  t.ProcessedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}

func modelToTransaction(m *TransactionModel) *transaction.Transaction {
	var flagged []string
	json.Unmarshal([]byte(m.FlaggedRules), &flagged)
	return &transaction.Transaction{
		ID:           m.ID,
		UserID:       m.UserID,
		MerchantID:   m.MerchantID,
		Amount:       m.Amount,
		Description:  m.Description,
		Status:       transaction.Status(m.Status),
		RiskScore:    m.RiskScore,
		FraudAction:  m.FraudAction,
		FlaggedRules: flagged,
		CreatedAt:    m.CreatedAt,
		ProcessedAt:  m.ProcessedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}
