package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"bnpl-risk-core/internal/domain/credit"
	"bnpl-risk-core/internal/domain/kyc"
	"bnpl-risk-core/internal/domain/user"
)

// AccountModel is the database model for credit accounts
type AccountModel struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey"`
	UserID           uuid.UUID       `gorm:"type:uuid;uniqueIndex;not null"`
	CreditLimit      decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	AvailableCredit  decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	TotalOutstanding decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	CreatedAt        time.Time       `gorm:"not null"`
	UpdatedAt        time.Time       `gorm:"not null"`
}

// TableName returns the table name for credit accounts
func (AccountModel) TableName() string {
	return "credit_accounts"
}

// LimitHistoryModel is the database model for the limit ledger
type LimitHistoryModel struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	AccountID     uuid.UUID       `gorm:"type:uuid;index;not null"`
	PreviousLimit decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	NewLimit      decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	Reason        string          `gorm:"type:varchar(100);not null"`
	CreatedAt     time.Time       `gorm:"not null"`
}

// TableName returns the table name for the limit ledger
func (LimitHistoryModel) TableName() string {
	return "credit_limit_history"
}

// FinancialProfileModel is the database model for financial profiles
type FinancialProfileModel struct {
	UserID                uuid.UUID       `gorm:"type:uuid;primaryKey"`
	MonthlyIncome         decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	MonthlyExpenses       decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	ExistingLoanPayments  decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	EmploymentStatus      string          `gorm:"type:varchar(20);not null"`
	IncomeFrequency       string          `gorm:"type:varchar(20);not null"`
	HousingStatus         string          `gorm:"type:varchar(20);not null"`
	TenureMonths          int             `gorm:"not null"`
	KYCStatus             string          `gorm:"type:varchar(20)"`
	MobileMoneyAvgBalance decimal.Decimal `gorm:"type:decimal(15,2)"`
	MonthlyTxCount        int
	Region                string    `gorm:"type:varchar(20)"`
	UpdatedAt             time.Time `gorm:"not null"`
}

// TableName returns the table name for financial profiles
func (FinancialProfileModel) TableName() string {
	return "financial_profiles"
}

// AccountRepository implements credit.Repository
type AccountRepository struct {
	db *gorm.DB
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(client *Client) *AccountRepository {
	return &AccountRepository{db: client.DB()}
}

// GetByUserID retrieves a user's credit account
func (r *AccountRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*credit.Account, error) {
	var model AccountModel
	if err := r.db.WithContext(ctx).First(&model, "user_id = ?", userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, credit.ErrAccountNotFound
		}
		return nil, err
	}
	return modelToAccount(&model), nil
}

// CreateWithHistory opens an account and writes its first ledger row atomically
func (r *AccountRepository) CreateWithHistory(ctx context.Context, account *credit.Account, hist *credit.LimitHistory) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(accountToModel(account)).Error; err != nil {
			return err
		}
		return tx.Create(historyToModel(hist)).Error
	})
}

// UpdateLimitWithHistory persists a limit change and its ledger row atomically
func (r *AccountRepository) UpdateLimitWithHistory(ctx context.Context, account *credit.Account, hist *credit.LimitHistory) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(accountToModel(account)).Error; err != nil {
			return err
		}
		return tx.Create(historyToModel(hist)).Error
	})
}

// ListHistory returns the account's limit ledger, newest first
func (r *AccountRepository) ListHistory(ctx context.Context, accountID uuid.UUID) ([]*credit.LimitHistory, error) {
	var models []LimitHistoryModel
	if err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at DESC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	rows := make([]*credit.LimitHistory, len(models))
	for i, m := range models {
		rows[i] = modelToHistory(&m)
	}
	return rows, nil
}

// ProfileRepository implements credit.ProfileRepository
type ProfileRepository struct {
	db *gorm.DB
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(client *Client) *ProfileRepository {
	return &ProfileRepository{db: client.DB()}
}

// GetByUserID retrieves a user's financial profile
func (r *ProfileRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*credit.FinancialProfile, error) {
	var model FinancialProfileModel
	if err := r.db.WithContext(ctx).First(&model, "user_id = ?", userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, credit.ErrProfileNotFound
		}
		return nil, err
	}
	return modelToProfile(&model), nil
}

// Save upserts a financial profile
func (r *ProfileRepository) Save(ctx context.Context, profile *credit.FinancialProfile) error {
	return r.db.WithContext(ctx).Save(profileToModel(profile)).Error
}

func accountToModel(a *credit.Account) *AccountModel {
	return &AccountModel{
		ID:               a.ID,
		UserID:           a.UserID,
		CreditLimit:      a.CreditLimit,
		AvailableCredit:  a.AvailableCredit,
		TotalOutstanding: a.TotalOutstanding,
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
	}
}

func modelToAccount(m *AccountModel) *credit.Account {
	return &credit.Account{
		ID:               m.ID,
		UserID:           m.UserID,
		CreditLimit:      m.CreditLimit,
		AvailableCredit:  m.AvailableCredit,
		TotalOutstanding: m.TotalOutstanding,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

func historyToModel(h *credit.LimitHistory) *LimitHistoryModel {
	return &LimitHistoryModel{
		ID:            h.ID,
		AccountID:     h.AccountID,
		PreviousLimit: h.PreviousLimit,
		NewLimit:      h.NewLimit,
		Reason:        h.Reason,
		CreatedAt:     h.CreatedAt,
	}
}

func modelToHistory(m *LimitHistoryModel) *credit.LimitHistory {
	return &credit.LimitHistory{
		ID:            m.ID,
		AccountID:     m.AccountID,
		PreviousLimit: m.PreviousLimit,
		NewLimit:      m.NewLimit,
		Reason:        m.Reason,
		CreatedAt:     m.CreatedAt,
	}
}

func profileToModel(p *credit.FinancialProfile) *FinancialProfileModel {
	return &FinancialProfileModel{
		UserID:                p.UserID,
		MonthlyIncome:         p.MonthlyIncome,
		MonthlyExpenses:       p.MonthlyExpenses,
		ExistingLoanPayments:  p.ExistingLoanPayments,
		EmploymentStatus:      string(p.EmploymentStatus),
		IncomeFrequency:       string(p.IncomeFrequency),
		HousingStatus:         string(p.HousingStatus),
		TenureMonths:          p.TenureMonths,
		KYCStatus:             string(p.KYCStatus),
		MobileMoneyAvgBalance: p.MobileMoneyAvgBalance,
		MonthlyTxCount:        p.MonthlyTxCount,
		Region:                string(p.Region),
		UpdatedAt:             p.UpdatedAt,
	}
}

func modelToProfile(m *FinancialProfileModel) *credit.FinancialProfile {
	return &credit.FinancialProfile{
		UserID:                m.UserID,
		MonthlyIncome:         m.MonthlyIncome,
		MonthlyExpenses:       m.MonthlyExpenses,
		ExistingLoanPayments:  m.ExistingLoanPayments,
		EmploymentStatus:      credit.EmploymentStatus(m.EmploymentStatus),
		IncomeFrequency:       credit.IncomeFrequency(m.IncomeFrequency),
		HousingStatus:         credit.HousingStatus(m.HousingStatus),
		TenureMonths:          m.TenureMonths,
		KYCStatus:             kyc.Status(m.KYCStatus),
		MobileMoneyAvgBalance: m.MobileMoneyAvgBalance,
		MonthlyTxCount:        m.MonthlyTxCount,
		Region:                user.Region(m.Region),
		UpdatedAt:             m.UpdatedAt,
	}
}
