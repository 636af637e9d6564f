package credit

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"bnpl-risk-core/internal/domain/kyc"
	"bnpl-risk-core/internal/domain/user"
)

// EmploymentStatus is the self-reported employment situation.
type EmploymentStatus string

const (
	EmploymentFullTime     EmploymentStatus = "FULL_TIME"
	EmploymentSelfEmployed EmploymentStatus = "SELF_EMPLOYED"
	EmploymentPartTime     EmploymentStatus = "PART_TIME"
	EmploymentContract     EmploymentStatus = "CONTRACT"
	EmploymentStudent      EmploymentStatus = "STUDENT"
	EmploymentUnemployed   EmploymentStatus = "UNEMPLOYED"
)

// IncomeFrequency is how regularly income arrives.
type IncomeFrequency string

const (
	IncomeMonthly   IncomeFrequency = "MONTHLY"
	IncomeWeekly    IncomeFrequency = "WEEKLY"
	IncomeIrregular IncomeFrequency = "IRREGULAR"
)

// HousingStatus is the self-reported housing situation.
type HousingStatus string

const (
	HousingOwned            HousingStatus = "OWNED"
	HousingLivingWithFamily HousingStatus = "LIVING_WITH_FAMILY"
	HousingRented           HousingStatus = "RENTED"
)

// Account holds a user's credit position. availableCredit tracks
// creditLimit minus totalOutstanding via explicit atomic deltas; it is
// never recomputed wholesale on the hot path.
type Account struct {
	ID               uuid.UUID       `json:"id"`
	UserID           uuid.UUID       `json:"user_id"`
	CreditLimit      decimal.Decimal `json:"credit_limit"`
	AvailableCredit  decimal.Decimal `json:"available_credit"`
	TotalOutstanding decimal.Decimal `json:"total_outstanding"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// NewAccount opens an account with the full limit available.
func NewAccount(userID uuid.UUID, limit decimal.Decimal, now time.Time) *Account {
	return &Account{
		ID:               uuid.New(),
		UserID:           userID,
		CreditLimit:      limit,
		AvailableCredit:  limit,
		TotalOutstanding: decimal.Zero,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// ApplyLimitChange moves the account to a new limit, shifting available
// credit by the delta so outstanding balances are unaffected.
func (a *Account) ApplyLimitChange(newLimit decimal.Decimal, now time.Time) {
	delta := newLimit.Sub(a.CreditLimit)
	a.CreditLimit = newLimit
	a.AvailableCredit = a.AvailableCredit.Add(delta)
	a.UpdatedAt = now
}

// LimitHistory is one append-only ledger row recording a limit change.
type LimitHistory struct {
	ID            uuid.UUID       `json:"id"`
	AccountID     uuid.UUID       `json:"account_id"`
	PreviousLimit decimal.Decimal `json:"previous_limit"`
	NewLimit      decimal.Decimal `json:"new_limit"`
	Reason        string          `json:"reason"`
	CreatedAt     time.Time       `json:"created_at"`
}

// NewLimitHistory builds a ledger row for a limit change.
func NewLimitHistory(accountID uuid.UUID, previous, next decimal.Decimal, reason string, now time.Time) *LimitHistory {
	return &LimitHistory{
		ID:            uuid.New(),
		AccountID:     accountID,
		PreviousLimit: previous,
		NewLimit:      next,
		Reason:        reason,
		CreatedAt:     now,
	}
}

// FinancialProfile is the self-reported financial data plus market
// signals used by the assessment chain. Zero-valued optional fields are
// treated as neutral.
type FinancialProfile struct {
	UserID               uuid.UUID        `json:"user_id"`
	MonthlyIncome        decimal.Decimal  `json:"monthly_income"`
	MonthlyExpenses      decimal.Decimal  `json:"monthly_expenses"`
	ExistingLoanPayments decimal.Decimal  `json:"existing_loan_payments"`
	EmploymentStatus     EmploymentStatus `json:"employment_status"`
	IncomeFrequency      IncomeFrequency  `json:"income_frequency"`
	HousingStatus        HousingStatus    `json:"housing_status"`
	TenureMonths         int              `json:"tenure_months"`

	// Market signals. Empty KYC status or region means unknown and
	// contributes no adjustment.
	KYCStatus             kyc.Status      `json:"kyc_status,omitempty"`
	MobileMoneyAvgBalance decimal.Decimal `json:"mobile_money_avg_balance"`
	MonthlyTxCount        int             `json:"monthly_tx_count"`
	Region                user.Region     `json:"region,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks the profile's core figures.
func (p *FinancialProfile) Validate() error {
	if p.UserID == uuid.Nil {
		return ErrInvalidProfile
	}
	if !p.MonthlyIncome.IsPositive() {
		return ErrInvalidProfile
	}
	if p.MonthlyExpenses.IsNegative() || p.ExistingLoanPayments.IsNegative() {
		return ErrInvalidProfile
	}
	return nil
}

// DebtToIncome returns existing loan payments over income. Income is
// validated positive before this is called.
func (p *FinancialProfile) DebtToIncome() decimal.Decimal {
	return p.ExistingLoanPayments.Div(p.MonthlyIncome)
}
