package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AssessCreditRequest carries the self-reported financial data for a
// limit assessment.
type AssessCreditRequest struct {
	UserID                uuid.UUID       `json:"user_id"`
	MonthlyIncome         decimal.Decimal `json:"monthly_income"`
	MonthlyExpenses       decimal.Decimal `json:"monthly_expenses"`
	ExistingLoanPayments  decimal.Decimal `json:"existing_loan_payments"`
	EmploymentStatus      string          `json:"employment_status"`
	IncomeFrequency       string          `json:"income_frequency"`
	HousingStatus         string          `json:"housing_status"`
	TenureMonths          int             `json:"tenure_months"`
	MobileMoneyAvgBalance decimal.Decimal `json:"mobile_money_avg_balance"`
	MonthlyTxCount        int             `json:"monthly_tx_count"`
}

// CreditLimitResponse reports an assessed or reassessed limit.
type CreditLimitResponse struct {
	UserID      uuid.UUID       `json:"user_id"`
	CreditLimit decimal.Decimal `json:"credit_limit"`
}

// CheckoutRequest is one purchase attempt.
type CheckoutRequest struct {
	UserID       uuid.UUID       `json:"user_id"`
	MerchantID   uuid.UUID       `json:"merchant_id"`
	Amount       decimal.Decimal `json:"amount"`
	Installments int             `json:"installments"`
	Description  string          `json:"description,omitempty"`
}

// CheckoutResponse reports the outcome of a checkout attempt.
type CheckoutResponse struct {
	TransactionID     uuid.UUID       `json:"transaction_id"`
	Status            string          `json:"status"`
	RiskScore         int             `json:"risk_score"`
	Action            string          `json:"action"`
	FlaggedRules      []string        `json:"flagged_rules,omitempty"`
	PlanID            *uuid.UUID      `json:"plan_id,omitempty"`
	InstallmentAmount decimal.Decimal `json:"installment_amount"`
	EndDate           *time.Time      `json:"end_date,omitempty"`
}

// FraudCheckRequest evaluates a hypothetical transaction without
// creating one.
type FraudCheckRequest struct {
	UserID     uuid.UUID       `json:"user_id"`
	MerchantID uuid.UUID       `json:"merchant_id"`
	Amount     decimal.Decimal `json:"amount"`
}

// FraudCheckResponse reports a fraud evaluation.
type FraudCheckResponse struct {
	TransactionID uuid.UUID `json:"transaction_id"`
	RiskScore     int       `json:"risk_score"`
	Action        string    `json:"action"`
	FlaggedRules  []string  `json:"flagged_rules,omitempty"`
}

// RescheduleRequest moves a plan's end date.
type RescheduleRequest struct {
	NewEndDate time.Time  `json:"new_end_date"`
	Reason     string     `json:"reason"`
	AdminID    *uuid.UUID `json:"admin_id,omitempty"`
}

// RescheduleResponse reports a successful reschedule.
type RescheduleResponse struct {
	PlanID     uuid.UUID       `json:"plan_id"`
	NewEndDate time.Time       `json:"new_end_date"`
	Fee        decimal.Decimal `json:"fee"`
}

// KYCSubmitRequest submits identity evidence for verification.
type KYCSubmitRequest struct {
	UserID      uuid.UUID `json:"user_id"`
	DocumentRef string    `json:"document_ref"`
	SelfieRef   string    `json:"selfie_ref"`
}

// KYCSubmitResponse reports the resulting verification status.
type KYCSubmitResponse struct {
	UserID uuid.UUID `json:"user_id"`
	Status string    `json:"status"`
}

// RecordPaymentRequest lands a captured installment payment.
type RecordPaymentRequest struct {
	InstallmentNumber int             `json:"installment_number"`
	Amount            decimal.Decimal `json:"amount"`
}
