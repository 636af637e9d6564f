package credit

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"bnpl-risk-core/internal/application/dto"
	"bnpl-risk-core/internal/domain/credit"
	"bnpl-risk-core/internal/domain/kyc"
	"bnpl-risk-core/internal/domain/user"
	"bnpl-risk-core/internal/infrastructure/metrics"
)

// AssessLimitUseCase orchestrates limit assessment. It enriches the
// self-reported profile with the KYC verdict and the user's region
// before handing it to the decisioning engine.
type AssessLimitUseCase struct {
	engine    *credit.Engine
	users     user.Repository
	kycOracle kyc.Oracle
}

// NewAssessLimitUseCase creates the use case.
func NewAssessLimitUseCase(engine *credit.Engine, users user.Repository, kycOracle kyc.Oracle) *AssessLimitUseCase {
	return &AssessLimitUseCase{engine: engine, users: users, kycOracle: kycOracle}
}

// Assess computes and persists a credit limit from the request.
func (uc *AssessLimitUseCase) Assess(ctx context.Context, req *dto.AssessCreditRequest) (*dto.CreditLimitResponse, error) {
	usr, err := uc.users.GetByID(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("assess limit: %w", err)
	}
	status, err := uc.kycOracle.Status(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("kyc status: %w", err)
	}

	profile := &credit.FinancialProfile{
		UserID:                req.UserID,
		MonthlyIncome:         req.MonthlyIncome,
		MonthlyExpenses:       req.MonthlyExpenses,
		ExistingLoanPayments:  req.ExistingLoanPayments,
		EmploymentStatus:      credit.EmploymentStatus(req.EmploymentStatus),
		IncomeFrequency:       credit.IncomeFrequency(req.IncomeFrequency),
		HousingStatus:         credit.HousingStatus(req.HousingStatus),
		TenureMonths:          req.TenureMonths,
		KYCStatus:             status,
		MobileMoneyAvgBalance: req.MobileMoneyAvgBalance,
		MonthlyTxCount:        req.MonthlyTxCount,
		Region:                usr.Region,
	}

	limit, err := uc.engine.Assess(ctx, req.UserID, profile)
	if err != nil {
		return nil, err
	}
	metrics.CreditAssessments.WithLabelValues("assess").Inc()
	return &dto.CreditLimitResponse{UserID: req.UserID, CreditLimit: limit}, nil
}

// Reassess recomputes the limit from realized payment behavior.
func (uc *AssessLimitUseCase) Reassess(ctx context.Context, userID uuid.UUID) (*dto.CreditLimitResponse, error) {
	limit, err := uc.engine.Reassess(ctx, userID)
	if err != nil {
		return nil, err
	}
	metrics.CreditAssessments.WithLabelValues("reassess").Inc()
	return &dto.CreditLimitResponse{UserID: userID, CreditLimit: limit}, nil
}
