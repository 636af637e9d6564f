package credit

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"bnpl-risk-core/internal/domain/kyc"
	"bnpl-risk-core/internal/domain/notification"
	"bnpl-risk-core/internal/domain/user"
	"bnpl-risk-core/internal/pkg/clock"
)

// Config holds the decisioning bounds. Multiplier tables are versioned
// in code; bounds and the base multiplier are deployment-tunable.
type Config struct {
	BaseMultiplier decimal.Decimal
	MinLimit       decimal.Decimal
	MaxLimit       decimal.Decimal
}

// DefaultConfig returns the standard decisioning bounds.
func DefaultConfig() Config {
	return Config{
		BaseMultiplier: decimal.NewFromInt(2),
		MinLimit:       decimal.NewFromInt(1000),
		MaxLimit:       decimal.NewFromInt(50000),
	}
}

var employmentMultipliers = map[EmploymentStatus]float64{
	EmploymentFullTime:     1.2,
	EmploymentSelfEmployed: 1.0,
	EmploymentPartTime:     0.8,
	EmploymentContract:     0.9,
	EmploymentStudent:      0.6,
	EmploymentUnemployed:   0.3,
}

var incomeFrequencyMultipliers = map[IncomeFrequency]float64{
	IncomeMonthly:   1.1,
	IncomeWeekly:    1.0,
	IncomeIrregular: 0.8,
}

var housingMultipliers = map[HousingStatus]float64{
	HousingOwned:            1.2,
	HousingLivingWithFamily: 1.1,
	HousingRented:           1.0,
}

var kycMultipliers = map[kyc.Status]float64{
	kyc.StatusApproved:     1.15,
	kyc.StatusPending:      0.7,
	kyc.StatusNotSubmitted: 0.5,
	kyc.StatusRejected:     0.5,
}

// Engine computes and recomputes credit limits.
type Engine struct {
	cfg      Config
	users    user.Repository
	accounts Repository
	profiles ProfileRepository
	history  HistoryProvider
	notifier notification.Notifier
	clock    clock.Clock
	log      *logrus.Logger
}

// NewEngine creates a credit decisioning engine.
func NewEngine(
	cfg Config,
	users user.Repository,
	accounts Repository,
	profiles ProfileRepository,
	history HistoryProvider,
	notifier notification.Notifier,
	clk clock.Clock,
	log *logrus.Logger,
) *Engine {
	return &Engine{
		cfg:      cfg,
		users:    users,
		accounts: accounts,
		profiles: profiles,
		history:  history,
		notifier: notifier,
		clock:    clk,
		log:      log,
	}
}

// Assess computes a credit limit from the given profile, persists the
// profile and the limit change, and returns the limit. First-time users
// get an account opened with the full limit available.
func (e *Engine) Assess(ctx context.Context, userID uuid.UUID, profile *FinancialProfile) (decimal.Decimal, error) {
	if _, err := e.users.GetByID(ctx, userID); err != nil {
		return decimal.Zero, fmt.Errorf("assess credit: %w", err)
	}
	profile.UserID = userID
	if err := profile.Validate(); err != nil {
		return decimal.Zero, err
	}

	now := e.clock.Now()
	limit := e.computeLimit(profile)

	profile.UpdatedAt = now
	if err := e.profiles.Save(ctx, profile); err != nil {
		return decimal.Zero, fmt.Errorf("save profile: %w", err)
	}

	account, err := e.accounts.GetByUserID(ctx, userID)
	switch {
	case err == nil:
		previous := account.CreditLimit
		account.ApplyLimitChange(limit, now)
		hist := NewLimitHistory(account.ID, previous, limit, "assessment", now)
		if err := e.accounts.UpdateLimitWithHistory(ctx, account, hist); err != nil {
			return decimal.Zero, fmt.Errorf("update limit: %w", err)
		}
		e.notify(ctx, userID, notification.TypeLimitChanged,
			fmt.Sprintf("Your credit limit is now %s", limit.StringFixed(2)))
	case errors.Is(err, ErrAccountNotFound):
		account = NewAccount(userID, limit, now)
		hist := NewLimitHistory(account.ID, decimal.Zero, limit, "initial_assessment", now)
		if err := e.accounts.CreateWithHistory(ctx, account, hist); err != nil {
			return decimal.Zero, fmt.Errorf("create account: %w", err)
		}
		e.notify(ctx, userID, notification.TypeLimitAssigned,
			fmt.Sprintf("You have been approved for a credit limit of %s", limit.StringFixed(2)))
	default:
		return decimal.Zero, fmt.Errorf("load account: %w", err)
	}

	e.log.WithFields(logrus.Fields{
		"user_id": userID,
		"limit":   limit.String(),
	}).Info("credit limit assessed")

	return limit, nil
}

// Reassess recomputes the limit from realized payment reliability,
// applying a banded multiplier to the current limit.
func (e *Engine) Reassess(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	if _, err := e.users.GetByID(ctx, userID); err != nil {
		return decimal.Zero, fmt.Errorf("reassess credit: %w", err)
	}
	if _, err := e.profiles.GetByUserID(ctx, userID); err != nil {
		return decimal.Zero, fmt.Errorf("reassess credit: %w", err)
	}
	account, err := e.accounts.GetByUserID(ctx, userID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("reassess credit: %w", err)
	}

	stats, err := e.history.PaymentStats(ctx, userID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("payment stats: %w", err)
	}

	score := Reliability(stats)
	mult := reliabilityMultiplier(score)
	limit := e.clampAndFloor(account.CreditLimit.Mul(decimal.NewFromFloat(mult)))

	now := e.clock.Now()
	previous := account.CreditLimit
	account.ApplyLimitChange(limit, now)
	hist := NewLimitHistory(account.ID, previous, limit,
		fmt.Sprintf("reassessment reliability=%.2f", score), now)
	if err := e.accounts.UpdateLimitWithHistory(ctx, account, hist); err != nil {
		return decimal.Zero, fmt.Errorf("update limit: %w", err)
	}

	e.notify(ctx, userID, notification.TypeLimitChanged,
		fmt.Sprintf("Your credit limit is now %s", limit.StringFixed(2)))

	e.log.WithFields(logrus.Fields{
		"user_id":     userID,
		"reliability": score,
		"limit":       limit.String(),
	}).Info("credit limit reassessed")

	return limit, nil
}

// computeLimit runs the multiplicative assessment chain and clamps the
// result into the configured bounds.
func (e *Engine) computeLimit(p *FinancialProfile) decimal.Decimal {
	limit := p.MonthlyIncome.
		Sub(p.MonthlyExpenses).
		Sub(p.ExistingLoanPayments).
		Mul(e.cfg.BaseMultiplier)

	limit = mul(limit, employmentMultipliers[p.EmploymentStatus])
	limit = mul(limit, incomeFrequencyMultipliers[p.IncomeFrequency])

	ratio := p.DebtToIncome()
	switch {
	case ratio.GreaterThan(decimal.NewFromFloat(0.5)):
		limit = mul(limit, 0.6)
	case ratio.GreaterThan(decimal.NewFromFloat(0.3)):
		limit = mul(limit, 0.8)
	}

	limit = mul(limit, housingMultipliers[p.HousingStatus])

	switch {
	case p.TenureMonths >= 60:
		limit = mul(limit, 1.2)
	case p.TenureMonths >= 24:
		limit = mul(limit, 1.1)
	case p.TenureMonths < 6:
		limit = mul(limit, 0.9)
	}

	if p.KYCStatus != "" {
		limit = mul(limit, kycMultipliers[p.KYCStatus])
	}
	if p.MobileMoneyAvgBalance.IsPositive() {
		balanceRatio := p.MobileMoneyAvgBalance.Div(p.MonthlyIncome)
		switch {
		case balanceRatio.GreaterThan(decimal.NewFromFloat(0.5)):
			limit = mul(limit, 1.2)
		case balanceRatio.GreaterThan(decimal.NewFromFloat(0.2)):
			limit = mul(limit, 1.1)
		}
	}
	if p.MonthlyTxCount > 20 {
		limit = mul(limit, 1.1)
	}
	switch p.Region {
	case user.RegionMajorUrban:
		limit = mul(limit, 1.1)
	case user.RegionOther:
		limit = mul(limit, 0.9)
	}

	return e.clampAndFloor(limit)
}

// clampAndFloor bounds the limit and floors it to the nearest 100.
func (e *Engine) clampAndFloor(limit decimal.Decimal) decimal.Decimal {
	if limit.LessThan(e.cfg.MinLimit) {
		limit = e.cfg.MinLimit
	}
	if limit.GreaterThan(e.cfg.MaxLimit) {
		limit = e.cfg.MaxLimit
	}
	hundred := decimal.NewFromInt(100)
	return limit.Div(hundred).Floor().Mul(hundred)
}

// Reliability derives a [0,1] payment reliability score from historical
// installment outcomes. No history yields the neutral 0.7.
func Reliability(stats PaymentStats) float64 {
	if stats.Total == 0 {
		return 0.7
	}
	lateRatio := float64(stats.Late) / float64(stats.Total)
	missedRatio := float64(stats.Missed) / float64(stats.Total)
	score := 1 - (0.2*lateRatio + 0.8*missedRatio)
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

func reliabilityMultiplier(score float64) float64 {
	switch {
	case score > 0.95:
		return 1.25
	case score > 0.85:
		return 1.15
	case score > 0.75:
		return 1.10
	case score < 0.5:
		return 0.75
	case score < 0.7:
		return 0.90
	default:
		return 1.0
	}
}

func mul(d decimal.Decimal, factor float64) decimal.Decimal {
	// unknown enum values carry no adjustment
	if factor == 0 {
		return d
	}
	return d.Mul(decimal.NewFromFloat(factor))
}

func (e *Engine) notify(ctx context.Context, userID uuid.UUID, typ notification.Type, msg string) {
	if err := e.notifier.Notify(ctx, userID, typ, msg, nil); err != nil {
		e.log.WithError(err).WithField("user_id", userID).Warn("notification failed")
	}
}
