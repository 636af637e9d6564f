package scoring

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"bnpl-risk-core/internal/domain/credit"
	"bnpl-risk-core/internal/domain/fraud"
	"bnpl-risk-core/internal/domain/kyc"
	"bnpl-risk-core/internal/domain/plan"
	"bnpl-risk-core/internal/domain/transaction"
	"bnpl-risk-core/internal/domain/user"
	"bnpl-risk-core/internal/infrastructure/cache/redis"
	"bnpl-risk-core/internal/pkg/clock"
)

const txHistoryWindow = 90 * 24 * time.Hour

// Gatherer implements fraud.DataSource. It materializes the behavior
// snapshot and rule context from persistence and the activity cache,
// fetching independent signals in parallel.
type Gatherer struct {
	accounts  credit.Repository
	plans     plan.Repository
	txs       transaction.Repository
	checks    fraud.Repository
	kycOracle kyc.Oracle
	activity  *redis.ActivityCache
	fraudCfg  fraud.Config
	clock     clock.Clock
}

// NewGatherer creates a data gatherer.
func NewGatherer(
	accounts credit.Repository,
	plans plan.Repository,
	txs transaction.Repository,
	checks fraud.Repository,
	kycOracle kyc.Oracle,
	activity *redis.ActivityCache,
	fraudCfg fraud.Config,
	clk clock.Clock,
) *Gatherer {
	return &Gatherer{
		accounts:  accounts,
		plans:     plans,
		txs:       txs,
		checks:    checks,
		kycOracle: kycOracle,
		activity:  activity,
		fraudCfg:  fraudCfg,
		clock:     clk,
	}
}

// Gather collects all signals for one evaluation.
func (g *Gatherer) Gather(ctx context.Context, tx *transaction.Transaction, usr *user.User, merch *transaction.Merchant) (fraud.BehaviorSnapshot, fraud.RuleContext, error) {
	now := g.clock.Now()

	var (
		kycStatus     kyc.Status
		userPlans     []*plan.PaymentPlan
		installments  []*plan.Installment
		priorFlags    int
		history       []*transaction.Transaction
		txLastHour    int
		merchants2h   int
		lateNight     bool
		creditLimit   decimal.Decimal
		merchantFlags int
	)

	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		status, err := g.kycOracle.Status(egCtx, usr.ID)
		if err != nil {
			return fmt.Errorf("kyc status: %w", err)
		}
		kycStatus = status
		return nil
	})

	eg.Go(func() error {
		plans, err := g.plans.ListByUserID(egCtx, usr.ID)
		if err != nil {
			return fmt.Errorf("plan history: %w", err)
		}
		userPlans = plans
		rows, err := g.plans.ListInstallmentsByUser(egCtx, usr.ID)
		if err != nil {
			return fmt.Errorf("installment history: %w", err)
		}
		installments = rows
		return nil
	})

	eg.Go(func() error {
		n, err := g.checks.CountFlaggedByUserSince(egCtx, usr.ID, g.fraudCfg.PriorFraudSince(now))
		if err != nil {
			return fmt.Errorf("prior fraud flags: %w", err)
		}
		priorFlags = n
		return nil
	})

	eg.Go(func() error {
		txs, err := g.txs.ListByUserSince(egCtx, usr.ID, now.Add(-txHistoryWindow))
		if err != nil {
			return fmt.Errorf("transaction history: %w", err)
		}
		history = txs
		return nil
	})

	eg.Go(func() error {
		n, err := g.activity.TxCountInWindow(egCtx, usr.ID, now, time.Hour)
		if err != nil {
			return fmt.Errorf("tx velocity: %w", err)
		}
		txLastHour = n
		m, err := g.activity.DistinctMerchantsInWindow(egCtx, usr.ID, now, 2*time.Hour)
		if err != nil {
			return fmt.Errorf("merchant velocity: %w", err)
		}
		merchants2h = m
		ln, err := g.activity.HasLateNightHistory(egCtx, usr.ID)
		if err != nil {
			return fmt.Errorf("late-night history: %w", err)
		}
		lateNight = ln
		return nil
	})

	eg.Go(func() error {
		account, err := g.accounts.GetByUserID(egCtx, usr.ID)
		if err != nil {
			// No account yet means no limit-based threshold, not a defect.
			if errors.Is(err, credit.ErrAccountNotFound) {
				return nil
			}
			return fmt.Errorf("credit account: %w", err)
		}
		creditLimit = account.CreditLimit
		return nil
	})

	eg.Go(func() error {
		n, err := g.activity.MerchantFlagCount(egCtx, merch.ID)
		if err != nil {
			return fmt.Errorf("merchant flags: %w", err)
		}
		if n == 0 {
			// Counter may have expired; the audit table is authoritative.
			n, err = g.checks.CountFlaggedByMerchantSince(egCtx, merch.ID, now.Add(-30*24*time.Hour))
			if err != nil {
				return fmt.Errorf("merchant flags: %w", err)
			}
		}
		merchantFlags = n
		return nil
	})

	if err := eg.Wait(); err != nil {
		return fraud.BehaviorSnapshot{}, fraud.RuleContext{}, err
	}

	defaults, completed := 0, 0
	for _, p := range userPlans {
		switch p.Status {
		case plan.StatusDefaulted:
			defaults++
		case plan.StatusCompleted:
			completed++
		}
	}
	lateCount := 0
	for _, inst := range installments {
		if inst.Status == plan.InstallmentLate {
			lateCount++
			continue
		}
		if inst.PaidDate != nil && inst.PaidDate.After(inst.DueDate) {
			lateCount++
		}
	}

	mean, stddev := amountStats(history)
	deviation := false
	if len(history) >= 2 && stddev > 0 {
		amount, _ := tx.Amount.Float64()
		deviation = amount > mean+3*stddev
	}

	snapshot := fraud.BehaviorSnapshot{
		AccountAge:      usr.AccountAge(now),
		KYCVerified:     kycStatus.IsVerified(),
		Defaults:        defaults,
		LateCount:       lateCount,
		Completed:       completed,
		HasHistory:      len(userPlans) > 0,
		TxLastHour:      txLastHour,
		AmountDeviation: deviation,
		PriorFraudFlags: priorFlags,
	}

	rc := fraud.RuleContext{
		Amount:              tx.Amount,
		AvgAmount:           avgAmount(history),
		CreditLimit:         creditLimit,
		TxLastHour:          txLastHour,
		DistinctMerchants2h: merchants2h,
		MerchantAgeDays:     merch.AgeDays(now),
		MerchantFraudFlags:  merchantFlags,
		LocalHour:           now.Hour(),
		HasLateNightHistory: lateNight,
	}

	return snapshot, rc, nil
}

func avgAmount(history []*transaction.Transaction) decimal.Decimal {
	if len(history) == 0 {
		return decimal.Zero
	}
	sum := decimal.Zero
	for _, t := range history {
		sum = sum.Add(t.Amount)
	}
	return sum.Div(decimal.NewFromInt(int64(len(history))))
}

func amountStats(history []*transaction.Transaction) (mean, stddev float64) {
	if len(history) == 0 {
		return 0, 0
	}
	var sum float64
	for _, t := range history {
		v, _ := t.Amount.Float64()
		sum += v
	}
	mean = sum / float64(len(history))
	if len(history) < 2 {
		return mean, 0
	}
	var sq float64
	for _, t := range history {
		v, _ := t.Amount.Float64()
		sq += (v - mean) * (v - mean)
	}
	return mean, math.Sqrt(sq / float64(len(history)))
}
