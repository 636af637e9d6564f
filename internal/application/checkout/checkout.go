package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"bnpl-risk-core/internal/application/dto"
	"bnpl-risk-core/internal/domain/credit"
	"bnpl-risk-core/internal/domain/fraud"
	"bnpl-risk-core/internal/domain/notification"
	"bnpl-risk-core/internal/domain/plan"
	"bnpl-risk-core/internal/domain/transaction"
	"bnpl-risk-core/internal/domain/user"
	"bnpl-risk-core/internal/infrastructure/metrics"
	"bnpl-risk-core/internal/pkg/clock"
)

// Store persists checkout outcomes. Implementations must make
// CreateApproved all-or-nothing: a debited account with no transaction,
// or a plan with missing installments, must never be observable.
type Store interface {
	CreateApproved(ctx context.Context, tx *transaction.Transaction, p *plan.PaymentPlan, installments []*plan.Installment) error
	CreateBlocked(ctx context.Context, tx *transaction.Transaction) error
}

// ActivityRecorder feeds the velocity signals fraud scoring reads.
type ActivityRecorder interface {
	RecordCheckout(ctx context.Context, userID, txID, merchantID uuid.UUID, at time.Time) error
	RecordMerchantFlag(ctx context.Context, merchantID uuid.UUID) error
}

// UseCase runs the checkout flow: credit pre-check, synchronous fraud
// gate, then atomic plan creation and account debit.
type UseCase struct {
	store       Store
	fraudEngine *fraud.Engine
	users       user.Repository
	merchants   transaction.MerchantRepository
	accounts    credit.Repository
	activity    ActivityRecorder
	notifier    notification.Notifier
	clock       clock.Clock
	log         *logrus.Logger

	maxInstallments int
}

// NewUseCase creates the checkout use case.
func NewUseCase(
	store Store,
	fraudEngine *fraud.Engine,
	users user.Repository,
	merchants transaction.MerchantRepository,
	accounts credit.Repository,
	activity ActivityRecorder,
	notifier notification.Notifier,
	clk clock.Clock,
	log *logrus.Logger,
	maxInstallments int,
) *UseCase {
	return &UseCase{
		store:           store,
		fraudEngine:     fraudEngine,
		users:           users,
		merchants:       merchants,
		accounts:        accounts,
		activity:        activity,
		notifier:        notifier,
		clock:           clk,
		log:             log,
		maxInstallments: maxInstallments,
	}
}

// Execute processes one checkout attempt. The fraud gate runs before
// any funds move; a BLOCK persists the failed transaction and its audit
// record but touches no credit.
func (uc *UseCase) Execute(ctx context.Context, req *dto.CheckoutRequest) (*dto.CheckoutResponse, error) {
	if req.Installments < 1 || req.Installments > uc.maxInstallments {
		return nil, plan.ErrInvalidInstallmentCount
	}

	usr, err := uc.users.GetByID(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("checkout: %w", err)
	}
	merch, err := uc.merchants.GetByID(ctx, req.MerchantID)
	if err != nil {
		return nil, fmt.Errorf("checkout: %w", err)
	}
	account, err := uc.accounts.GetByUserID(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("checkout: %w", err)
	}

	now := uc.clock.Now()
	tx := transaction.New(req.UserID, req.MerchantID, req.Amount, req.Description, now)
	if err := tx.Validate(); err != nil {
		return nil, err
	}
	if account.AvailableCredit.LessThan(req.Amount) {
		return nil, credit.ErrInsufficientCredit
	}

	// Hard synchronous gate: funds never move before the verdict.
	result, err := uc.fraudEngine.CheckTransaction(ctx, tx, usr, merch)
	if err != nil {
		return nil, fmt.Errorf("fraud gate: %w", err)
	}
	metrics.FraudDecisions.WithLabelValues(string(result.Action)).Inc()
	tx.ApplyFraudSnapshot(result.RiskScore, string(result.Action), result.FlaggedRules, now)

	if result.Action == fraud.ActionBlock {
		if err := tx.BlockForFraud(now); err != nil {
			return nil, err
		}
		if err := uc.store.CreateBlocked(ctx, tx); err != nil {
			return nil, fmt.Errorf("persist blocked transaction: %w", err)
		}
		uc.recordActivity(ctx, tx, result.Action)
		metrics.CheckoutOutcomes.WithLabelValues("blocked").Inc()
		uc.log.WithFields(logrus.Fields{
			"transaction_id": tx.ID,
			"risk_score":     result.RiskScore,
		}).Warn("checkout blocked for fraud")
		return &dto.CheckoutResponse{
			TransactionID: tx.ID,
			Status:        string(tx.Status),
			RiskScore:     result.RiskScore,
			Action:        string(result.Action),
			FlaggedRules:  result.FlaggedRules,
		}, transaction.ErrFraudBlocked
	}

	if result.Action == fraud.ActionFlag {
		if err := tx.Flag(now); err != nil {
			return nil, err
		}
	} else {
		if err := tx.Approve(now); err != nil {
			return nil, err
		}
	}

	p, installments, err := plan.NewPlan(req.UserID, tx.ID, req.Amount, req.Installments, now, now)
	if err != nil {
		return nil, err
	}
	if err := uc.store.CreateApproved(ctx, tx, p, installments); err != nil {
		return nil, fmt.Errorf("persist checkout: %w", err)
	}

	uc.recordActivity(ctx, tx, result.Action)
	metrics.CheckoutOutcomes.WithLabelValues(outcomeLabel(result.Action)).Inc()

	if err := uc.notifier.Notify(ctx, usr.ID, notification.TypePlanCreated,
		fmt.Sprintf("Your purchase of %s is split into %d installments of %s.",
			req.Amount.StringFixed(2), p.NumberOfInstallments, p.InstallmentAmount.StringFixed(2)), nil); err != nil {
		uc.log.WithError(err).WithField("user_id", usr.ID).Warn("notification failed")
	}

	uc.log.WithFields(logrus.Fields{
		"transaction_id": tx.ID,
		"plan_id":        p.ID,
		"action":         result.Action,
	}).Info("checkout complete")

	return &dto.CheckoutResponse{
		TransactionID:     tx.ID,
		Status:            string(tx.Status),
		RiskScore:         result.RiskScore,
		Action:            string(result.Action),
		FlaggedRules:      result.FlaggedRules,
		PlanID:            &p.ID,
		InstallmentAmount: p.InstallmentAmount,
		EndDate:           &p.EndDate,
	}, nil
}

// recordActivity feeds the velocity caches. Best effort: a cache write
// failure degrades future signal quality but never fails the checkout.
func (uc *UseCase) recordActivity(ctx context.Context, tx *transaction.Transaction, action fraud.Action) {
	if err := uc.activity.RecordCheckout(ctx, tx.UserID, tx.ID, tx.MerchantID, tx.CreatedAt); err != nil {
		uc.log.WithError(err).Warn("activity cache write failed")
	}
	if action != fraud.ActionAllow {
		if err := uc.activity.RecordMerchantFlag(ctx, tx.MerchantID); err != nil {
			uc.log.WithError(err).Warn("merchant flag write failed")
		}
	}
}

func outcomeLabel(action fraud.Action) string {
	if action == fraud.ActionFlag {
		return "flagged"
	}
	return "approved"
}
