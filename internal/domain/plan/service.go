package plan

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"bnpl-risk-core/internal/domain/notification"
	"bnpl-risk-core/internal/domain/user"
	"bnpl-risk-core/internal/pkg/clock"
)

// Config holds the lifecycle policy knobs.
type Config struct {
	GracePeriodDays         int
	DefaultPeriodDays       int
	LateFeePercentage       decimal.Decimal
	RescheduleFeePercentage decimal.Decimal
	MaxReschedulesAllowed   int
}

// DefaultConfig returns the standard lifecycle policy.
func DefaultConfig() Config {
	return Config{
		GracePeriodDays:         3,
		DefaultPeriodDays:       30,
		LateFeePercentage:       decimal.NewFromInt(5),
		RescheduleFeePercentage: decimal.NewFromInt(2),
		MaxReschedulesAllowed:   3,
	}
}

// SweepSummary reports what one sweep pass did.
type SweepSummary struct {
	Examined   int `json:"examined"`
	Reminded   int `json:"reminded"`
	MarkedLate int `json:"marked_late"`
	Defaulted  int `json:"defaulted"`
}

// Engine advances plans through their lifecycle and handles
// rescheduling and payment capture.
type Engine struct {
	cfg      Config
	plans    Repository
	users    user.Repository
	notifier notification.Notifier
	clock    clock.Clock
	log      *logrus.Logger
}

// NewEngine creates a plan lifecycle engine.
func NewEngine(
	cfg Config,
	plans Repository,
	users user.Repository,
	notifier notification.Notifier,
	clk clock.Clock,
	log *logrus.Logger,
) *Engine {
	return &Engine{
		cfg:      cfg,
		plans:    plans,
		users:    users,
		notifier: notifier,
		clock:    clk,
		log:      log,
	}
}

// RunDailySweep advances ACTIVE plans past their end date through grace
// and into LATE, and LATE plans past the default period into DEFAULTED.
// The sweep is idempotent: re-running it on the same day only refreshes
// daysLate and sends no duplicate state transitions.
func (e *Engine) RunDailySweep(ctx context.Context) (SweepSummary, error) {
	now := e.clock.Now()
	var summary SweepSummary

	active, err := e.plans.ListByStatus(ctx, StatusActive)
	if err != nil {
		return summary, fmt.Errorf("list active plans: %w", err)
	}
	for _, p := range active {
		daysLate := p.DaysPastEnd(now)
		if daysLate == 0 {
			continue
		}
		summary.Examined++
		if daysLate <= e.cfg.GracePeriodDays {
			e.notify(ctx, p.UserID, notification.TypePaymentReminder,
				fmt.Sprintf("Your payment plan is %d day(s) past due. Please pay within the grace period to avoid a late fee.", daysLate))
			summary.Reminded++
			continue
		}
		p.MarkLate(daysLate, e.cfg.LateFeePercentage, now)
		e.markOverdueInstallments(ctx, p, now)
		if err := e.plans.Update(ctx, p); err != nil {
			return summary, fmt.Errorf("mark plan %s late: %w", p.ID, err)
		}
		e.notify(ctx, p.UserID, notification.TypePlanLate,
			fmt.Sprintf("Your payment plan is %d days late. A late fee of %s has been applied.", daysLate, p.LateFee.StringFixed(2)))
		summary.MarkedLate++
		e.log.WithFields(logrus.Fields{"plan_id": p.ID, "days_late": daysLate}).Info("plan marked late")
	}

	late, err := e.plans.ListByStatus(ctx, StatusLate)
	if err != nil {
		return summary, fmt.Errorf("list late plans: %w", err)
	}
	for _, p := range late {
		daysLate := p.DaysPastEnd(now)
		summary.Examined++
		if daysLate <= e.cfg.DefaultPeriodDays {
			if daysLate != p.DaysLate {
				p.DaysLate = daysLate
				p.UpdatedAt = now
				if err := e.plans.Update(ctx, p); err != nil {
					return summary, fmt.Errorf("refresh plan %s: %w", p.ID, err)
				}
			}
			continue
		}
		p.MarkDefaulted(daysLate, now)
		if err := e.plans.Update(ctx, p); err != nil {
			return summary, fmt.Errorf("default plan %s: %w", p.ID, err)
		}
		e.notify(ctx, p.UserID, notification.TypePlanDefaulted,
			"Your payment plan has defaulted. Please contact support.")
		e.alertStaff(ctx, p)
		summary.Defaulted++
		e.log.WithFields(logrus.Fields{"plan_id": p.ID, "days_late": daysLate}).Warn("plan defaulted")
	}

	return summary, nil
}

// Reschedule moves a plan's end date. Completed plans cannot be
// rescheduled; defaulted plans and plans past the reschedule limit need
// an administrator, whose involvement also waives the fee.
func (e *Engine) Reschedule(ctx context.Context, planID uuid.UUID, newEndDate time.Time, reason string, adminID *uuid.UUID) (*RescheduleRecord, error) {
	p, err := e.plans.GetByID(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("reschedule: %w", err)
	}

	now := e.clock.Now()
	switch {
	case p.Status == StatusCompleted:
		return nil, ErrPlanCompleted
	case !newEndDate.After(now):
		return nil, ErrInvalidRescheduleDate
	}

	isAdmin := false
	if adminID != nil {
		admin, err := e.users.GetByID(ctx, *adminID)
		if err != nil {
			return nil, fmt.Errorf("reschedule: %w", err)
		}
		if !admin.IsStaff() {
			return nil, ErrAdminRequired
		}
		isAdmin = true
	}

	if p.Status == StatusDefaulted && !isAdmin {
		return nil, ErrPlanDefaulted
	}
	if !isAdmin && p.RescheduleCount >= e.cfg.MaxReschedulesAllowed {
		return nil, ErrRescheduleLimitReached
	}

	fee := decimal.Zero
	if !isAdmin {
		fee = p.InstallmentAmount.Mul(e.cfg.RescheduleFeePercentage).Div(decimal.NewFromInt(100)).Round(2)
	}

	previousEnd := p.EndDate
	p.ApplyReschedule(newEndDate, fee, now)
	rec := &RescheduleRecord{
		ID:              uuid.New(),
		PlanID:          p.ID,
		PreviousEndDate: previousEnd,
		NewEndDate:      newEndDate,
		Reason:          reason,
		Fee:             fee,
		AdminID:         adminID,
		CreatedAt:       now,
	}
	if err := e.plans.AppendReschedule(ctx, p, rec); err != nil {
		return nil, fmt.Errorf("persist reschedule: %w", err)
	}

	e.notify(ctx, p.UserID, notification.TypePlanRescheduled,
		fmt.Sprintf("Your payment plan end date moved to %s. Fee: %s", newEndDate.Format("2006-01-02"), fee.StringFixed(2)))
	if adminID != nil {
		e.notify(ctx, *adminID, notification.TypePlanRescheduled,
			fmt.Sprintf("Plan %s rescheduled to %s", p.ID, newEndDate.Format("2006-01-02")))
	}

	e.log.WithFields(logrus.Fields{"plan_id": p.ID, "new_end_date": newEndDate, "fee": fee.String()}).Info("plan rescheduled")
	return rec, nil
}

// RescheduleHistory returns the plan's reschedule log and how many
// self-service reschedules remain.
func (e *Engine) RescheduleHistory(ctx context.Context, planID uuid.UUID) ([]*RescheduleRecord, int, error) {
	p, err := e.plans.GetByID(ctx, planID)
	if err != nil {
		return nil, 0, fmt.Errorf("reschedule history: %w", err)
	}
	records, err := e.plans.ListReschedules(ctx, planID)
	if err != nil {
		return nil, 0, fmt.Errorf("reschedule history: %w", err)
	}
	remaining := e.cfg.MaxReschedulesAllowed - p.RescheduleCount
	if remaining < 0 {
		remaining = 0
	}
	return records, remaining, nil
}

// RecordPayment marks an installment captured, reduces the plan's
// remaining amount, releases the captured amount back to the user's
// available credit and completes the plan when nothing remains. Payment
// capture itself happens outside the core; this is its landing point.
func (e *Engine) RecordPayment(ctx context.Context, planID uuid.UUID, installmentNumber int, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidPaymentAmount
	}
	p, err := e.plans.GetByID(ctx, planID)
	if err != nil {
		return fmt.Errorf("record payment: %w", err)
	}
	if p.Status == StatusCompleted {
		return ErrPlanCompleted
	}
	if p.Status == StatusDefaulted {
		return ErrPlanDefaulted
	}

	installments, err := e.plans.ListInstallments(ctx, planID)
	if err != nil {
		return fmt.Errorf("record payment: %w", err)
	}
	var target *Installment
	for _, inst := range installments {
		if inst.InstallmentNumber == installmentNumber {
			target = inst
			break
		}
	}
	if target == nil {
		return ErrInstallmentNotFound
	}
	if target.Status == InstallmentPaid {
		return ErrInstallmentAlreadyPaid
	}

	now := e.clock.Now()
	target.MarkPaid(amount, now)
	p.RemainingAmount = p.RemainingAmount.Sub(amount)
	p.UpdatedAt = now
	completed := !p.RemainingAmount.IsPositive()
	if completed {
		p.Status = StatusCompleted
	}

	if err := e.plans.SavePayment(ctx, p, target, amount); err != nil {
		return fmt.Errorf("persist payment: %w", err)
	}

	e.notify(ctx, p.UserID, notification.TypeInstallmentPaid,
		fmt.Sprintf("Payment of %s received for installment %d.", amount.StringFixed(2), installmentNumber))
	if completed {
		e.notify(ctx, p.UserID, notification.TypePlanCompleted,
			"Congratulations, your payment plan is fully paid.")
	}
	return nil
}

// PaymentStatsFor derives late/missed counts from a user's full
// installment history. Late means paid 1-30 days after the due date;
// missed means paid later than that or still unpaid 30 days past due.
func (e *Engine) PaymentStatsFor(ctx context.Context, userID uuid.UUID) (total, late, missed int, err error) {
	installments, err := e.plans.ListInstallmentsByUser(ctx, userID)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("installment history: %w", err)
	}
	now := e.clock.Now()
	for _, inst := range installments {
		total++
		if inst.PaidDate != nil {
			daysAfter := int(inst.PaidDate.Sub(inst.DueDate).Hours() / 24)
			switch {
			case daysAfter > 30:
				missed++
			case daysAfter >= 1:
				late++
			}
			continue
		}
		if now.Sub(inst.DueDate).Hours() > 30*24 {
			missed++
		}
	}
	return total, late, missed, nil
}

// markOverdueInstallments flips unpaid installments past due to LATE.
// Failures here do not abort the sweep; the plan transition is the
// source of truth.
func (e *Engine) markOverdueInstallments(ctx context.Context, p *PaymentPlan, now time.Time) {
	installments, err := e.plans.ListInstallments(ctx, p.ID)
	if err != nil {
		e.log.WithError(err).WithField("plan_id", p.ID).Warn("could not load installments")
		return
	}
	for _, inst := range installments {
		if inst.Status == InstallmentPaid || inst.Status == InstallmentLate {
			continue
		}
		if now.After(inst.DueDate) {
			inst.Status = InstallmentLate
			inst.UpdatedAt = now
			if err := e.plans.UpdateInstallment(ctx, inst); err != nil {
				e.log.WithError(err).WithField("installment_id", inst.ID).Warn("could not mark installment late")
			}
		}
	}
}

func (e *Engine) alertStaff(ctx context.Context, p *PaymentPlan) {
	staff, err := e.users.ListByRoles(ctx, user.RoleAdmin, user.RoleCreditManager)
	if err != nil {
		e.log.WithError(err).Warn("could not list staff for default alert")
		return
	}
	msg := fmt.Sprintf("Plan %s (user %s) has defaulted with %s outstanding.", p.ID, p.UserID, p.RemainingAmount.StringFixed(2))
	for _, s := range staff {
		e.notify(ctx, s.ID, notification.TypePlanDefaulted, msg)
	}
}

func (e *Engine) notify(ctx context.Context, userID uuid.UUID, typ notification.Type, msg string) {
	if err := e.notifier.Notify(ctx, userID, typ, msg, nil); err != nil {
		e.log.WithError(err).WithField("user_id", userID).Warn("notification failed")
	}
}
