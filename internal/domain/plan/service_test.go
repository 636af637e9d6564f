package plan

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bnpl-risk-core/internal/domain/notification"
	"bnpl-risk-core/internal/domain/user"
	"bnpl-risk-core/internal/pkg/clock"
)

type fakePlanRepo struct {
	plans        map[uuid.UUID]*PaymentPlan
	installments map[uuid.UUID][]*Installment
	reschedules  map[uuid.UUID][]*RescheduleRecord
	released     []decimal.Decimal
}

func newFakePlanRepo() *fakePlanRepo {
	return &fakePlanRepo{
		plans:        make(map[uuid.UUID]*PaymentPlan),
		installments: make(map[uuid.UUID][]*Installment),
		reschedules:  make(map[uuid.UUID][]*RescheduleRecord),
	}
}

func (r *fakePlanRepo) add(p *PaymentPlan, installments []*Installment) {
	r.plans[p.ID] = p
	r.installments[p.ID] = installments
}

func (r *fakePlanRepo) GetByID(_ context.Context, id uuid.UUID) (*PaymentPlan, error) {
	if p, ok := r.plans[id]; ok {
		return p, nil
	}
	return nil, ErrPlanNotFound
}

func (r *fakePlanRepo) ListByStatus(_ context.Context, statuses ...Status) ([]*PaymentPlan, error) {
	var out []*PaymentPlan
	for _, p := range r.plans {
		for _, s := range statuses {
			if p.Status == s {
				out = append(out, p)
			}
		}
	}
	return out, nil
}

func (r *fakePlanRepo) ListByUserID(_ context.Context, userID uuid.UUID) ([]*PaymentPlan, error) {
	var out []*PaymentPlan
	for _, p := range r.plans {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakePlanRepo) Update(_ context.Context, p *PaymentPlan) error {
	r.plans[p.ID] = p
	return nil
}

func (r *fakePlanRepo) ListInstallments(_ context.Context, planID uuid.UUID) ([]*Installment, error) {
	return r.installments[planID], nil
}

func (r *fakePlanRepo) ListInstallmentsByUser(_ context.Context, userID uuid.UUID) ([]*Installment, error) {
	var out []*Installment
	for planID, rows := range r.installments {
		if p, ok := r.plans[planID]; ok && p.UserID == userID {
			out = append(out, rows...)
		}
	}
	return out, nil
}

func (r *fakePlanRepo) UpdateInstallment(context.Context, *Installment) error {
	return nil
}

func (r *fakePlanRepo) AppendReschedule(_ context.Context, p *PaymentPlan, rec *RescheduleRecord) error {
	r.plans[p.ID] = p
	r.reschedules[p.ID] = append(r.reschedules[p.ID], rec)
	return nil
}

func (r *fakePlanRepo) ListReschedules(_ context.Context, planID uuid.UUID) ([]*RescheduleRecord, error) {
	return r.reschedules[planID], nil
}

func (r *fakePlanRepo) SavePayment(_ context.Context, p *PaymentPlan, _ *Installment, released decimal.Decimal) error {
	r.plans[p.ID] = p
	r.released = append(r.released, released)
	return nil
}

type staffRepo struct {
	users map[uuid.UUID]*user.User
}

func (r *staffRepo) GetByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	if u, ok := r.users[id]; ok {
		return u, nil
	}
	return nil, user.ErrUserNotFound
}

func (r *staffRepo) ListByRoles(_ context.Context, roles ...user.Role) ([]*user.User, error) {
	var out []*user.User
	for _, u := range r.users {
		for _, role := range roles {
			if u.Role == role {
				out = append(out, u)
			}
		}
	}
	return out, nil
}

type capturedNotification struct {
	userID uuid.UUID
	typ    notification.Type
}

type captureNotifier struct {
	sent []capturedNotification
}

func (n *captureNotifier) Notify(_ context.Context, userID uuid.UUID, typ notification.Type, _ string, _ map[string]string) error {
	n.sent = append(n.sent, capturedNotification{userID: userID, typ: typ})
	return nil
}

func (n *captureNotifier) countOf(typ notification.Type) int {
	count := 0
	for _, s := range n.sent {
		if s.typ == typ {
			count++
		}
	}
	return count
}

func silentLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func planFixture(t *testing.T, repo *fakePlanRepo, endDate time.Time) *PaymentPlan {
	t.Helper()
	start := endDate.AddDate(0, -3, 0)
	p, installments, err := NewPlan(uuid.New(), uuid.New(), decimal.NewFromInt(900), 3, start, start)
	require.NoError(t, err)
	repo.add(p, installments)
	return p
}

func sweepEngine(repo *fakePlanRepo, users *staffRepo, notifier *captureNotifier, now time.Time) *Engine {
	return NewEngine(DefaultConfig(), repo, users, notifier, clock.NewFixed(now), silentLogger())
}

func TestSweepGracePeriod(t *testing.T) {
	end := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

	t.Run("inside grace sends a reminder only", func(t *testing.T) {
		repo := newFakePlanRepo()
		notifier := &captureNotifier{}
		p := planFixture(t, repo, end)
		engine := sweepEngine(repo, &staffRepo{}, notifier, end.Add(3*24*time.Hour))

		summary, err := engine.RunDailySweep(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, summary.Reminded)
		assert.Zero(t, summary.MarkedLate)
		assert.Equal(t, StatusActive, repo.plans[p.ID].Status)
		assert.Equal(t, 1, notifier.countOf(notification.TypePaymentReminder))
	})

	t.Run("one day past grace marks late with fee", func(t *testing.T) {
		repo := newFakePlanRepo()
		notifier := &captureNotifier{}
		p := planFixture(t, repo, end)
		engine := sweepEngine(repo, &staffRepo{}, notifier, end.Add(4*24*time.Hour))

		summary, err := engine.RunDailySweep(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, summary.MarkedLate)

		got := repo.plans[p.ID]
		assert.Equal(t, StatusLate, got.Status)
		assert.Equal(t, 4, got.DaysLate)
		// 5% of the 300 installment.
		assert.True(t, got.LateFee.Equal(decimal.NewFromInt(15)), "got %s", got.LateFee)
		assert.Equal(t, 1, notifier.countOf(notification.TypePlanLate))
	})

	t.Run("plan not yet past end is untouched", func(t *testing.T) {
		repo := newFakePlanRepo()
		notifier := &captureNotifier{}
		planFixture(t, repo, end)
		engine := sweepEngine(repo, &staffRepo{}, notifier, end.Add(-time.Hour))

		summary, err := engine.RunDailySweep(context.Background())
		require.NoError(t, err)
		assert.Zero(t, summary.Examined)
		assert.Empty(t, notifier.sent)
	})
}

func TestSweepDefault(t *testing.T) {
	end := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

	t.Run("exactly at the default period stays late", func(t *testing.T) {
		repo := newFakePlanRepo()
		notifier := &captureNotifier{}
		p := planFixture(t, repo, end)
		p.MarkLate(5, decimal.NewFromInt(5), end.Add(5*24*time.Hour))
		engine := sweepEngine(repo, &staffRepo{}, notifier, end.Add(30*24*time.Hour))

		summary, err := engine.RunDailySweep(context.Background())
		require.NoError(t, err)
		assert.Zero(t, summary.Defaulted)
		assert.Equal(t, StatusLate, repo.plans[p.ID].Status)
		assert.Equal(t, 30, repo.plans[p.ID].DaysLate, "daysLate refreshes on re-sweep")
	})

	t.Run("one day more defaults and alerts staff", func(t *testing.T) {
		repo := newFakePlanRepo()
		notifier := &captureNotifier{}
		adminID := uuid.New()
		users := &staffRepo{users: map[uuid.UUID]*user.User{
			adminID: {ID: adminID, Role: user.RoleAdmin},
		}}
		p := planFixture(t, repo, end)
		p.MarkLate(5, decimal.NewFromInt(5), end.Add(5*24*time.Hour))
		engine := sweepEngine(repo, users, notifier, end.Add(31*24*time.Hour))

		summary, err := engine.RunDailySweep(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, summary.Defaulted)
		assert.Equal(t, StatusDefaulted, repo.plans[p.ID].Status)
		// User and the admin each get a notification.
		assert.Equal(t, 2, notifier.countOf(notification.TypePlanDefaulted))
	})

	t.Run("re-sweeping is idempotent", func(t *testing.T) {
		repo := newFakePlanRepo()
		notifier := &captureNotifier{}
		p := planFixture(t, repo, end)
		engine := sweepEngine(repo, &staffRepo{}, notifier, end.Add(5*24*time.Hour))

		_, err := engine.RunDailySweep(context.Background())
		require.NoError(t, err)
		firstFee := repo.plans[p.ID].LateFee

		_, err = engine.RunDailySweep(context.Background())
		require.NoError(t, err)
		assert.True(t, repo.plans[p.ID].LateFee.Equal(firstFee), "fee is assessed once")
		assert.Equal(t, 1, notifier.countOf(notification.TypePlanLate), "no duplicate transition notice")
	})
}

func TestReschedulePolicy(t *testing.T) {
	end := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	now := end.Add(24 * time.Hour)
	newEnd := end.AddDate(0, 1, 0)
	adminID := uuid.New()
	customerID := uuid.New()
	users := &staffRepo{users: map[uuid.UUID]*user.User{
		adminID:    {ID: adminID, Role: user.RoleAdmin},
		customerID: {ID: customerID, Role: user.RoleCustomer},
	}}

	t.Run("self-service charges the fee", func(t *testing.T) {
		repo := newFakePlanRepo()
		p := planFixture(t, repo, end)
		engine := sweepEngine(repo, users, &captureNotifier{}, now)

		rec, err := engine.Reschedule(context.Background(), p.ID, newEnd, "cash flow", nil)
		require.NoError(t, err)
		// 2% of the 300 installment.
		assert.True(t, rec.Fee.Equal(decimal.NewFromInt(6)), "got %s", rec.Fee)
		assert.True(t, repo.plans[p.ID].RemainingAmount.Equal(decimal.NewFromInt(906)))
		assert.Equal(t, 1, repo.plans[p.ID].RescheduleCount)
	})

	t.Run("admin involvement waives the fee", func(t *testing.T) {
		repo := newFakePlanRepo()
		p := planFixture(t, repo, end)
		engine := sweepEngine(repo, users, &captureNotifier{}, now)

		rec, err := engine.Reschedule(context.Background(), p.ID, newEnd, "hardship", &adminID)
		require.NoError(t, err)
		assert.True(t, rec.Fee.IsZero())
		assert.True(t, repo.plans[p.ID].RemainingAmount.Equal(decimal.NewFromInt(900)))
	})

	t.Run("non-staff admin id is rejected", func(t *testing.T) {
		repo := newFakePlanRepo()
		p := planFixture(t, repo, end)
		engine := sweepEngine(repo, users, &captureNotifier{}, now)

		_, err := engine.Reschedule(context.Background(), p.ID, newEnd, "nope", &customerID)
		assert.ErrorIs(t, err, ErrAdminRequired)
	})

	t.Run("completed plan never reschedules", func(t *testing.T) {
		repo := newFakePlanRepo()
		p := planFixture(t, repo, end)
		p.Status = StatusCompleted
		engine := sweepEngine(repo, users, &captureNotifier{}, now)

		_, err := engine.Reschedule(context.Background(), p.ID, newEnd, "", &adminID)
		assert.ErrorIs(t, err, ErrPlanCompleted)
	})

	t.Run("defaulted plan needs an admin", func(t *testing.T) {
		repo := newFakePlanRepo()
		p := planFixture(t, repo, end)
		p.Status = StatusDefaulted
		engine := sweepEngine(repo, users, &captureNotifier{}, now)

		_, err := engine.Reschedule(context.Background(), p.ID, newEnd, "", nil)
		assert.ErrorIs(t, err, ErrPlanDefaulted)

		rec, err := engine.Reschedule(context.Background(), p.ID, newEnd, "recovery", &adminID)
		require.NoError(t, err)
		assert.True(t, rec.Fee.IsZero())
		assert.Equal(t, StatusActive, repo.plans[p.ID].Status)
	})

	t.Run("past date is rejected", func(t *testing.T) {
		repo := newFakePlanRepo()
		p := planFixture(t, repo, end)
		engine := sweepEngine(repo, users, &captureNotifier{}, now)

		_, err := engine.Reschedule(context.Background(), p.ID, now.Add(-time.Hour), "", nil)
		assert.ErrorIs(t, err, ErrInvalidRescheduleDate)
	})

	t.Run("self-service limit, admin override", func(t *testing.T) {
		repo := newFakePlanRepo()
		p := planFixture(t, repo, end)
		p.RescheduleCount = 3
		engine := sweepEngine(repo, users, &captureNotifier{}, now)

		_, err := engine.Reschedule(context.Background(), p.ID, newEnd, "", nil)
		assert.ErrorIs(t, err, ErrRescheduleLimitReached)

		_, err = engine.Reschedule(context.Background(), p.ID, newEnd, "override", &adminID)
		assert.NoError(t, err)
	})
}

func TestRescheduleHistory(t *testing.T) {
	end := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	now := end.Add(24 * time.Hour)
	repo := newFakePlanRepo()
	p := planFixture(t, repo, end)
	engine := sweepEngine(repo, &staffRepo{}, &captureNotifier{}, now)

	_, err := engine.Reschedule(context.Background(), p.ID, end.AddDate(0, 1, 0), "first", nil)
	require.NoError(t, err)
	_, err = engine.Reschedule(context.Background(), p.ID, end.AddDate(0, 2, 0), "second", nil)
	require.NoError(t, err)

	records, remaining, err := engine.RescheduleHistory(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, 1, remaining)
	assert.Equal(t, "first", records[0].Reason)
}

func TestRecordPayment(t *testing.T) {
	end := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	now := end.Add(-30 * 24 * time.Hour)

	t.Run("payment reduces balance and releases credit", func(t *testing.T) {
		repo := newFakePlanRepo()
		notifier := &captureNotifier{}
		p := planFixture(t, repo, end)
		engine := sweepEngine(repo, &staffRepo{}, notifier, now)

		err := engine.RecordPayment(context.Background(), p.ID, 1, decimal.NewFromInt(300))
		require.NoError(t, err)
		assert.True(t, repo.plans[p.ID].RemainingAmount.Equal(decimal.NewFromInt(600)))
		assert.Equal(t, StatusActive, repo.plans[p.ID].Status)
		require.Len(t, repo.released, 1)
		assert.True(t, repo.released[0].Equal(decimal.NewFromInt(300)))
		assert.Equal(t, 1, notifier.countOf(notification.TypeInstallmentPaid))
	})

	t.Run("final payment completes the plan", func(t *testing.T) {
		repo := newFakePlanRepo()
		notifier := &captureNotifier{}
		p := planFixture(t, repo, end)
		engine := sweepEngine(repo, &staffRepo{}, notifier, now)

		for i := 1; i <= 3; i++ {
			require.NoError(t, engine.RecordPayment(context.Background(), p.ID, i, decimal.NewFromInt(300)))
		}
		assert.Equal(t, StatusCompleted, repo.plans[p.ID].Status)
		assert.True(t, repo.plans[p.ID].RemainingAmount.IsZero())
		assert.Equal(t, 1, notifier.countOf(notification.TypePlanCompleted))
	})

	t.Run("double payment of an installment is rejected", func(t *testing.T) {
		repo := newFakePlanRepo()
		p := planFixture(t, repo, end)
		engine := sweepEngine(repo, &staffRepo{}, &captureNotifier{}, now)

		require.NoError(t, engine.RecordPayment(context.Background(), p.ID, 1, decimal.NewFromInt(300)))
		err := engine.RecordPayment(context.Background(), p.ID, 1, decimal.NewFromInt(300))
		assert.ErrorIs(t, err, ErrInstallmentAlreadyPaid)
	})

	t.Run("invalid targets", func(t *testing.T) {
		repo := newFakePlanRepo()
		p := planFixture(t, repo, end)
		engine := sweepEngine(repo, &staffRepo{}, &captureNotifier{}, now)

		err := engine.RecordPayment(context.Background(), p.ID, 9, decimal.NewFromInt(300))
		assert.ErrorIs(t, err, ErrInstallmentNotFound)
		err = engine.RecordPayment(context.Background(), p.ID, 1, decimal.Zero)
		assert.ErrorIs(t, err, ErrInvalidPaymentAmount)
		err = engine.RecordPayment(context.Background(), uuid.New(), 1, decimal.NewFromInt(300))
		assert.ErrorIs(t, err, ErrPlanNotFound)
	})

	t.Run("terminal plans reject payments", func(t *testing.T) {
		repo := newFakePlanRepo()
		p := planFixture(t, repo, end)
		p.Status = StatusDefaulted
		engine := sweepEngine(repo, &staffRepo{}, &captureNotifier{}, now)

		err := engine.RecordPayment(context.Background(), p.ID, 1, decimal.NewFromInt(300))
		assert.ErrorIs(t, err, ErrPlanDefaulted)
	})
}

func TestPaymentStatsFor(t *testing.T) {
	repo := newFakePlanRepo()
	userID := uuid.New()
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	due := now.AddDate(0, -2, 0)

	paidOn := due
	paidLate := due.Add(5 * 24 * time.Hour)
	paidVeryLate := due.Add(40 * 24 * time.Hour)

	p := &PaymentPlan{ID: uuid.New(), UserID: userID, Status: StatusActive}
	repo.plans[p.ID] = p
	repo.installments[p.ID] = []*Installment{
		{PlanID: p.ID, InstallmentNumber: 1, DueDate: due, Status: InstallmentPaid, PaidDate: &paidOn},
		{PlanID: p.ID, InstallmentNumber: 2, DueDate: due, Status: InstallmentPaid, PaidDate: &paidLate},
		{PlanID: p.ID, InstallmentNumber: 3, DueDate: due, Status: InstallmentPaid, PaidDate: &paidVeryLate},
		{PlanID: p.ID, InstallmentNumber: 4, DueDate: due, Status: InstallmentLate},
	}

	engine := sweepEngine(repo, &staffRepo{}, &captureNotifier{}, now)
	total, late, missed, err := engine.PaymentStatsFor(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	assert.Equal(t, 1, late, "paid five days after due")
	assert.Equal(t, 2, missed, "paid 40 days late plus unpaid 60 days past due")
}
