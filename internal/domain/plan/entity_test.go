package plan

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPlanSplitsAmountExactly(t *testing.T) {
	start := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)

	t.Run("even split", func(t *testing.T) {
		p, installments, err := NewPlan(uuid.New(), uuid.New(), decimal.NewFromInt(900), 3, start, start)
		require.NoError(t, err)
		require.Len(t, installments, 3)
		assert.Equal(t, "300", p.InstallmentAmount.String())
		for _, inst := range installments {
			assert.True(t, inst.Amount.Equal(decimal.NewFromInt(300)))
		}
	})

	t.Run("remainder lands on the last installment", func(t *testing.T) {
		p, installments, err := NewPlan(uuid.New(), uuid.New(), decimal.NewFromInt(1000), 3, start, start)
		require.NoError(t, err)
		require.Len(t, installments, 3)

		sum := decimal.Zero
		for _, inst := range installments {
			sum = sum.Add(inst.Amount)
		}
		assert.True(t, sum.Equal(p.TotalAmount), "installments must sum exactly to the total, got %s", sum)
		assert.True(t, installments[0].Amount.Equal(decimal.NewFromFloat(333.33)))
		assert.True(t, installments[2].Amount.Equal(decimal.NewFromFloat(333.34)))
	})

	t.Run("monthly due dates and end date", func(t *testing.T) {
		p, installments, err := NewPlan(uuid.New(), uuid.New(), decimal.NewFromInt(600), 2, start, start)
		require.NoError(t, err)
		assert.Equal(t, start.AddDate(0, 1, 0), installments[0].DueDate)
		assert.Equal(t, start.AddDate(0, 2, 0), installments[1].DueDate)
		assert.Equal(t, start.AddDate(0, 2, 0), p.EndDate)
	})

	t.Run("first installment is pending, rest upcoming", func(t *testing.T) {
		_, installments, err := NewPlan(uuid.New(), uuid.New(), decimal.NewFromInt(600), 3, start, start)
		require.NoError(t, err)
		assert.Equal(t, InstallmentPending, installments[0].Status)
		assert.Equal(t, InstallmentUpcoming, installments[1].Status)
		assert.Equal(t, InstallmentUpcoming, installments[2].Status)
	})

	t.Run("rejects bad inputs", func(t *testing.T) {
		_, _, err := NewPlan(uuid.New(), uuid.New(), decimal.Zero, 3, start, start)
		assert.ErrorIs(t, err, ErrInvalidPlanAmount)
		_, _, err = NewPlan(uuid.New(), uuid.New(), decimal.NewFromInt(-100), 3, start, start)
		assert.ErrorIs(t, err, ErrInvalidPlanAmount)
		_, _, err = NewPlan(uuid.New(), uuid.New(), decimal.NewFromInt(600), 0, start, start)
		assert.ErrorIs(t, err, ErrInvalidInstallmentCount)
	})
}

func TestDaysPastEnd(t *testing.T) {
	end := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	p := &PaymentPlan{EndDate: end}

	assert.Equal(t, 0, p.DaysPastEnd(end.Add(-time.Hour)))
	assert.Equal(t, 0, p.DaysPastEnd(end))
	assert.Equal(t, 1, p.DaysPastEnd(end.Add(time.Hour)), "a partial day counts")
	assert.Equal(t, 1, p.DaysPastEnd(end.Add(24*time.Hour)))
	assert.Equal(t, 4, p.DaysPastEnd(end.Add(4*24*time.Hour)))
	assert.Equal(t, 5, p.DaysPastEnd(end.Add(4*24*time.Hour+time.Minute)))
}

func TestMarkLateAssessesFee(t *testing.T) {
	now := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	p := &PaymentPlan{
		Status:            StatusActive,
		InstallmentAmount: decimal.NewFromFloat(333.33),
	}
	p.MarkLate(4, decimal.NewFromInt(5), now)
	assert.Equal(t, StatusLate, p.Status)
	assert.Equal(t, 4, p.DaysLate)
	// 5% of 333.33 rounded to cents.
	assert.True(t, p.LateFee.Equal(decimal.NewFromFloat(16.67)), "got %s", p.LateFee)
}

func TestApplyRescheduleResetsLateState(t *testing.T) {
	now := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	newEnd := now.AddDate(0, 1, 0)
	p := &PaymentPlan{
		Status:          StatusLate,
		RemainingAmount: decimal.NewFromInt(500),
		LateFee:         decimal.NewFromInt(25),
		DaysLate:        7,
	}

	fee := decimal.NewFromInt(10)
	p.ApplyReschedule(newEnd, fee, now)

	assert.Equal(t, StatusActive, p.Status)
	assert.Equal(t, newEnd, p.EndDate)
	assert.True(t, p.LateFee.IsZero())
	assert.Zero(t, p.DaysLate)
	assert.Equal(t, 1, p.RescheduleCount)
	assert.True(t, p.RemainingAmount.Equal(decimal.NewFromInt(510)), "fee is added to the balance")
}

func TestApplyRescheduleWaivedFeeLeavesBalance(t *testing.T) {
	now := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	p := &PaymentPlan{Status: StatusDefaulted, RemainingAmount: decimal.NewFromInt(500)}

	p.ApplyReschedule(now.AddDate(0, 2, 0), decimal.Zero, now)
	assert.True(t, p.RemainingAmount.Equal(decimal.NewFromInt(500)))
}
