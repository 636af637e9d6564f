package plan

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of a payment plan.
type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusLate      Status = "LATE"
	StatusCompleted Status = "COMPLETED"
	StatusDefaulted Status = "DEFAULTED"
)

// InstallmentStatus is the state of one scheduled sub-payment.
type InstallmentStatus string

const (
	InstallmentUpcoming InstallmentStatus = "UPCOMING"
	InstallmentPending  InstallmentStatus = "PENDING"
	InstallmentPaid     InstallmentStatus = "PAID"
	InstallmentLate     InstallmentStatus = "LATE"
)

// PaymentPlan finances one purchase across N installments.
type PaymentPlan struct {
	ID                   uuid.UUID       `json:"id"`
	UserID               uuid.UUID       `json:"user_id"`
	TransactionID        uuid.UUID       `json:"transaction_id"`
	TotalAmount          decimal.Decimal `json:"total_amount"`
	RemainingAmount      decimal.Decimal `json:"remaining_amount"`
	NumberOfInstallments int             `json:"number_of_installments"`
	InstallmentAmount    decimal.Decimal `json:"installment_amount"`
	StartDate            time.Time       `json:"start_date"`
	EndDate              time.Time       `json:"end_date"`
	Status               Status          `json:"status"`

	LateFee         decimal.Decimal `json:"late_fee"`
	DaysLate        int             `json:"days_late"`
	RescheduleCount int             `json:"reschedule_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Installment is one of a plan's N sub-payments. Immutable after
// creation except for status, paidDate and paidAmount.
type Installment struct {
	ID                uuid.UUID         `json:"id"`
	PlanID            uuid.UUID         `json:"plan_id"`
	InstallmentNumber int               `json:"installment_number"`
	Amount            decimal.Decimal   `json:"amount"`
	DueDate           time.Time         `json:"due_date"`
	Status            InstallmentStatus `json:"status"`
	PaidDate          *time.Time        `json:"paid_date,omitempty"`
	PaidAmount        decimal.Decimal   `json:"paid_amount"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// RescheduleRecord is one immutable row in a plan's reschedule log.
type RescheduleRecord struct {
	ID              uuid.UUID       `json:"id"`
	PlanID          uuid.UUID       `json:"plan_id"`
	PreviousEndDate time.Time       `json:"previous_end_date"`
	NewEndDate      time.Time       `json:"new_end_date"`
	Reason          string          `json:"reason"`
	Fee             decimal.Decimal `json:"fee"`
	AdminID         *uuid.UUID      `json:"admin_id,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// NewPlan builds a plan and exactly N installments. Installments are
// due monthly from the start date; the last one absorbs the division
// remainder so the amounts sum exactly to the total.
func NewPlan(userID, transactionID uuid.UUID, total decimal.Decimal, installments int, startDate time.Time, now time.Time) (*PaymentPlan, []*Installment, error) {
	if !total.IsPositive() {
		return nil, nil, ErrInvalidPlanAmount
	}
	if installments < 1 {
		return nil, nil, ErrInvalidInstallmentCount
	}

	n := decimal.NewFromInt(int64(installments))
	perInstallment := total.Div(n).Round(2)
	endDate := startDate.AddDate(0, installments, 0)

	p := &PaymentPlan{
		ID:                   uuid.New(),
		UserID:               userID,
		TransactionID:        transactionID,
		TotalAmount:          total,
		RemainingAmount:      total,
		NumberOfInstallments: installments,
		InstallmentAmount:    perInstallment,
		StartDate:            startDate,
		EndDate:              endDate,
		Status:               StatusActive,
		LateFee:              decimal.Zero,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	rows := make([]*Installment, 0, installments)
	for i := 1; i <= installments; i++ {
		amount := perInstallment
		if i == installments {
			amount = total.Sub(perInstallment.Mul(decimal.NewFromInt(int64(installments - 1))))
		}
		status := InstallmentUpcoming
		if i == 1 {
			status = InstallmentPending
		}
		rows = append(rows, &Installment{
			ID:                uuid.New(),
			PlanID:            p.ID,
			InstallmentNumber: i,
			Amount:            amount,
			DueDate:           startDate.AddDate(0, i, 0),
			Status:            status,
			PaidAmount:        decimal.Zero,
			CreatedAt:         now,
			UpdatedAt:         now,
		})
	}

	return p, rows, nil
}

// DaysPastEnd returns how many whole-or-partial days the plan is past
// its end date, zero if not past it.
func (p *PaymentPlan) DaysPastEnd(now time.Time) int {
	if !now.After(p.EndDate) {
		return 0
	}
	hours := now.Sub(p.EndDate).Hours()
	days := int(hours / 24)
	if hours > float64(days)*24 {
		days++
	}
	return days
}

// MarkLate transitions the plan to LATE and assesses the late fee. The
// fee is set once; re-sweeping a LATE plan only refreshes daysLate.
func (p *PaymentPlan) MarkLate(daysLate int, feePercentage decimal.Decimal, now time.Time) {
	p.Status = StatusLate
	p.DaysLate = daysLate
	p.LateFee = p.InstallmentAmount.Mul(feePercentage).Div(decimal.NewFromInt(100)).Round(2)
	p.UpdatedAt = now
}

// MarkDefaulted transitions the plan to DEFAULTED.
func (p *PaymentPlan) MarkDefaulted(daysLate int, now time.Time) {
	p.Status = StatusDefaulted
	p.DaysLate = daysLate
	p.UpdatedAt = now
}

// ApplyReschedule moves the end date, resets the plan to ACTIVE and
// clears late state. The fee has already been decided by policy.
func (p *PaymentPlan) ApplyReschedule(newEndDate time.Time, fee decimal.Decimal, now time.Time) {
	p.EndDate = newEndDate
	p.Status = StatusActive
	p.LateFee = decimal.Zero
	p.DaysLate = 0
	p.RescheduleCount++
	if fee.IsPositive() {
		p.RemainingAmount = p.RemainingAmount.Add(fee)
	}
	p.UpdatedAt = now
}

// MarkPaid records a capture against the installment.
func (i *Installment) MarkPaid(amount decimal.Decimal, now time.Time) {
	i.Status = InstallmentPaid
	i.PaidDate = &now
	i.PaidAmount = amount
	i.UpdatedAt = now
}
