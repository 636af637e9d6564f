package plan

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Repository provides access to plans, installments and the reschedule
// log. Methods that touch more than one row are atomic.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*PaymentPlan, error)
	ListByStatus(ctx context.Context, statuses ...Status) ([]*PaymentPlan, error)
	ListByUserID(ctx context.Context, userID uuid.UUID) ([]*PaymentPlan, error)
	Update(ctx context.Context, p *PaymentPlan) error

	ListInstallments(ctx context.Context, planID uuid.UUID) ([]*Installment, error)
	ListInstallmentsByUser(ctx context.Context, userID uuid.UUID) ([]*Installment, error)
	UpdateInstallment(ctx context.Context, inst *Installment) error

	// AppendReschedule persists the plan update and the log row together.
	AppendReschedule(ctx context.Context, p *PaymentPlan, rec *RescheduleRecord) error
	ListReschedules(ctx context.Context, planID uuid.UUID) ([]*RescheduleRecord, error)

	// SavePayment persists the plan and installment updates and releases
	// the captured amount back to the user's available credit, all in
	// one atomic write.
	SavePayment(ctx context.Context, p *PaymentPlan, inst *Installment, released decimal.Decimal) error
}
