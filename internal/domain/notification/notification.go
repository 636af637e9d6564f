package notification

import (
	"context"

	"github.com/google/uuid"
)

// Type categorizes outbound notifications so dispatch channels can route them.
type Type string

const (
	TypeLimitAssigned   Type = "credit_limit_assigned"
	TypeLimitChanged    Type = "credit_limit_changed"
	TypePlanCreated     Type = "plan_created"
	TypePaymentReminder Type = "payment_reminder"
	TypePlanLate        Type = "plan_late"
	TypePlanDefaulted   Type = "plan_defaulted"
	TypePlanCompleted   Type = "plan_completed"
	TypePlanRescheduled Type = "plan_rescheduled"
	TypeFraudAlert      Type = "fraud_alert"
	TypeInstallmentPaid Type = "installment_paid"
	TypeKYCUpdated      Type = "kyc_updated"
)

// Notifier dispatches a message to a user. Dispatch is fire-and-forget:
// callers log failures and continue, a failed notification must never
// roll back the operation that produced it.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, notifType Type, message string, data map[string]string) error
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, userID uuid.UUID, notifType Type, message string, data map[string]string) error

// Notify calls the wrapped function.
func (f NotifierFunc) Notify(ctx context.Context, userID uuid.UUID, notifType Type, message string, data map[string]string) error {
	return f(ctx, userID, notifType, message, data)
}
