package plan

import "errors"

var (
	ErrPlanNotFound        = errors.New("payment plan not found")
	ErrInstallmentNotFound = errors.New("installment not found")

	ErrInvalidPlanAmount       = errors.New("plan amount must be positive")
	ErrInvalidInstallmentCount = errors.New("installment count must be at least 1")
	ErrInvalidRescheduleDate   = errors.New("reschedule date must be in the future")
	ErrInvalidPaymentAmount    = errors.New("payment amount must be positive")

	// Policy violations.
	ErrPlanCompleted          = errors.New("plan is already completed")
	ErrPlanDefaulted          = errors.New("defaulted plan requires an administrator")
	ErrRescheduleLimitReached = errors.New("reschedule limit reached")
	ErrAdminRequired          = errors.New("operation requires an administrator role")
	ErrInstallmentAlreadyPaid = errors.New("installment already paid")
)
