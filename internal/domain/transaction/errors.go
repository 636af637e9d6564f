package transaction

import "errors"

var (
	ErrTransactionNotFound     = errors.New("transaction not found")
	ErrMerchantNotFound        = errors.New("merchant not found")
	ErrInvalidTransactionID    = errors.New("invalid transaction id")
	ErrInvalidUserID           = errors.New("invalid user id")
	ErrInvalidMerchantID       = errors.New("invalid merchant id")
	ErrInvalidAmount           = errors.New("transaction amount must be positive")
	ErrInvalidStatusTransition = errors.New("invalid transaction status transition")

	// ErrFraudBlocked is distinct from generic failures so callers can
	// surface a support-contact message instead of a retry prompt.
	ErrFraudBlocked = errors.New("transaction blocked by fraud check")
)
