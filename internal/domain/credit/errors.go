package credit

import "errors"

var (
	ErrAccountNotFound = errors.New("credit account not found")
	ErrProfileNotFound = errors.New("financial profile not found")
	ErrInvalidProfile  = errors.New("invalid financial profile")

	// ErrInsufficientCredit is a policy violation, not a system failure.
	ErrInsufficientCredit = errors.New("insufficient available credit")
)
