package fraud

import "errors"

var (
	ErrCheckNotFound = errors.New("fraud check not found")

	// ErrScoringFailed marks an internal scoring defect. It never
	// surfaces to callers; the engine degrades to FLAG instead.
	ErrScoringFailed = errors.New("fraud scoring failed")
)

// RuleErrorDuringCheck is the synthetic rule recorded when scoring
// degrades so the evaluation is routed to human review.
const RuleErrorDuringCheck = "error_during_check"
