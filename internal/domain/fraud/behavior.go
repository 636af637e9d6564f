package fraud

import "time"

// Behavior sub-score weights. Higher sub-scores mean riskier.
const (
	weightAccountAge = 0.15
	weightKYC        = 0.20
	weightHistory    = 0.30
	weightPattern    = 0.15
	weightPriorFraud = 0.20
)

// BehaviorSnapshot is the materialized longitudinal view of a user at
// evaluation time. Gathering it is infrastructure's job; scoring it is
// pure arithmetic here.
type BehaviorSnapshot struct {
	AccountAge      time.Duration
	KYCVerified     bool
	Defaults        int
	LateCount       int
	Completed       int
	HasHistory      bool
	TxLastHour      int
	AmountDeviation bool // amount more than 3 sigma from the user's mean
	PriorFraudFlags int  // within the configured lookback window
}

// BehaviorScore combines the five weighted sub-scores into 0-100.
func BehaviorScore(s BehaviorSnapshot) float64 {
	return weightAccountAge*accountAgeScore(s.AccountAge) +
		weightKYC*kycScore(s.KYCVerified) +
		weightHistory*historyScore(s) +
		weightPattern*patternScore(s) +
		weightPriorFraud*priorFraudScore(s.PriorFraudFlags)
}

func accountAgeScore(age time.Duration) float64 {
	days := age.Hours() / 24
	switch {
	case days < 7:
		return 90
	case days < 30:
		return 70
	case days < 90:
		return 50
	case days < 180:
		return 30
	default:
		return 10
	}
}

func kycScore(verified bool) float64 {
	if verified {
		return 10
	}
	return 80
}

func historyScore(s BehaviorSnapshot) float64 {
	switch {
	case s.Defaults > 0:
		return 90
	case s.LateCount > 2:
		return 80
	case s.LateCount > 0:
		return 60
	case !s.HasHistory:
		return 50
	case s.Completed < 3:
		return 30
	default:
		return 10
	}
}

func patternScore(s BehaviorSnapshot) float64 {
	burst := s.TxLastHour >= 3
	switch {
	case burst && s.AmountDeviation:
		return 80
	case burst:
		return 70
	case s.AmountDeviation:
		return 60
	default:
		return 20
	}
}

func priorFraudScore(flags int) float64 {
	switch {
	case flags >= 3:
		return 90
	case flags == 2:
		return 70
	case flags == 1:
		return 50
	default:
		return 10
	}
}
