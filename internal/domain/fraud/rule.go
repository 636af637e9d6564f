package fraud

import "github.com/shopspring/decimal"

// RuleContext carries the already-materialized signals the rule battery
// reads. Rules never perform live lookups.
type RuleContext struct {
	Amount      decimal.Decimal
	AvgAmount   decimal.Decimal
	CreditLimit decimal.Decimal

	TxLastHour          int
	DistinctMerchants2h int

	MerchantAgeDays    int
	MerchantFraudFlags int

	LocalHour           int
	HasLateNightHistory bool
}

// RuleResult is one rule's verdict. A failed rule contributes its risk
// contribution to the aggregate rule score.
type RuleResult struct {
	Name         string
	Failed       bool
	Contribution float64
}

// Rule is one entry in the fixed, versioned-in-code battery. Adding a
// rule never touches the combination logic.
type Rule struct {
	Name     string
	Evaluate func(RuleContext) (failed bool, contribution float64)
}

// CombineRuleResults returns the mean contribution of failed rules and
// their names. No failures means a zero rule score.
func CombineRuleResults(results []RuleResult) (float64, []string) {
	var sum float64
	var flagged []string
	for _, r := range results {
		if r.Failed {
			sum += r.Contribution
			flagged = append(flagged, r.Name)
		}
	}
	if len(flagged) == 0 {
		return 0, nil
	}
	return sum / float64(len(flagged)), flagged
}
