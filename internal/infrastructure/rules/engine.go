package rules

import (
	"context"

	"github.com/shopspring/decimal"

	"bnpl-risk-core/internal/domain/fraud"
)

// Risk contributions per rule. The battery is fixed and versioned in
// code; changing a contribution is a deploy, not a config edit.
const (
	unusualAmountContribution     = 75
	highFrequencyContribution     = 65
	unusualLocationContribution   = 50
	unusualTimeContribution       = 60
	multipleMerchantsContribution = 70

	newMerchantContribution     = 30
	perMerchantFlagContribution = 10
	maxCountedMerchantFlags     = 6

	lateNightStartHour = 1
	lateNightEndHour   = 5

	newMerchantAgeDays   = 30
	maxTxPerHour         = 3
	maxDistinctMerchants = 3
	avgAmountFactor      = 3
)

// battery is the fixed rule set, evaluated independently per check.
var battery = []fraud.Rule{
	{Name: "unusual_amount", Evaluate: unusualAmount},
	{Name: "high_frequency", Evaluate: highFrequency},
	{Name: "high_risk_merchant", Evaluate: highRiskMerchant},
	{Name: "unusual_location", Evaluate: unusualLocation},
	{Name: "unusual_time", Evaluate: unusualTime},
	{Name: "multiple_merchants", Evaluate: multipleMerchants},
}

// Engine implements fraud.RuleEvaluator over the fixed battery.
type Engine struct {
	rules []fraud.Rule
}

// NewEngine creates a rule engine with the standard battery.
func NewEngine() *Engine {
	return &Engine{rules: battery}
}

// Evaluate runs every rule against the context. Rules are independent
// and read-only, so they run on a snapshot without coordination.
func (e *Engine) Evaluate(ctx context.Context, rc fraud.RuleContext) ([]fraud.RuleResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	results := make([]fraud.RuleResult, len(e.rules))
	for i, rule := range e.rules {
		failed, contribution := rule.Evaluate(rc)
		results[i] = fraud.RuleResult{Name: rule.Name, Failed: failed, Contribution: contribution}
	}
	return results, nil
}

// unusualAmount fails when the amount exceeds both the user's usual
// spend and half the credit limit headroom threshold, whichever is
// larger.
func unusualAmount(rc fraud.RuleContext) (bool, float64) {
	threshold := rc.AvgAmount.Mul(decimal.NewFromInt(avgAmountFactor))
	half := rc.CreditLimit.Div(decimal.NewFromInt(2))
	if half.GreaterThan(threshold) {
		threshold = half
	}
	if threshold.IsPositive() && rc.Amount.GreaterThan(threshold) {
		return true, unusualAmountContribution
	}
	return false, unusualAmountContribution
}

func highFrequency(rc fraud.RuleContext) (bool, float64) {
	return rc.TxLastHour > maxTxPerHour, highFrequencyContribution
}

// highRiskMerchant combines merchant age and recent fraud flags. A
// brand-new merchant contributes a fixed amount; each recent flag adds
// more, capped so one merchant cannot saturate the score alone.
func highRiskMerchant(rc fraud.RuleContext) (bool, float64) {
	isNew := rc.MerchantAgeDays < newMerchantAgeDays
	flags := rc.MerchantFraudFlags
	if !isNew && flags == 0 {
		return false, 0
	}
	contribution := 0.0
	if isNew {
		contribution += newMerchantContribution
	}
	if flags > maxCountedMerchantFlags {
		flags = maxCountedMerchantFlags
	}
	contribution += float64(flags) * perMerchantFlagContribution
	return true, contribution
}

// unusualLocation always passes. Geo signals are not collected yet;
// the rule keeps its slot in the battery so enabling it later does not
// change the combination logic.
func unusualLocation(rc fraud.RuleContext) (bool, float64) {
	return false, unusualLocationContribution
}

func unusualTime(rc fraud.RuleContext) (bool, float64) {
	lateNight := rc.LocalHour >= lateNightStartHour && rc.LocalHour < lateNightEndHour
	return lateNight && !rc.HasLateNightHistory, unusualTimeContribution
}

func multipleMerchants(rc fraud.RuleContext) (bool, float64) {
	return rc.DistinctMerchants2h > maxDistinctMerchants, multipleMerchantsContribution
}
