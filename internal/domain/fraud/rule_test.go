package fraud

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCombineRuleResults(t *testing.T) {
	t.Run("no failures yields zero", func(t *testing.T) {
		score, flagged := CombineRuleResults([]RuleResult{
			{Name: "a", Failed: false, Contribution: 75},
			{Name: "b", Failed: false, Contribution: 65},
		})
		assert.Zero(t, score)
		assert.Nil(t, flagged)
	})

	t.Run("mean of failed contributions only", func(t *testing.T) {
		score, flagged := CombineRuleResults([]RuleResult{
			{Name: "a", Failed: true, Contribution: 75},
			{Name: "b", Failed: false, Contribution: 65},
			{Name: "c", Failed: true, Contribution: 25},
		})
		assert.InDelta(t, 50, score, 1e-9)
		assert.Equal(t, []string{"a", "c"}, flagged)
	})

	t.Run("single failure is its own mean", func(t *testing.T) {
		score, flagged := CombineRuleResults([]RuleResult{
			{Name: "a", Failed: true, Contribution: 60},
		})
		assert.InDelta(t, 60, score, 1e-9)
		assert.Equal(t, []string{"a"}, flagged)
	})
}
