package config

import (
	"errors"
)

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.New("invalid server port")
	}

	if c.Fraud.HighThreshold < 0 || c.Fraud.HighThreshold > 100 {
		return errors.New("high_threshold must be between 0 and 100")
	}

	if c.Fraud.MediumThreshold < 0 || c.Fraud.MediumThreshold > 100 {
		return errors.New("medium_threshold must be between 0 and 100")
	}

	if c.Fraud.MediumThreshold >= c.Fraud.HighThreshold {
		return errors.New("medium_threshold should be less than high_threshold")
	}

	if c.Fraud.BehaviorWeight < 0 || c.Fraud.RuleWeight < 0 {
		return errors.New("fraud weights must be non-negative")
	}

	if c.Credit.GetMinLimit().GreaterThan(c.Credit.GetMaxLimit()) {
		return errors.New("min_limit should not exceed max_limit")
	}

	if c.Plan.GracePeriodDays < 0 || c.Plan.DefaultPeriodDays <= c.Plan.GracePeriodDays {
		return errors.New("default_period_days should exceed grace_period_days")
	}

	if c.Plan.MaxInstallments < 1 {
		return errors.New("max_installments must be at least 1")
	}

	return nil
}
