package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()

	// Set defaults from DefaultConfig
	setDefaults(v, cfg)

	// Read from config file if provided
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			// Config file not found is ok - we use defaults and env vars
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	// Read from environment variables
	v.SetEnvPrefix("BNPL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unmarshal into config struct
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, cfg *Config) {
	// Server defaults
	v.SetDefault("server.host", cfg.Server.Host)
	v.SetDefault("server.port", cfg.Server.Port)
	v.SetDefault("server.read_timeout", cfg.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", cfg.Server.WriteTimeout)

	// Database defaults
	v.SetDefault("database.host", cfg.Database.Host)
	v.SetDefault("database.port", cfg.Database.Port)
	v.SetDefault("database.user", cfg.Database.User)
	v.SetDefault("database.name", cfg.Database.Name)
	v.SetDefault("database.ssl_mode", cfg.Database.SSLMode)

	// Redis defaults
	v.SetDefault("redis.host", cfg.Redis.Host)
	v.SetDefault("redis.port", cfg.Redis.Port)
	v.SetDefault("redis.db", cfg.Redis.DB)
	v.SetDefault("redis.pool_size", cfg.Redis.PoolSize)

	// Credit defaults
	v.SetDefault("credit.base_multiplier", cfg.Credit.BaseMultiplier)
	v.SetDefault("credit.min_limit", cfg.Credit.MinLimit)
	v.SetDefault("credit.max_limit", cfg.Credit.MaxLimit)

	// Fraud defaults
	v.SetDefault("fraud.high_threshold", cfg.Fraud.HighThreshold)
	v.SetDefault("fraud.medium_threshold", cfg.Fraud.MediumThreshold)
	v.SetDefault("fraud.behavior_weight", cfg.Fraud.BehaviorWeight)
	v.SetDefault("fraud.rule_weight", cfg.Fraud.RuleWeight)

	// Plan defaults
	v.SetDefault("plan.grace_period_days", cfg.Plan.GracePeriodDays)
	v.SetDefault("plan.default_period_days", cfg.Plan.DefaultPeriodDays)
	v.SetDefault("plan.late_fee_percentage", cfg.Plan.LateFeePercentage)
	v.SetDefault("plan.reschedule_fee_percentage", cfg.Plan.RescheduleFeePercentage)
	v.SetDefault("plan.max_reschedules_allowed", cfg.Plan.MaxReschedulesAllowed)

	// Sweep defaults
	v.SetDefault("sweep.schedule", cfg.Sweep.Schedule)
	v.SetDefault("sweep.run_on_start", cfg.Sweep.RunOnStart)
}
