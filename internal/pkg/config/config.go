package config

import (
	"time"

	"github.com/shopspring/decimal"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Credit   CreditConfig   `mapstructure:"credit"`
	Fraud    FraudConfig    `mapstructure:"fraud"`
	Plan     PlanConfig     `mapstructure:"plan"`
	Sweep    SweepConfig    `mapstructure:"sweep"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// CreditConfig holds credit decisioning configuration
type CreditConfig struct {
	BaseMultiplier float64 `mapstructure:"base_multiplier"`
	MinLimit       string  `mapstructure:"min_limit"` // String for YAML compatibility
	MaxLimit       string  `mapstructure:"max_limit"` // String for YAML compatibility
}

// GetMinLimit returns the minimum credit limit as decimal
func (c *CreditConfig) GetMinLimit() decimal.Decimal {
	d, err := decimal.NewFromString(c.MinLimit)
	if err != nil {
		return decimal.NewFromInt(1000)
	}
	return d
}

// GetMaxLimit returns the maximum credit limit as decimal
func (c *CreditConfig) GetMaxLimit() decimal.Decimal {
	d, err := decimal.NewFromString(c.MaxLimit)
	if err != nil {
		return decimal.NewFromInt(50000)
	}
	return d
}

// FraudConfig holds fraud decisioning configuration
type FraudConfig struct {
	HighThreshold        int     `mapstructure:"high_threshold"`
	MediumThreshold      int     `mapstructure:"medium_threshold"`
	BehaviorWeight       float64 `mapstructure:"behavior_weight"`
	RuleWeight           float64 `mapstructure:"rule_weight"`
	PriorFraudWindowDays int     `mapstructure:"prior_fraud_window_days"`
}

// PlanConfig holds payment plan lifecycle configuration
type PlanConfig struct {
	GracePeriodDays         int     `mapstructure:"grace_period_days"`
	DefaultPeriodDays       int     `mapstructure:"default_period_days"`
	LateFeePercentage       float64 `mapstructure:"late_fee_percentage"`
	RescheduleFeePercentage float64 `mapstructure:"reschedule_fee_percentage"`
	MaxReschedulesAllowed   int     `mapstructure:"max_reschedules_allowed"`
	MaxInstallments         int     `mapstructure:"max_installments"`
}

// SweepConfig holds the daily sweep scheduler configuration
type SweepConfig struct {
	Schedule   string `mapstructure:"schedule"`
	RunOnStart bool   `mapstructure:"run_on_start"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DefaultConfig returns configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			User:            "bnpl_user",
			Password:        "",
			Name:            "bnpl_risk",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Redis: RedisConfig{
			Host:         "localhost",
			Port:         6379,
			Password:     "",
			DB:           0,
			PoolSize:     10,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Credit: CreditConfig{
			BaseMultiplier: 2,
			MinLimit:       "1000",
			MaxLimit:       "50000",
		},
		Fraud: FraudConfig{
			HighThreshold:        80,
			MediumThreshold:      50,
			BehaviorWeight:       0.4,
			RuleWeight:           0.6,
			PriorFraudWindowDays: 180,
		},
		Plan: PlanConfig{
			GracePeriodDays:         3,
			DefaultPeriodDays:       30,
			LateFeePercentage:       5,
			RescheduleFeePercentage: 2,
			MaxReschedulesAllowed:   3,
			MaxInstallments:         12,
		},
		Sweep: SweepConfig{
			Schedule:   "@daily",
			RunOnStart: false,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}
