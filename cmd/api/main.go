package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	checkoutapp "bnpl-risk-core/internal/application/checkout"
	creditapp "bnpl-risk-core/internal/application/credit"
	kycapp "bnpl-risk-core/internal/application/kyc"
	"bnpl-risk-core/internal/domain/credit"
	"bnpl-risk-core/internal/domain/fraud"
	"bnpl-risk-core/internal/domain/kyc"
	"bnpl-risk-core/internal/domain/plan"
	"bnpl-risk-core/internal/infrastructure/cache/redis"
	"bnpl-risk-core/internal/infrastructure/database/postgres"
	"bnpl-risk-core/internal/infrastructure/http/router"
	"bnpl-risk-core/internal/infrastructure/jobs"
	"bnpl-risk-core/internal/infrastructure/notify"
	"bnpl-risk-core/internal/infrastructure/rules"
	"bnpl-risk-core/internal/infrastructure/scoring"
	"bnpl-risk-core/internal/interfaces/http/handler"
	"bnpl-risk-core/internal/pkg/clock"
	"bnpl-risk-core/internal/pkg/config"
)

const version = "1.0.0"

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Printf("Warning: Could not load config file, using defaults: %v", err)
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger := newLogger(cfg.Log)
	logger.WithFields(logrus.Fields{
		"version": version,
		"addr":    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
	}).Info("starting bnpl risk core")

	// Database connection. Checkout debits credit atomically, so the
	// service refuses to start without a database.
	dbClient, err := postgres.NewClient(postgres.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Name:            cfg.Database.Name,
		SSLMode:         cfg.Database.SSLMode,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		logger.WithError(err).Fatal("database connection failed")
	}
	if err := dbClient.Migrate(); err != nil {
		logger.WithError(err).Fatal("database migration failed")
	}
	logger.WithField("host", cfg.Database.Host).Info("connected to postgres")

	// Redis connection. Velocity and merchant-flag counters feed the
	// fraud rules, so this is required too.
	redisClient, err := redis.NewClient(redis.Config{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	if err != nil {
		logger.WithError(err).Fatal("redis connection failed")
	}
	logger.WithField("host", cfg.Redis.Host).Info("connected to redis")

	// Repositories
	userRepo := postgres.NewUserRepository(dbClient)
	accountRepo := postgres.NewAccountRepository(dbClient)
	profileRepo := postgres.NewProfileRepository(dbClient)
	txRepo := postgres.NewTransactionRepository(dbClient)
	merchantRepo := postgres.NewMerchantRepository(dbClient)
	fraudRepo := postgres.NewFraudCheckRepository(dbClient)
	planRepo := postgres.NewPlanRepository(dbClient)
	checkoutStore := postgres.NewCheckoutStore(dbClient)
	activityCache := redis.NewActivityCache(redisClient)

	clk := clock.System{}
	notifier := notify.NewLogNotifier(logger)

	// KYC verdicts come from an external pipeline; the core ships with
	// deterministic doubles until one is wired in.
	kycOracle := &kyc.StaticOracle{Statuses: map[uuid.UUID]kyc.Status{}}
	kycVerifier := &kyc.StaticVerifier{Outcome: true}

	// Domain engines
	planCfg := plan.Config{
		GracePeriodDays:         cfg.Plan.GracePeriodDays,
		DefaultPeriodDays:       cfg.Plan.DefaultPeriodDays,
		LateFeePercentage:       decimal.NewFromFloat(cfg.Plan.LateFeePercentage),
		RescheduleFeePercentage: decimal.NewFromFloat(cfg.Plan.RescheduleFeePercentage),
		MaxReschedulesAllowed:   cfg.Plan.MaxReschedulesAllowed,
	}
	planEngine := plan.NewEngine(planCfg, planRepo, userRepo, notifier, clk, logger)

	creditCfg := credit.Config{
		BaseMultiplier: decimal.NewFromFloat(cfg.Credit.BaseMultiplier),
		MinLimit:       cfg.Credit.GetMinLimit(),
		MaxLimit:       cfg.Credit.GetMaxLimit(),
	}
	creditEngine := credit.NewEngine(
		creditCfg,
		userRepo,
		accountRepo,
		profileRepo,
		paymentHistory{planEngine},
		notifier,
		clk,
		logger,
	)

	fraudCfg := fraud.Config{
		HighThreshold:    cfg.Fraud.HighThreshold,
		MediumThreshold:  cfg.Fraud.MediumThreshold,
		BehaviorWeight:   cfg.Fraud.BehaviorWeight,
		RuleWeight:       cfg.Fraud.RuleWeight,
		PriorFraudWindow: time.Duration(cfg.Fraud.PriorFraudWindowDays) * 24 * time.Hour,
	}
	gatherer := scoring.NewGatherer(accountRepo, planRepo, txRepo, fraudRepo, kycOracle, activityCache, fraudCfg, clk)
	ruleEngine := rules.NewEngine()
	fraudEngine := fraud.NewEngine(fraudCfg, gatherer, ruleEngine, fraudRepo, userRepo, notifier, clk, logger)

	// Use cases
	assessUseCase := creditapp.NewAssessLimitUseCase(creditEngine, userRepo, kycOracle)
	kycUseCase := kycapp.NewVerifyUseCase(userRepo, profileRepo, kycVerifier, kycVerifier, notifier, clk, logger)
	checkoutUseCase := checkoutapp.NewUseCase(
		checkoutStore,
		fraudEngine,
		userRepo,
		merchantRepo,
		accountRepo,
		activityCache,
		notifier,
		clk,
		logger,
		cfg.Plan.MaxInstallments,
	)

	// Background sweep
	sweepJob := jobs.NewSweepJob(planEngine, cfg.Sweep.Schedule, logger)
	if err := sweepJob.Start(); err != nil {
		logger.WithError(err).Fatal("sweep job start failed")
	}
	if cfg.Sweep.RunOnStart {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
			defer cancel()
			sweepJob.Run(ctx)
		}()
	}

	// Handlers
	creditHandler := handler.NewCreditHandler(assessUseCase, accountRepo)
	checkoutHandler := handler.NewCheckoutHandler(checkoutUseCase)
	fraudHandler := handler.NewFraudHandler(fraudEngine, fraudRepo, userRepo, merchantRepo, clk)
	planHandler := handler.NewPlanHandler(planEngine, planRepo, sweepJob)
	kycHandler := handler.NewKYCHandler(kycUseCase)
	healthHandler := handler.NewHealthHandler(dbClient, redisClient, version)

	r := router.NewRouter(
		creditHandler,
		checkoutHandler,
		fraudHandler,
		planHandler,
		kycHandler,
		healthHandler,
		cfg.Metrics.Enabled,
		cfg.Metrics.Path,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.WithField("addr", server.Addr).Info("http server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("server shutdown error")
	}

	sweepJob.Stop()
	dbClient.Close()
	redisClient.Close()

	logger.Info("server stopped")
}

// paymentHistory adapts the plan engine's installment stats to the
// credit engine's history port.
type paymentHistory struct {
	plans *plan.Engine
}

func (p paymentHistory) PaymentStats(ctx context.Context, userID uuid.UUID) (credit.PaymentStats, error) {
	total, late, missed, err := p.plans.PaymentStatsFor(ctx, userID)
	if err != nil {
		return credit.PaymentStats{}, err
	}
	return credit.PaymentStats{Total: total, Late: late, Missed: missed}, nil
}

func newLogger(cfg config.LogConfig) *logrus.Logger {
	logger := logrus.New()
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}
