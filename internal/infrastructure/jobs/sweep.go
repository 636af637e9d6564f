package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"bnpl-risk-core/internal/domain/plan"
	"bnpl-risk-core/internal/infrastructure/metrics"
)

// SweepJob runs the plan lifecycle sweep on a cron schedule. The sweep
// is idempotent, so an operator-triggered run alongside the scheduled
// one is harmless.
type SweepJob struct {
	engine   *plan.Engine
	schedule string
	log      *logrus.Logger
	cron     *cron.Cron
}

// NewSweepJob creates a sweep job with the given cron schedule.
func NewSweepJob(engine *plan.Engine, schedule string, log *logrus.Logger) *SweepJob {
	return &SweepJob{
		engine:   engine,
		schedule: schedule,
		log:      log,
		cron:     cron.New(),
	}
}

// Start registers the schedule and starts the scheduler.
func (j *SweepJob) Start() error {
	_, err := j.cron.AddFunc(j.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		j.Run(ctx)
	})
	if err != nil {
		return err
	}
	j.cron.Start()
	j.log.WithField("schedule", j.schedule).Info("sweep job scheduled")
	return nil
}

// Stop stops the scheduler and waits for a running sweep to finish.
func (j *SweepJob) Stop() {
	<-j.cron.Stop().Done()
}

// Run executes one sweep pass and records its outcome.
func (j *SweepJob) Run(ctx context.Context) (plan.SweepSummary, error) {
	started := time.Now()
	summary, err := j.engine.RunDailySweep(ctx)
	if err != nil {
		metrics.SweepRuns.WithLabelValues("error").Inc()
		j.log.WithError(err).Error("daily sweep failed")
		return summary, err
	}

	metrics.SweepRuns.WithLabelValues("ok").Inc()
	metrics.SweepTransitions.WithLabelValues("late").Add(float64(summary.MarkedLate))
	metrics.SweepTransitions.WithLabelValues("defaulted").Add(float64(summary.Defaulted))

	j.log.WithFields(logrus.Fields{
		"examined":    summary.Examined,
		"reminded":    summary.Reminded,
		"marked_late": summary.MarkedLate,
		"defaulted":   summary.Defaulted,
		"took":        time.Since(started).String(),
	}).Info("daily sweep complete")
	return summary, nil
}
