package fraud

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"bnpl-risk-core/internal/domain/notification"
	"bnpl-risk-core/internal/domain/transaction"
	"bnpl-risk-core/internal/domain/user"
	"bnpl-risk-core/internal/pkg/clock"
)

// Config holds the decision thresholds and combination weights.
type Config struct {
	HighThreshold    int
	MediumThreshold  int
	BehaviorWeight   float64
	RuleWeight       float64
	PriorFraudWindow time.Duration
}

// DefaultConfig returns the standard thresholds.
func DefaultConfig() Config {
	return Config{
		HighThreshold:    80,
		MediumThreshold:  50,
		BehaviorWeight:   0.4,
		RuleWeight:       0.6,
		PriorFraudWindow: 180 * 24 * time.Hour,
	}
}

// Result is the outcome of one evaluation.
type Result struct {
	RiskScore    int      `json:"risk_score"`
	Action       Action   `json:"action"`
	FlaggedRules []string `json:"flagged_rules"`
}

// Engine is the synchronous fraud gate. It combines the behavior
// scorer and the rule battery into one score and an action, and
// persists exactly one FraudCheck per call.
type Engine struct {
	cfg      Config
	data     DataSource
	rules    RuleEvaluator
	checks   Repository
	users    user.Repository
	notifier notification.Notifier
	clock    clock.Clock
	log      *logrus.Logger
}

// NewEngine creates a fraud decision engine.
func NewEngine(
	cfg Config,
	data DataSource,
	rules RuleEvaluator,
	checks Repository,
	users user.Repository,
	notifier notification.Notifier,
	clk clock.Clock,
	log *logrus.Logger,
) *Engine {
	return &Engine{
		cfg:      cfg,
		data:     data,
		rules:    rules,
		checks:   checks,
		users:    users,
		notifier: notifier,
		clock:    clk,
		log:      log,
	}
}

// CheckTransaction scores the transaction and decides ALLOW, FLAG or
// BLOCK. Internal scoring defects degrade to FLAG at the medium
// threshold with a sentinel rule; they never fail the transaction and
// never silently allow it.
func (e *Engine) CheckTransaction(ctx context.Context, tx *transaction.Transaction, usr *user.User, merch *transaction.Merchant) (*Result, error) {
	score, behaviorScore, ruleScore, flagged, scoreErr := e.evaluate(ctx, tx, usr, merch)
	if scoreErr != nil {
		e.log.WithError(scoreErr).WithField("transaction_id", tx.ID).Error("fraud scoring degraded")
		score = e.cfg.MediumThreshold
		behaviorScore = 0
		ruleScore = 0
		flagged = []string{RuleErrorDuringCheck}
	}

	action := e.actionFor(score)

	check := NewFraudCheck(tx.ID, usr.ID, score, behaviorScore, ruleScore, flagged, action, e.clock.Now())
	if err := e.checks.Create(ctx, check); err != nil {
		return nil, fmt.Errorf("persist fraud check: %w", err)
	}

	if action != ActionAllow {
		e.raiseAlert(ctx, tx, usr, score, action, flagged)
	}

	e.log.WithFields(logrus.Fields{
		"transaction_id": tx.ID,
		"user_id":        usr.ID,
		"risk_score":     score,
		"action":         action,
	}).Info("fraud check complete")

	return &Result{RiskScore: score, Action: action, FlaggedRules: flagged}, nil
}

func (e *Engine) actionFor(score int) Action {
	switch {
	case score >= e.cfg.HighThreshold:
		return ActionBlock
	case score >= e.cfg.MediumThreshold:
		return ActionFlag
	default:
		return ActionAllow
	}
}

// evaluate runs the scorers. Panics inside scoring are contained here
// so a defect in one signal cannot take down the gate.
func (e *Engine) evaluate(ctx context.Context, tx *transaction.Transaction, usr *user.User, merch *transaction.Merchant) (score int, behaviorScore, ruleScore float64, flagged []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", ErrScoringFailed, r)
		}
	}()

	snapshot, rc, gatherErr := e.data.Gather(ctx, tx, usr, merch)
	if gatherErr != nil {
		return 0, 0, 0, nil, fmt.Errorf("%w: %v", ErrScoringFailed, gatherErr)
	}

	results, ruleErr := e.rules.Evaluate(ctx, rc)
	if ruleErr != nil {
		return 0, 0, 0, nil, fmt.Errorf("%w: %v", ErrScoringFailed, ruleErr)
	}

	behaviorScore = BehaviorScore(snapshot)
	ruleScore, flagged = CombineRuleResults(results)

	combined := e.cfg.BehaviorWeight*behaviorScore + e.cfg.RuleWeight*ruleScore
	score = int(math.Round(combined))
	return score, behaviorScore, ruleScore, flagged, nil
}

// raiseAlert notifies risk staff about a FLAG or BLOCK. Alerting is
// fire-and-forget; failures are logged only.
func (e *Engine) raiseAlert(ctx context.Context, tx *transaction.Transaction, usr *user.User, score int, action Action, flagged []string) {
	staff, err := e.users.ListByRoles(ctx, user.RoleAdmin, user.RoleCreditManager)
	if err != nil {
		e.log.WithError(err).Warn("could not list risk staff for alert")
		return
	}
	msg := fmt.Sprintf("Transaction %s by user %s scored %d (%s)", tx.ID, usr.ID, score, action)
	data := map[string]string{
		"transaction_id": tx.ID.String(),
		"risk_score":     fmt.Sprintf("%d", score),
		"action":         string(action),
	}
	for i, rule := range flagged {
		data[fmt.Sprintf("rule_%d", i)] = rule
	}
	for _, s := range staff {
		if err := e.notifier.Notify(ctx, s.ID, notification.TypeFraudAlert, msg, data); err != nil {
			e.log.WithError(err).WithField("user_id", s.ID).Warn("fraud alert failed")
		}
	}
}

// PriorFraudSince returns the start of the lookback window for prior
// fraud flags, relative to now.
func (c Config) PriorFraudSince(now time.Time) time.Time {
	return now.Add(-c.PriorFraudWindow)
}
