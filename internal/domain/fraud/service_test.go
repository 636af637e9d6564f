package fraud

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bnpl-risk-core/internal/domain/notification"
	"bnpl-risk-core/internal/domain/transaction"
	"bnpl-risk-core/internal/domain/user"
	"bnpl-risk-core/internal/pkg/clock"
)

type stubDataSource struct {
	snapshot BehaviorSnapshot
	rc       RuleContext
	err      error
	panics   bool
}

func (s *stubDataSource) Gather(context.Context, *transaction.Transaction, *user.User, *transaction.Merchant) (BehaviorSnapshot, RuleContext, error) {
	if s.panics {
		panic("signal gathering blew up")
	}
	return s.snapshot, s.rc, s.err
}

type stubRuleEvaluator struct {
	results []RuleResult
	err     error
}

func (s *stubRuleEvaluator) Evaluate(context.Context, RuleContext) ([]RuleResult, error) {
	return s.results, s.err
}

type recordingCheckRepo struct {
	created []*FraudCheck
	err     error
}

func (r *recordingCheckRepo) Create(_ context.Context, check *FraudCheck) error {
	if r.err != nil {
		return r.err
	}
	r.created = append(r.created, check)
	return nil
}

func (r *recordingCheckRepo) GetByTransactionID(context.Context, uuid.UUID) (*FraudCheck, error) {
	return nil, ErrCheckNotFound
}

func (r *recordingCheckRepo) CountFlaggedByUserSince(context.Context, uuid.UUID, time.Time) (int, error) {
	return 0, nil
}

func (r *recordingCheckRepo) CountFlaggedByMerchantSince(context.Context, uuid.UUID, time.Time) (int, error) {
	return 0, nil
}

type stubUsers struct {
	staff []*user.User
}

func (s *stubUsers) GetByID(context.Context, uuid.UUID) (*user.User, error) {
	return nil, user.ErrUserNotFound
}

func (s *stubUsers) ListByRoles(context.Context, ...user.Role) ([]*user.User, error) {
	return s.staff, nil
}

type recordingNotifier struct {
	sent []notification.Type
}

func (n *recordingNotifier) Notify(_ context.Context, _ uuid.UUID, typ notification.Type, _ string, _ map[string]string) error {
	n.sent = append(n.sent, typ)
	return nil
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func fixture() (*transaction.Transaction, *user.User, *transaction.Merchant, clock.Clock) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clk := clock.NewFixed(now)
	usr := &user.User{ID: uuid.New(), Role: user.RoleCustomer, CreatedAt: now.Add(-48 * time.Hour)}
	merch := &transaction.Merchant{ID: uuid.New(), Name: "shop", CreatedAt: now.AddDate(-1, 0, 0)}
	tx := transaction.New(usr.ID, merch.ID, decimal.NewFromInt(500), "test purchase", now)
	return tx, usr, merch, clk
}

func TestCheckTransactionAllowsLowRisk(t *testing.T) {
	tx, usr, merch, clk := fixture()
	checks := &recordingCheckRepo{}
	data := &stubDataSource{snapshot: BehaviorSnapshot{AccountAge: 2 * 24 * time.Hour}}
	rules := &stubRuleEvaluator{results: []RuleResult{
		{Name: "unusual_amount", Failed: false, Contribution: 75},
	}}
	engine := NewEngine(DefaultConfig(), data, rules, checks, &stubUsers{}, &recordingNotifier{}, clk, quietLogger())

	result, err := engine.CheckTransaction(context.Background(), tx, usr, merch)
	require.NoError(t, err)

	// behavior 49.5, rule score 0: round(0.4*49.5) = 20.
	assert.Equal(t, 20, result.RiskScore)
	assert.Equal(t, ActionAllow, result.Action)
	assert.Empty(t, result.FlaggedRules)

	require.Len(t, checks.created, 1)
	check := checks.created[0]
	assert.Equal(t, tx.ID, check.TransactionID)
	assert.Equal(t, 20, check.RiskScore)
	assert.InDelta(t, 49.5, check.BehaviorScore, 1e-9)
	assert.Zero(t, check.RuleScore)
}

func TestActionThresholds(t *testing.T) {
	engine := &Engine{cfg: DefaultConfig()}
	assert.Equal(t, ActionAllow, engine.actionFor(0))
	assert.Equal(t, ActionAllow, engine.actionFor(49))
	assert.Equal(t, ActionFlag, engine.actionFor(50))
	assert.Equal(t, ActionFlag, engine.actionFor(79))
	assert.Equal(t, ActionBlock, engine.actionFor(80))
	assert.Equal(t, ActionBlock, engine.actionFor(100))
}

func TestCheckTransactionCombinesScores(t *testing.T) {
	tx, usr, merch, clk := fixture()
	checks := &recordingCheckRepo{}
	// behavior 49.5 with two failed rules averaging 70:
	// round(0.4*49.5 + 0.6*70) = round(61.8) = 62 -> FLAG.
	data := &stubDataSource{snapshot: BehaviorSnapshot{AccountAge: 2 * 24 * time.Hour}}
	rules := &stubRuleEvaluator{results: []RuleResult{
		{Name: "high_frequency", Failed: true, Contribution: 65},
		{Name: "unusual_amount", Failed: true, Contribution: 75},
		{Name: "unusual_time", Failed: false, Contribution: 60},
	}}
	notifier := &recordingNotifier{}
	staff := &stubUsers{staff: []*user.User{{ID: uuid.New(), Role: user.RoleAdmin}}}
	engine := NewEngine(DefaultConfig(), data, rules, checks, staff, notifier, clk, quietLogger())

	result, err := engine.CheckTransaction(context.Background(), tx, usr, merch)
	require.NoError(t, err)
	assert.Equal(t, 62, result.RiskScore)
	assert.Equal(t, ActionFlag, result.Action)
	assert.Equal(t, []string{"high_frequency", "unusual_amount"}, result.FlaggedRules)
	assert.Contains(t, notifier.sent, notification.TypeFraudAlert)
}

func TestCheckTransactionDegradesOnGatherError(t *testing.T) {
	tx, usr, merch, clk := fixture()
	checks := &recordingCheckRepo{}
	data := &stubDataSource{err: errors.New("redis down")}
	engine := NewEngine(DefaultConfig(), data, &stubRuleEvaluator{}, checks, &stubUsers{}, &recordingNotifier{}, clk, quietLogger())

	result, err := engine.CheckTransaction(context.Background(), tx, usr, merch)
	require.NoError(t, err, "scoring defects must not fail the transaction")

	assert.Equal(t, 50, result.RiskScore)
	assert.Equal(t, ActionFlag, result.Action)
	assert.Equal(t, []string{RuleErrorDuringCheck}, result.FlaggedRules)

	require.Len(t, checks.created, 1)
	assert.Zero(t, checks.created[0].BehaviorScore)
	assert.Zero(t, checks.created[0].RuleScore)
}

func TestCheckTransactionDegradesOnPanic(t *testing.T) {
	tx, usr, merch, clk := fixture()
	checks := &recordingCheckRepo{}
	data := &stubDataSource{panics: true}
	engine := NewEngine(DefaultConfig(), data, &stubRuleEvaluator{}, checks, &stubUsers{}, &recordingNotifier{}, clk, quietLogger())

	result, err := engine.CheckTransaction(context.Background(), tx, usr, merch)
	require.NoError(t, err)
	assert.Equal(t, ActionFlag, result.Action)
	assert.Equal(t, []string{RuleErrorDuringCheck}, result.FlaggedRules)
	assert.Len(t, checks.created, 1)
}

func TestCheckTransactionDegradesOnRuleError(t *testing.T) {
	tx, usr, merch, clk := fixture()
	checks := &recordingCheckRepo{}
	data := &stubDataSource{snapshot: BehaviorSnapshot{}}
	rules := &stubRuleEvaluator{err: errors.New("context canceled")}
	engine := NewEngine(DefaultConfig(), data, rules, checks, &stubUsers{}, &recordingNotifier{}, clk, quietLogger())

	result, err := engine.CheckTransaction(context.Background(), tx, usr, merch)
	require.NoError(t, err)
	assert.Equal(t, 50, result.RiskScore)
	assert.Equal(t, ActionFlag, result.Action)
}

func TestCheckTransactionFailsWhenAuditWriteFails(t *testing.T) {
	tx, usr, merch, clk := fixture()
	checks := &recordingCheckRepo{err: errors.New("db down")}
	data := &stubDataSource{snapshot: BehaviorSnapshot{AccountAge: 2 * 24 * time.Hour}}
	engine := NewEngine(DefaultConfig(), data, &stubRuleEvaluator{}, checks, &stubUsers{}, &recordingNotifier{}, clk, quietLogger())

	_, err := engine.CheckTransaction(context.Background(), tx, usr, merch)
	assert.Error(t, err, "the audit record is mandatory")
}

func TestCheckTransactionBlocksHighRisk(t *testing.T) {
	tx, usr, merch, clk := fixture()
	checks := &recordingCheckRepo{}
	data := &stubDataSource{snapshot: BehaviorSnapshot{
		AccountAge:      time.Hour,
		Defaults:        2,
		TxLastHour:      5,
		AmountDeviation: true,
		PriorFraudFlags: 3,
	}}
	rules := &stubRuleEvaluator{results: []RuleResult{
		{Name: "unusual_amount", Failed: true, Contribution: 95},
		{Name: "high_frequency", Failed: true, Contribution: 85},
		{Name: "multiple_merchants", Failed: true, Contribution: 90},
	}}
	notifier := &recordingNotifier{}
	staff := &stubUsers{staff: []*user.User{{ID: uuid.New(), Role: user.RoleCreditManager}}}
	engine := NewEngine(DefaultConfig(), data, rules, checks, staff, notifier, clk, quietLogger())

	result, err := engine.CheckTransaction(context.Background(), tx, usr, merch)
	require.NoError(t, err)

	// behavior: 0.15*90+0.20*80+0.30*90+0.15*80+0.20*90 = 86.5
	// rules: mean(95,85,90) = 90; round(0.4*86.5 + 0.6*90) = 89.
	assert.Equal(t, 89, result.RiskScore)
	assert.Equal(t, ActionBlock, result.Action)
	assert.Contains(t, notifier.sent, notification.TypeFraudAlert)
}
