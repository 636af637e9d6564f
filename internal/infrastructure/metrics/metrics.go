package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FraudDecisions counts fraud gate outcomes by action.
	FraudDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bnpl_fraud_decisions_total",
		Help: "Fraud gate decisions by action",
	}, []string{"action"})

	// CreditAssessments counts limit assessments by kind.
	CreditAssessments = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bnpl_credit_assessments_total",
		Help: "Credit limit assessments by kind",
	}, []string{"kind"})

	// SweepTransitions counts plan state transitions made by the sweep.
	SweepTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bnpl_sweep_transitions_total",
		Help: "Plan transitions applied by the daily sweep",
	}, []string{"transition"})

	// SweepRuns counts sweep executions by result.
	SweepRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bnpl_sweep_runs_total",
		Help: "Daily sweep executions by result",
	}, []string{"result"})

	// CheckoutOutcomes counts checkout attempts by outcome.
	CheckoutOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bnpl_checkout_outcomes_total",
		Help: "Checkout attempts by outcome",
	}, []string{"outcome"})
)
