package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"bnpl-risk-core/internal/application/dto"
	"bnpl-risk-core/internal/domain/fraud"
	"bnpl-risk-core/internal/domain/transaction"
	"bnpl-risk-core/internal/domain/user"
	"bnpl-risk-core/internal/infrastructure/metrics"
	"bnpl-risk-core/internal/pkg/clock"
)

// FraudHandler handles fraud evaluation HTTP requests
type FraudHandler struct {
	engine    *fraud.Engine
	checks    fraud.Repository
	users     user.Repository
	merchants transaction.MerchantRepository
	clock     clock.Clock
}

// NewFraudHandler creates a new fraud handler
func NewFraudHandler(engine *fraud.Engine, checks fraud.Repository, users user.Repository, merchants transaction.MerchantRepository, clk clock.Clock) *FraudHandler {
	return &FraudHandler{engine: engine, checks: checks, users: users, merchants: merchants, clock: clk}
}

// Check handles POST /api/v1/fraud/check. It evaluates a prospective
// transaction without creating one; the audit record is still written.
func (h *FraudHandler) Check(w http.ResponseWriter, r *http.Request) {
	var req dto.FraudCheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	usr, err := h.users.GetByID(r.Context(), req.UserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	merch, err := h.merchants.GetByID(r.Context(), req.MerchantID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	tx := transaction.New(req.UserID, req.MerchantID, req.Amount, "", h.clock.Now())
	if err := tx.Validate(); err != nil {
		writeDomainError(w, err)
		return
	}

	result, err := h.engine.CheckTransaction(r.Context(), tx, usr, merch)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Fraud check failed: "+err.Error())
		return
	}
	metrics.FraudDecisions.WithLabelValues(string(result.Action)).Inc()

	writeJSON(w, http.StatusOK, &dto.FraudCheckResponse{
		TransactionID: tx.ID,
		RiskScore:     result.RiskScore,
		Action:        string(result.Action),
		FlaggedRules:  result.FlaggedRules,
	})
}

// GetCheckByTransaction handles GET /api/v1/fraud/transactions/{id}/check
func (h *FraudHandler) GetCheckByTransaction(w http.ResponseWriter, r *http.Request) {
	txID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid transaction ID")
		return
	}

	check, err := h.checks.GetByTransactionID(r.Context(), txID)
	if err != nil {
		if errors.Is(err, fraud.ErrCheckNotFound) {
			writeError(w, http.StatusNotFound, "Fraud check not found")
			return
		}
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, check)
}
