package handler

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	creditapp "bnpl-risk-core/internal/application/credit"
	"bnpl-risk-core/internal/application/dto"
	"bnpl-risk-core/internal/domain/credit"
)

// CreditHandler handles credit decisioning HTTP requests
type CreditHandler struct {
	useCase  *creditapp.AssessLimitUseCase
	accounts credit.Repository
}

// NewCreditHandler creates a new credit handler
func NewCreditHandler(useCase *creditapp.AssessLimitUseCase, accounts credit.Repository) *CreditHandler {
	return &CreditHandler{useCase: useCase, accounts: accounts}
}

// Assess handles POST /api/v1/credit/assess
func (h *CreditHandler) Assess(w http.ResponseWriter, r *http.Request) {
	var req dto.AssessCreditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.UserID == uuid.Nil {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	resp, err := h.useCase.Assess(r.Context(), &req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Reassess handles POST /api/v1/credit/users/{id}/reassess
func (h *CreditHandler) Reassess(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	resp, err := h.useCase.Reassess(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetAccount handles GET /api/v1/credit/users/{id}/account
func (h *CreditHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	account, err := h.accounts.GetByUserID(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

// GetLimitHistory handles GET /api/v1/credit/users/{id}/history
func (h *CreditHandler) GetLimitHistory(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	account, err := h.accounts.GetByUserID(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	history, err := h.accounts.ListHistory(r.Context(), account.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}
