package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"bnpl-risk-core/internal/application/checkout"
	"bnpl-risk-core/internal/application/dto"
	"bnpl-risk-core/internal/domain/credit"
	"bnpl-risk-core/internal/domain/plan"
	"bnpl-risk-core/internal/domain/transaction"
	"bnpl-risk-core/internal/domain/user"
)

// CheckoutHandler handles checkout HTTP requests
type CheckoutHandler struct {
	useCase *checkout.UseCase
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(useCase *checkout.UseCase) *CheckoutHandler {
	return &CheckoutHandler{useCase: useCase}
}

// Checkout handles POST /api/v1/checkout
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req dto.CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	resp, err := h.useCase.Execute(r.Context(), &req)
	if err != nil {
		if errors.Is(err, transaction.ErrFraudBlocked) {
			// The blocked transaction and its audit record are persisted;
			// surface the decision so the caller can show a support path.
			writeJSON(w, http.StatusForbidden, resp)
			return
		}
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

// Helper functions
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeDomainError maps domain sentinel errors to HTTP status codes.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, user.ErrUserNotFound),
		errors.Is(err, credit.ErrAccountNotFound),
		errors.Is(err, credit.ErrProfileNotFound),
		errors.Is(err, transaction.ErrTransactionNotFound),
		errors.Is(err, transaction.ErrMerchantNotFound),
		errors.Is(err, plan.ErrPlanNotFound),
		errors.Is(err, plan.ErrInstallmentNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, credit.ErrInvalidProfile),
		errors.Is(err, transaction.ErrInvalidAmount),
		errors.Is(err, transaction.ErrInvalidUserID),
		errors.Is(err, transaction.ErrInvalidMerchantID),
		errors.Is(err, plan.ErrInvalidPlanAmount),
		errors.Is(err, plan.ErrInvalidInstallmentCount),
		errors.Is(err, plan.ErrInvalidRescheduleDate),
		errors.Is(err, plan.ErrInvalidPaymentAmount):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, credit.ErrInsufficientCredit),
		errors.Is(err, plan.ErrPlanCompleted),
		errors.Is(err, plan.ErrPlanDefaulted),
		errors.Is(err, plan.ErrRescheduleLimitReached),
		errors.Is(err, plan.ErrAdminRequired),
		errors.Is(err, plan.ErrInstallmentAlreadyPaid):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
