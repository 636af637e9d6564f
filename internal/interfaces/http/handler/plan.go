package handler

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"bnpl-risk-core/internal/application/dto"
	"bnpl-risk-core/internal/domain/plan"
	"bnpl-risk-core/internal/infrastructure/jobs"
)

// PlanHandler handles payment plan lifecycle HTTP requests
type PlanHandler struct {
	engine *plan.Engine
	plans  plan.Repository
	sweep  *jobs.SweepJob
}

// NewPlanHandler creates a new plan handler
func NewPlanHandler(engine *plan.Engine, plans plan.Repository, sweep *jobs.SweepJob) *PlanHandler {
	return &PlanHandler{engine: engine, plans: plans, sweep: sweep}
}

// Get handles GET /api/v1/plans/{id}
func (h *PlanHandler) Get(w http.ResponseWriter, r *http.Request) {
	planID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid plan ID")
		return
	}

	p, err := h.plans.GetByID(r.Context(), planID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	installments, err := h.plans.ListInstallments(r.Context(), planID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"plan":         p,
		"installments": installments,
	})
}

// Sweep handles POST /api/v1/plans/sweep. The sweep is idempotent, so
// an on-demand run is safe alongside the scheduled one.
func (h *PlanHandler) Sweep(w http.ResponseWriter, r *http.Request) {
	summary, err := h.sweep.Run(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Sweep failed: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// Reschedule handles POST /api/v1/plans/{id}/reschedule
func (h *PlanHandler) Reschedule(w http.ResponseWriter, r *http.Request) {
	planID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid plan ID")
		return
	}

	var req dto.RescheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	rec, err := h.engine.Reschedule(r.Context(), planID, req.NewEndDate, req.Reason, req.AdminID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, &dto.RescheduleResponse{
		PlanID:     planID,
		NewEndDate: rec.NewEndDate,
		Fee:        rec.Fee,
	})
}

// RescheduleHistory handles GET /api/v1/plans/{id}/reschedules
func (h *PlanHandler) RescheduleHistory(w http.ResponseWriter, r *http.Request) {
	planID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid plan ID")
		return
	}

	records, remaining, err := h.engine.RescheduleHistory(r.Context(), planID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"reschedules": records,
		"remaining":   remaining,
	})
}

// RecordPayment handles POST /api/v1/plans/{id}/payments
func (h *PlanHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	planID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid plan ID")
		return
	}

	var req dto.RecordPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if err := h.engine.RecordPayment(r.Context(), planID, req.InstallmentNumber, req.Amount); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
