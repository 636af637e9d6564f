package handler

import (
	"encoding/json"
	"net/http"

	"bnpl-risk-core/internal/application/dto"
	appkyc "bnpl-risk-core/internal/application/kyc"
)

// KYCHandler handles identity verification HTTP requests
type KYCHandler struct {
	verify *appkyc.VerifyUseCase
}

// NewKYCHandler creates a new KYC handler
func NewKYCHandler(verify *appkyc.VerifyUseCase) *KYCHandler {
	return &KYCHandler{verify: verify}
}

// Submit handles POST /api/v1/kyc/verify
func (h *KYCHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req dto.KYCSubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.DocumentRef == "" || req.SelfieRef == "" {
		writeError(w, http.StatusBadRequest, "document_ref and selfie_ref are required")
		return
	}

	resp, err := h.verify.Submit(r.Context(), &req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
