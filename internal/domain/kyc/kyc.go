package kyc

import (
	"context"

	"github.com/google/uuid"
)

// Status is the verification tier reported by the KYC pipeline.
// Document collection and face matching happen outside this core;
// we only consume the verdict.
type Status string

const (
	StatusNotSubmitted Status = "NOT_SUBMITTED"
	StatusPending      Status = "PENDING"
	StatusApproved     Status = "APPROVED"
	StatusRejected     Status = "REJECTED"
)

// IsVerified reports whether the status represents a completed, approved check.
func (s Status) IsVerified() bool {
	return s == StatusApproved
}

// Oracle answers the current KYC verdict for a user.
type Oracle interface {
	Status(ctx context.Context, userID uuid.UUID) (Status, error)
}

// DocumentVerifier validates an identity document. The production
// implementation lives outside the core; deterministic doubles are used
// in tests and standalone mode.
type DocumentVerifier interface {
	VerifyDocument(ctx context.Context, userID uuid.UUID, documentRef string) (bool, error)
}

// FaceMatcher compares a selfie against the document photo.
type FaceMatcher interface {
	MatchFace(ctx context.Context, userID uuid.UUID, selfieRef string) (bool, error)
}

// StaticOracle is a deterministic Oracle backed by a fixed map.
// Users absent from the map report StatusNotSubmitted.
type StaticOracle struct {
	Statuses map[uuid.UUID]Status
}

// Status returns the configured status for the user.
func (o *StaticOracle) Status(_ context.Context, userID uuid.UUID) (Status, error) {
	if s, ok := o.Statuses[userID]; ok {
		return s, nil
	}
	return StatusNotSubmitted, nil
}

// StaticVerifier is a deterministic DocumentVerifier/FaceMatcher pair
// that always returns the configured outcome.
type StaticVerifier struct {
	Outcome bool
}

// VerifyDocument returns the fixed outcome.
func (v *StaticVerifier) VerifyDocument(context.Context, uuid.UUID, string) (bool, error) {
	return v.Outcome, nil
}

// MatchFace returns the fixed outcome.
func (v *StaticVerifier) MatchFace(context.Context, uuid.UUID, string) (bool, error) {
	return v.Outcome, nil
}
