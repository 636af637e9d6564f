package kyc

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"bnpl-risk-core/internal/application/dto"
	"bnpl-risk-core/internal/domain/credit"
	"bnpl-risk-core/internal/domain/kyc"
	"bnpl-risk-core/internal/domain/notification"
	"bnpl-risk-core/internal/domain/user"
	"bnpl-risk-core/internal/pkg/clock"
)

// VerifyUseCase runs a KYC submission through document verification and
// face matching and lands the verdict on the user's financial profile.
// Both checks must pass for APPROVED; either failure means REJECTED.
type VerifyUseCase struct {
	users    user.Repository
	profiles credit.ProfileRepository
	docs     kyc.DocumentVerifier
	faces    kyc.FaceMatcher
	notifier notification.Notifier
	clock    clock.Clock
	log      *logrus.Logger
}

// NewVerifyUseCase creates the use case.
func NewVerifyUseCase(users user.Repository, profiles credit.ProfileRepository, docs kyc.DocumentVerifier, faces kyc.FaceMatcher, notifier notification.Notifier, clk clock.Clock, log *logrus.Logger) *VerifyUseCase {
	return &VerifyUseCase{users: users, profiles: profiles, docs: docs, faces: faces, notifier: notifier, clock: clk, log: log}
}

// Submit verifies the submitted evidence and records the outcome.
func (uc *VerifyUseCase) Submit(ctx context.Context, req *dto.KYCSubmitRequest) (*dto.KYCSubmitResponse, error) {
	usr, err := uc.users.GetByID(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("kyc submit: %w", err)
	}

	docOK, err := uc.docs.VerifyDocument(ctx, usr.ID, req.DocumentRef)
	if err != nil {
		return nil, fmt.Errorf("verify document: %w", err)
	}
	faceOK, err := uc.faces.MatchFace(ctx, usr.ID, req.SelfieRef)
	if err != nil {
		return nil, fmt.Errorf("match face: %w", err)
	}

	status := kyc.StatusRejected
	if docOK && faceOK {
		status = kyc.StatusApproved
	}

	// A profile only exists once the user has asked for a limit; until
	// then the verdict lives with the upstream KYC pipeline alone.
	profile, err := uc.profiles.GetByUserID(ctx, usr.ID)
	switch {
	case err == nil:
		profile.KYCStatus = status
		profile.UpdatedAt = uc.clock.Now()
		if err := uc.profiles.Save(ctx, profile); err != nil {
			return nil, fmt.Errorf("save profile: %w", err)
		}
	case errors.Is(err, credit.ErrProfileNotFound):
	default:
		return nil, fmt.Errorf("load profile: %w", err)
	}

	if err := uc.notifier.Notify(ctx, usr.ID, notification.TypeKYCUpdated,
		fmt.Sprintf("Your identity verification is %s.", status),
		map[string]string{"status": string(status)}); err != nil {
		uc.log.WithError(err).WithField("user_id", usr.ID).Warn("notification failed")
	}

	uc.log.WithFields(logrus.Fields{
		"user_id": usr.ID,
		"status":  string(status),
	}).Info("kyc submission processed")

	return &dto.KYCSubmitResponse{UserID: usr.ID, Status: string(status)}, nil
}
