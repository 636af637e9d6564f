package kyc

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bnpl-risk-core/internal/application/dto"
	"bnpl-risk-core/internal/domain/credit"
	"bnpl-risk-core/internal/domain/kyc"
	"bnpl-risk-core/internal/domain/notification"
	"bnpl-risk-core/internal/domain/user"
	"bnpl-risk-core/internal/pkg/clock"
)

type fakeUsers struct {
	users map[uuid.UUID]*user.User
}

func (r *fakeUsers) GetByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	if u, ok := r.users[id]; ok {
		return u, nil
	}
	return nil, user.ErrUserNotFound
}

func (r *fakeUsers) ListByRoles(context.Context, ...user.Role) ([]*user.User, error) {
	return nil, nil
}

type fakeProfiles struct {
	profiles map[uuid.UUID]*credit.FinancialProfile
	saved    int
}

func (r *fakeProfiles) GetByUserID(_ context.Context, userID uuid.UUID) (*credit.FinancialProfile, error) {
	if p, ok := r.profiles[userID]; ok {
		return p, nil
	}
	return nil, credit.ErrProfileNotFound
}

func (r *fakeProfiles) Save(_ context.Context, p *credit.FinancialProfile) error {
	r.profiles[p.UserID] = p
	r.saved++
	return nil
}

func newVerifyFixture(t *testing.T, outcome bool) (*VerifyUseCase, *fakeProfiles, uuid.UUID, *int) {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	userID := uuid.New()
	users := &fakeUsers{users: map[uuid.UUID]*user.User{
		userID: {ID: userID, Role: user.RoleCustomer, CreatedAt: now.AddDate(-1, 0, 0)},
	}}
	profiles := &fakeProfiles{profiles: map[uuid.UUID]*credit.FinancialProfile{}}

	notified := 0
	notifier := notification.NotifierFunc(func(context.Context, uuid.UUID, notification.Type, string, map[string]string) error {
		notified++
		return nil
	})

	verifier := &kyc.StaticVerifier{Outcome: outcome}
	uc := NewVerifyUseCase(users, profiles, verifier, verifier, notifier, clock.NewFixed(now), log)
	return uc, profiles, userID, &notified
}

func submitReq(userID uuid.UUID) *dto.KYCSubmitRequest {
	return &dto.KYCSubmitRequest{UserID: userID, DocumentRef: "doc-1", SelfieRef: "selfie-1"}
}

func TestSubmitApprovesWhenBothChecksPass(t *testing.T) {
	uc, profiles, userID, notified := newVerifyFixture(t, true)
	profiles.profiles[userID] = &credit.FinancialProfile{UserID: userID, KYCStatus: kyc.StatusPending}

	resp, err := uc.Submit(context.Background(), submitReq(userID))
	require.NoError(t, err)

	assert.Equal(t, string(kyc.StatusApproved), resp.Status)
	assert.Equal(t, kyc.StatusApproved, profiles.profiles[userID].KYCStatus)
	assert.Equal(t, 1, profiles.saved)
	assert.Equal(t, 1, *notified)
}

func TestSubmitRejectsWhenChecksFail(t *testing.T) {
	uc, profiles, userID, _ := newVerifyFixture(t, false)
	profiles.profiles[userID] = &credit.FinancialProfile{UserID: userID, KYCStatus: kyc.StatusPending}

	resp, err := uc.Submit(context.Background(), submitReq(userID))
	require.NoError(t, err)

	assert.Equal(t, string(kyc.StatusRejected), resp.Status)
	assert.Equal(t, kyc.StatusRejected, profiles.profiles[userID].KYCStatus)
}

func TestSubmitWithoutProfileStillReportsStatus(t *testing.T) {
	uc, profiles, userID, notified := newVerifyFixture(t, true)

	resp, err := uc.Submit(context.Background(), submitReq(userID))
	require.NoError(t, err)

	assert.Equal(t, string(kyc.StatusApproved), resp.Status)
	assert.Zero(t, profiles.saved, "nothing to update yet")
	assert.Equal(t, 1, *notified)
}

func TestSubmitUnknownUser(t *testing.T) {
	uc, _, _, _ := newVerifyFixture(t, true)

	_, err := uc.Submit(context.Background(), submitReq(uuid.New()))
	assert.ErrorIs(t, err, user.ErrUserNotFound)
}
