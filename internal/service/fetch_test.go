package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/spendlens/spendlens/internal/core"
	"github.com/spendlens/spendlens/internal/domain/model"
	apperrors "github.com/spendlens/spendlens/internal/errors"
	"github.com/spendlens/spendlens/internal/mocks"
	"github.com/spendlens/spendlens/internal/provider"
	"github.com/spendlens/spendlens/internal/testutil"
)

// scriptedProvider is a hand stub over the provider interface with scripted
// responses and call tracking.
type scriptedProvider struct {
	connectErr   error
	page         *provider.MessagePage
	fetchErr     error
	bodies       map[string]*provider.Message
	bodyErr      error
	creds        provider.Credentials
	disconnects  int
	connectCalls int
}

func (s *scriptedProvider) Connect(_ context.Context, creds provider.Credentials) error {
	s.connectCalls++
	s.creds = creds
	return s.connectErr
}

func (s *scriptedProvider) FetchMessages(context.Context, string, int) (*provider.MessagePage, error) {
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	if s.page == nil {
		return &provider.MessagePage{}, nil
	}
	return s.page, nil
}

func (s *scriptedProvider) FetchMessageBody(_ context.Context, id string) (*provider.Message, error) {
	if s.bodyErr != nil {
		return nil, s.bodyErr
	}
	if msg, ok := s.bodies[id]; ok {
		return msg, nil
	}
	return &provider.Message{ProviderMessageID: id}, nil
}

func (s *scriptedProvider) Disconnect() {
	s.disconnects++
}

func newTestFetchService(t *testing.T, accounts *mocks.MockAccountRepository, emails *mocks.MockEmailRepository, p provider.Provider) *FetchService {
	t.Helper()
	svc, err := NewFetchService(FetchServiceOptions{
		Accounts:    accounts,
		Emails:      emails,
		Logger:      testLogger(),
		Google:      GoogleClientConfig{ClientID: "cid", ClientSecret: "secret"},
		NewProvider: func(string) (provider.Provider, error) { return p, nil },
	})
	require.NoError(t, err)
	return svc
}

func fetchMessage(id string) provider.Message {
	return provider.Message{
		Provider:          "gmail",
		ProviderMessageID: id,
		ThreadID:          "thr-" + id,
		Subject:           "Receipt " + id,
		ReceivedAt:        time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestFetchRunHappyPath(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	accounts := mocks.NewMockAccountRepository(ctrl)
	emails := mocks.NewMockEmailRepository(ctrl)

	p := &scriptedProvider{
		page: &provider.MessagePage{Messages: []provider.Message{fetchMessage("m1"), fetchMessage("m2")}},
		bodies: map[string]*provider.Message{
			"m1": {ProviderMessageID: "m1", BodyText: "plain body", BodyHTML: "<p>html body</p>"},
			"m2": {ProviderMessageID: "m2", BodyText: "other body"},
		},
	}
	svc := newTestFetchService(t, accounts, emails, p)

	account := testutil.NewAccount().WithID(5).WithUserID(7).Build()
	accounts.EXPECT().ListForUser(gomock.Any(), int64(7)).Return([]*model.ConnectedAccount{account}, nil)

	emails.EXPECT().Exists(gomock.Any(), core.DedupKey{UserID: 7, Provider: "gmail", ProviderMessageID: "m1"}).Return(false, nil)
	emails.EXPECT().Exists(gomock.Any(), core.DedupKey{UserID: 7, Provider: "gmail", ProviderMessageID: "m2"}).Return(false, nil)

	var created []*model.CreateEmailRequest
	emails.EXPECT().Create(gomock.Any(), gomock.Any()).Times(2).DoAndReturn(
		func(_ context.Context, req *model.CreateEmailRequest) (*model.Email, error) {
			created = append(created, req)
			return &model.Email{ID: int64(len(created))}, nil
		})

	res, err := svc.Run(context.Background(), map[string]any{"user_id": float64(7)})
	require.NoError(t, err)
	assert.Equal(t, &FetchResult{FetchedCount: 2, SavedCount: 2, UserID: 7}, res)

	require.Len(t, created, 2)
	first := created[0]
	assert.Equal(t, int64(7), first.UserID)
	assert.Equal(t, int64(5), first.ConnectedAccountID)
	assert.Equal(t, "gmail", first.Provider)
	assert.Equal(t, "m1", first.ProviderMessageID)
	require.NotNil(t, first.BodyText)
	assert.Equal(t, "plain body", *first.BodyText)
	require.NotNil(t, first.Checksum)
	assert.Len(t, *first.Checksum, 64)

	// Google client credentials flow through for gmail.
	assert.Equal(t, "cid", p.creds.ClientID)
	assert.Equal(t, "secret", p.creds.ClientSecret)
	assert.Equal(t, account.AccessToken, p.creds.AccessToken)
	assert.Equal(t, 1, p.disconnects)
}

func TestFetchRunDeduplicates(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	accounts := mocks.NewMockAccountRepository(ctrl)
	emails := mocks.NewMockEmailRepository(ctrl)

	p := &scriptedProvider{
		page: &provider.MessagePage{Messages: []provider.Message{fetchMessage("m1")}},
	}
	svc := newTestFetchService(t, accounts, emails, p)

	account := testutil.NewAccount().WithUserID(7).Build()
	accounts.EXPECT().ListForUser(gomock.Any(), int64(7)).Return([]*model.ConnectedAccount{account}, nil)
	emails.EXPECT().Exists(gomock.Any(), gomock.Any()).Return(true, nil)

	res, err := svc.Run(context.Background(), map[string]any{"user_id": float64(7)})
	require.NoError(t, err)
	assert.Equal(t, 1, res.FetchedCount)
	assert.Equal(t, 0, res.SavedCount)
}

func TestFetchRunInsertRaceIsSkipped(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	accounts := mocks.NewMockAccountRepository(ctrl)
	emails := mocks.NewMockEmailRepository(ctrl)

	p := &scriptedProvider{
		page: &provider.MessagePage{Messages: []provider.Message{fetchMessage("m1")}},
	}
	svc := newTestFetchService(t, accounts, emails, p)

	account := testutil.NewAccount().WithUserID(7).Build()
	accounts.EXPECT().ListForUser(gomock.Any(), int64(7)).Return([]*model.ConnectedAccount{account}, nil)
	emails.EXPECT().Exists(gomock.Any(), gomock.Any()).Return(false, nil)
	emails.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil, apperrors.Conflict("value already exists"))

	res, err := svc.Run(context.Background(), map[string]any{"user_id": float64(7)})
	require.NoError(t, err)
	assert.Equal(t, 1, res.FetchedCount)
	assert.Equal(t, 0, res.SavedCount)
}

func TestFetchRunAccountResolution(t *testing.T) {
	t.Run("missing user_id", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		svc := newTestFetchService(t, mocks.NewMockAccountRepository(ctrl), mocks.NewMockEmailRepository(ctrl), &scriptedProvider{})
		_, err := svc.Run(context.Background(), map[string]any{})
		require.Error(t, err)
		assert.True(t, apperrors.IsValidation(err))
		assert.Contains(t, err.Error(), "user_id is required")
	})

	t.Run("explicit account_id overrides provider kwarg", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		accounts := mocks.NewMockAccountRepository(ctrl)
		emails := mocks.NewMockEmailRepository(ctrl)
		p := &scriptedProvider{}
		svc := newTestFetchService(t, accounts, emails, p)

		account := testutil.NewAccount().WithID(42).WithUserID(7).WithProvider("gmail").Build()
		accounts.EXPECT().GetByID(gomock.Any(), int64(42)).Return(account, nil)

		res, err := svc.Run(context.Background(), map[string]any{
			"user_id":    float64(7),
			"provider":   "outlook",
			"account_id": float64(42),
		})
		require.NoError(t, err)
		assert.Equal(t, int64(7), res.UserID)
		assert.Equal(t, 1, p.connectCalls)
	})

	t.Run("account belonging to someone else", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		accounts := mocks.NewMockAccountRepository(ctrl)
		svc := newTestFetchService(t, accounts, mocks.NewMockEmailRepository(ctrl), &scriptedProvider{})

		other := testutil.NewAccount().WithID(42).WithUserID(99).Build()
		accounts.EXPECT().GetByID(gomock.Any(), int64(42)).Return(other, nil)

		_, err := svc.Run(context.Background(), map[string]any{"user_id": float64(7), "account_id": float64(42)})
		require.Error(t, err)
		assert.True(t, apperrors.IsValidation(err))
		assert.Contains(t, err.Error(), "does not belong to user 7")
	})

	t.Run("unknown account_id", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		accounts := mocks.NewMockAccountRepository(ctrl)
		svc := newTestFetchService(t, accounts, mocks.NewMockEmailRepository(ctrl), &scriptedProvider{})

		accounts.EXPECT().GetByID(gomock.Any(), int64(42)).Return(nil, apperrors.NotFoundf("account 42 not found"))

		_, err := svc.Run(context.Background(), map[string]any{"user_id": float64(7), "account_id": float64(42)})
		require.Error(t, err)
		assert.True(t, apperrors.IsValidation(err))
	})

	t.Run("no active account for provider", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		accounts := mocks.NewMockAccountRepository(ctrl)
		svc := newTestFetchService(t, accounts, mocks.NewMockEmailRepository(ctrl), &scriptedProvider{})

		inactive := testutil.NewAccount().WithUserID(7).Inactive().Build()
		accounts.EXPECT().ListForUser(gomock.Any(), int64(7)).Return([]*model.ConnectedAccount{inactive}, nil)

		_, err := svc.Run(context.Background(), map[string]any{"user_id": float64(7)})
		require.Error(t, err)
		assert.True(t, apperrors.IsValidation(err))
		assert.Contains(t, err.Error(), "no active gmail account")
	})
}

func TestFetchRunAuthFailureDeactivatesAccount(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	accounts := mocks.NewMockAccountRepository(ctrl)
	emails := mocks.NewMockEmailRepository(ctrl)

	p := &scriptedProvider{connectErr: provider.NewAuthError("gmail", "token revoked", nil)}
	svc := newTestFetchService(t, accounts, emails, p)

	account := testutil.NewAccount().WithID(5).WithUserID(7).Build()
	accounts.EXPECT().ListForUser(gomock.Any(), int64(7)).Return([]*model.ConnectedAccount{account}, nil)
	accounts.EXPECT().Deactivate(gomock.Any(), int64(5)).Return(nil)

	_, err := svc.Run(context.Background(), map[string]any{"user_id": float64(7)})
	require.Error(t, err)
	assert.True(t, provider.IsAuth(err))
	// Disconnect still runs on the failure path.
	assert.Equal(t, 1, p.disconnects)
}

func TestFetchRunFetchErrorPropagates(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	accounts := mocks.NewMockAccountRepository(ctrl)
	emails := mocks.NewMockEmailRepository(ctrl)

	p := &scriptedProvider{fetchErr: provider.NewRateLimitError("gmail", "throttled", nil)}
	svc := newTestFetchService(t, accounts, emails, p)

	account := testutil.NewAccount().WithUserID(7).Build()
	accounts.EXPECT().ListForUser(gomock.Any(), int64(7)).Return([]*model.ConnectedAccount{account}, nil)

	_, err := svc.Run(context.Background(), map[string]any{"user_id": float64(7)})
	require.Error(t, err)
	assert.True(t, provider.IsRateLimit(err))
}
