package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/krishhhh88/instadrive-backend/domain/apperr"
	"github.com/krishhhh88/instadrive-backend/domain/model"
	"github.com/krishhhh88/instadrive-backend/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func googleAccount(access string, expiresIn time.Duration) *model.DelegatedAccount {
	exp := time.Now().Add(expiresIn)
	return &model.DelegatedAccount{
		ID:              7,
		UserID:          "u1",
		Provider:        model.ProviderGoogle,
		AccessTokenEnc:  sealed(access),
		RefreshTokenEnc: sealed("refresh-1"),
		ExpiresAt:       &exp,
	}
}

func TestEnsureAccessToken_ValidTokenSkipsRefresh(t *testing.T) {
	repo := new(MockAccountRepo)
	google := &MockTokenProvider{provider: model.ProviderGoogle}
	locker := newLocalLocker()
	uc := usecase.NewCredentialUsecase(repo, prefixCodec{}, locker, google)

	token, err := uc.EnsureAccessToken(context.Background(), googleAccount("live", 10*time.Minute))

	require.NoError(t, err)
	assert.Equal(t, "live", token)
	assert.Zero(t, locker.calls)
	google.AssertNotCalled(t, "Refresh", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "UpdateAccessToken", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestEnsureAccessToken_NilExpiryIsNonExpiring(t *testing.T) {
	repo := new(MockAccountRepo)
	fb := &MockTokenProvider{provider: model.ProviderFacebook}
	uc := usecase.NewCredentialUsecase(repo, prefixCodec{}, newLocalLocker(), fb)

	acc := &model.DelegatedAccount{ID: 3, Provider: model.ProviderFacebook, AccessTokenEnc: sealed("long-lived")}
	token, err := uc.EnsureAccessToken(context.Background(), acc)

	require.NoError(t, err)
	assert.Equal(t, "long-lived", token)
	fb.AssertNotCalled(t, "Refresh", mock.Anything, mock.Anything)
}

func TestEnsureAccessToken_RefreshesWithinSkew(t *testing.T) {
	repo := new(MockAccountRepo)
	google := &MockTokenProvider{provider: model.ProviderGoogle}
	uc := usecase.NewCredentialUsecase(repo, prefixCodec{}, newLocalLocker(), google)

	acc := googleAccount("stale", 30*time.Second)
	newExp := time.Now().Add(time.Hour).UTC()
	repo.On("GetByID", mock.Anything, int64(7)).Return(googleAccount("stale", 30*time.Second), nil)
	google.On("Refresh", mock.Anything, "refresh-1").
		Return(&model.RefreshedToken{AccessToken: "fresh", ExpiresAt: &newExp}, nil)
	repo.On("UpdateAccessToken", mock.Anything, int64(7), "enc:fresh", &newExp).Return(nil)

	token, err := uc.EnsureAccessToken(context.Background(), acc)

	require.NoError(t, err)
	assert.Equal(t, "fresh", token)
	assert.Equal(t, "enc:fresh", *acc.AccessTokenEnc)
	assert.Equal(t, newExp, *acc.ExpiresAt)
	repo.AssertExpectations(t)
	google.AssertExpectations(t)
}

func TestEnsureAccessToken_MissingAccessTokenRefreshes(t *testing.T) {
	repo := new(MockAccountRepo)
	google := &MockTokenProvider{provider: model.ProviderGoogle}
	uc := usecase.NewCredentialUsecase(repo, prefixCodec{}, newLocalLocker(), google)

	acc := &model.DelegatedAccount{ID: 7, Provider: model.ProviderGoogle, RefreshTokenEnc: sealed("refresh-1")}
	repo.On("GetByID", mock.Anything, int64(7)).Return(acc, nil)
	google.On("Refresh", mock.Anything, "refresh-1").Return(&model.RefreshedToken{AccessToken: "fresh"}, nil)
	repo.On("UpdateAccessToken", mock.Anything, int64(7), "enc:fresh", (*time.Time)(nil)).Return(nil)

	token, err := uc.EnsureAccessToken(context.Background(), acc)

	require.NoError(t, err)
	assert.Equal(t, "fresh", token)
}

func TestEnsureAccessToken_RereadAfterLockSkipsRefresh(t *testing.T) {
	repo := new(MockAccountRepo)
	google := &MockTokenProvider{provider: model.ProviderGoogle}
	uc := usecase.NewCredentialUsecase(repo, prefixCodec{}, newLocalLocker(), google)

	repo.On("GetByID", mock.Anything, int64(7)).Return(googleAccount("already-fresh", time.Hour), nil)

	acc := googleAccount("stale", -time.Minute)
	token, err := uc.EnsureAccessToken(context.Background(), acc)

	require.NoError(t, err)
	assert.Equal(t, "already-fresh", token)
	assert.Equal(t, "enc:already-fresh", *acc.AccessTokenEnc)
	google.AssertNotCalled(t, "Refresh", mock.Anything, mock.Anything)
}

func TestEnsureAccessToken_NoRefreshToken(t *testing.T) {
	repo := new(MockAccountRepo)
	google := &MockTokenProvider{provider: model.ProviderGoogle}
	uc := usecase.NewCredentialUsecase(repo, prefixCodec{}, newLocalLocker(), google)

	acc := googleAccount("stale", -time.Minute)
	acc.RefreshTokenEnc = nil
	repo.On("GetByID", mock.Anything, int64(7)).Return(acc, nil)

	_, err := uc.EnsureAccessToken(context.Background(), acc)

	assert.True(t, apperr.IsRefresh(err))
	google.AssertNotCalled(t, "Refresh", mock.Anything, mock.Anything)
}

func TestEnsureAccessToken_AccountRemovedWhileWaiting(t *testing.T) {
	repo := new(MockAccountRepo)
	google := &MockTokenProvider{provider: model.ProviderGoogle}
	uc := usecase.NewCredentialUsecase(repo, prefixCodec{}, newLocalLocker(), google)

	repo.On("GetByID", mock.Anything, int64(7)).Return(nil, nil)

	_, err := uc.EnsureAccessToken(context.Background(), googleAccount("stale", -time.Minute))

	require.Error(t, err)
	assert.True(t, apperr.IsRefresh(err))
	assert.Contains(t, err.Error(), "account not found")
	google.AssertNotCalled(t, "Refresh", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "UpdateAccessToken", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestEnsureAccessToken_UnsupportedProvider(t *testing.T) {
	uc := usecase.NewCredentialUsecase(new(MockAccountRepo), prefixCodec{}, newLocalLocker())

	_, err := uc.EnsureAccessToken(context.Background(), &model.DelegatedAccount{Provider: "myspace"})

	assert.True(t, apperr.IsConfig(err))
}

func TestEnsureAccessToken_ProviderErrorLeavesStoreUntouched(t *testing.T) {
	repo := new(MockAccountRepo)
	google := &MockTokenProvider{provider: model.ProviderGoogle}
	uc := usecase.NewCredentialUsecase(repo, prefixCodec{}, newLocalLocker(), google)

	acc := googleAccount("stale", -time.Minute)
	repo.On("GetByID", mock.Anything, int64(7)).Return(acc, nil)
	google.On("Refresh", mock.Anything, "refresh-1").
		Return(nil, &apperr.RefreshError{Provider: "google", Raw: `{"error":"invalid_grant"}`})

	_, err := uc.EnsureAccessToken(context.Background(), acc)

	require.Error(t, err)
	assert.True(t, apperr.IsRefresh(err))
	assert.Contains(t, err.Error(), "invalid_grant")
	repo.AssertNotCalled(t, "UpdateAccessToken", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestEnsureAccessToken_ConcurrentCallersRefreshOnce(t *testing.T) {
	repo := new(MockAccountRepo)
	google := &MockTokenProvider{provider: model.ProviderGoogle}
	uc := usecase.NewCredentialUsecase(repo, prefixCodec{}, newLocalLocker(), google)

	newExp := time.Now().Add(time.Hour)
	repo.On("GetByID", mock.Anything, int64(7)).Return(googleAccount("stale", -time.Minute), nil).Once()
	repo.On("GetByID", mock.Anything, int64(7)).Return(googleAccount("fresh", time.Hour), nil)
	google.On("Refresh", mock.Anything, "refresh-1").
		Return(&model.RefreshedToken{AccessToken: "fresh", ExpiresAt: &newExp}, nil).Once()
	repo.On("UpdateAccessToken", mock.Anything, int64(7), "enc:fresh", mock.Anything).Return(nil).Once()

	var wg sync.WaitGroup
	tokens := make([]string, 4)
	errs := make([]error, 4)
	for i := range tokens {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tokens[i], errs[i] = uc.EnsureAccessToken(context.Background(), googleAccount("stale", -time.Minute))
		}(i)
	}
	wg.Wait()

	for i := range tokens {
		require.NoError(t, errs[i])
		assert.Equal(t, "fresh", tokens[i])
	}
	google.AssertNumberOfCalls(t, "Refresh", 1)
}

func TestConnect_SealsAndUpserts(t *testing.T) {
	repo := new(MockAccountRepo)
	uc := usecase.NewCredentialUsecase(repo, prefixCodec{}, newLocalLocker())
	exp := time.Now().Add(time.Hour)

	repo.On("Upsert", mock.Anything, mock.MatchedBy(func(a *model.DelegatedAccount) bool {
		return a.UserID == "u1" &&
			a.Provider == model.ProviderGoogle &&
			*a.AccessTokenEnc == "enc:at" &&
			*a.RefreshTokenEnc == "enc:rt" &&
			a.Scope == "drive"
	})).Return(nil)

	err := uc.Connect(context.Background(), "u1", model.ProviderGoogle,
		&model.RefreshedToken{AccessToken: "at", RefreshToken: "rt", ExpiresAt: &exp, Scope: "drive"})

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestConnect_Rejects(t *testing.T) {
	repo := new(MockAccountRepo)
	uc := usecase.NewCredentialUsecase(repo, prefixCodec{}, newLocalLocker())

	err := uc.Connect(context.Background(), "u1", "myspace", &model.RefreshedToken{AccessToken: "x"})
	assert.True(t, apperr.IsConfig(err))

	err = uc.Connect(context.Background(), "u1", model.ProviderFacebook, &model.RefreshedToken{})
	assert.True(t, apperr.IsValidation(err))

	repo.On("Upsert", mock.Anything, mock.Anything).Return(errors.New("db down"))
	err = uc.Connect(context.Background(), "u1", model.ProviderFacebook, &model.RefreshedToken{AccessToken: "x"})
	assert.True(t, apperr.IsPersistence(err))
}
