package usecase

import (
	"context"
	"time"

	"github.com/krishhhh88/instadrive-backend/domain/apperr"
	"github.com/krishhhh88/instadrive-backend/domain/model"
	"github.com/krishhhh88/instadrive-backend/domain/repository"
	"github.com/krishhhh88/instadrive-backend/infrastructure/logger"
)

// ExpirySkew is the margin a stored token must still have before it is used as-is.
const ExpirySkew = 60 * time.Second

type ICredentialUsecase interface {
	// EnsureAccessToken returns a plaintext access token for the account, refreshing
	// and persisting a new one when the stored token is missing or about to expire.
	EnsureAccessToken(ctx context.Context, account *model.DelegatedAccount) (string, error)
	// Connect seals freshly exchanged tokens and stores them for (user, provider).
	Connect(ctx context.Context, userID string, provider model.Provider, tok *model.RefreshedToken) error
}

type credentialUsecase struct {
	accounts  repository.IAccount
	codec     repository.ISecretCodec
	locker    repository.IRefreshLocker
	providers map[model.Provider]repository.ITokenProvider
	now       func() time.Time
}

func NewCredentialUsecase(accounts repository.IAccount, codec repository.ISecretCodec, locker repository.IRefreshLocker, providers ...repository.ITokenProvider) ICredentialUsecase {
	byName := make(map[model.Provider]repository.ITokenProvider, len(providers))
	for _, p := range providers {
		byName[p.Provider()] = p
	}
	return &credentialUsecase{
		accounts:  accounts,
		codec:     codec,
		locker:    locker,
		providers: byName,
		now:       time.Now,
	}
}

// usable reports whether the stored access token can be used without refreshing.
// A nil expiry is treated as non-expiring.
func usable(account *model.DelegatedAccount, now time.Time) bool {
	if account.AccessTokenEnc == nil || *account.AccessTokenEnc == "" {
		return false
	}
	if account.ExpiresAt == nil {
		return true
	}
	return account.ExpiresAt.After(now.Add(ExpirySkew))
}

func (u *credentialUsecase) EnsureAccessToken(ctx context.Context, account *model.DelegatedAccount) (string, error) {
	provider, ok := u.providers[account.Provider]
	if !ok {
		return "", &apperr.ConfigError{Msg: "unsupported provider " + string(account.Provider)}
	}
	if usable(account, u.now()) {
		return u.codec.Open(*account.AccessTokenEnc)
	}

	unlock, err := u.locker.Lock(ctx, account.ID)
	if err != nil {
		return "", err
	}
	defer unlock()

	// Another caller may have refreshed while we waited for the lock.
	current, err := u.accounts.GetByID(ctx, account.ID)
	if err != nil {
		return "", apperr.Persistence("get account", err)
	}
	if current == nil {
		return "", &apperr.RefreshError{Provider: string(account.Provider), Msg: "account not found"}
	}
	if usable(current, u.now()) {
		*account = *current
		return u.codec.Open(*current.AccessTokenEnc)
	}
	if current.RefreshTokenEnc == nil || *current.RefreshTokenEnc == "" {
		return "", &apperr.RefreshError{Provider: string(current.Provider), Msg: "no refresh token"}
	}

	refreshToken, err := u.codec.Open(*current.RefreshTokenEnc)
	if err != nil {
		return "", err
	}
	tok, err := provider.Refresh(ctx, refreshToken)
	if err != nil {
		return "", err
	}
	sealed, err := u.codec.Seal(tok.AccessToken)
	if err != nil {
		return "", err
	}
	if err := u.accounts.UpdateAccessToken(ctx, current.ID, sealed, tok.ExpiresAt); err != nil {
		return "", apperr.Persistence("update access token", err)
	}

	logger.GetLogger().
		WithField("account_id", current.ID).
		WithField("provider", current.Provider).
		Info("Refreshed access token")

	*account = *current
	account.AccessTokenEnc = &sealed
	account.ExpiresAt = tok.ExpiresAt
	return tok.AccessToken, nil
}

func (u *credentialUsecase) Connect(ctx context.Context, userID string, provider model.Provider, tok *model.RefreshedToken) error {
	if !provider.Valid() {
		return &apperr.ConfigError{Msg: "unsupported provider " + string(provider)}
	}
	if tok == nil || tok.AccessToken == "" {
		return &apperr.ValidationError{Msg: "missing access token"}
	}
	access, err := u.codec.Seal(tok.AccessToken)
	if err != nil {
		return err
	}
	account := &model.DelegatedAccount{
		UserID:         userID,
		Provider:       provider,
		AccessTokenEnc: &access,
		ExpiresAt:      tok.ExpiresAt,
		Scope:          tok.Scope,
	}
	if tok.RefreshToken != "" {
		refresh, err := u.codec.Seal(tok.RefreshToken)
		if err != nil {
			return err
		}
		account.RefreshTokenEnc = &refresh
	}
	if err := u.accounts.Upsert(ctx, account); err != nil {
		return apperr.Persistence("upsert account", err)
	}
	logger.GetLogger().
		WithField("user_id", userID).
		WithField("provider", provider).
		Info("Connected provider account")
	return nil
}
