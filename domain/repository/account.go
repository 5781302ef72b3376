package repository

import (
	"context"
	"time"

	"github.com/krishhhh88/instadrive-backend/domain/model"
)

// IAccount persists delegated provider credentials.
type IAccount interface {
	// FindByUserAndProvider returns every account for the pair, newest first.
	FindByUserAndProvider(ctx context.Context, userID string, provider model.Provider) ([]*model.DelegatedAccount, error)
	GetByID(ctx context.Context, id int64) (*model.DelegatedAccount, error)
	// UpdateAccessToken stores a refreshed sealed token and its expiry (nil = non-expiring).
	UpdateAccessToken(ctx context.Context, id int64, accessTokenEnc string, expiresAt *time.Time) error
	// Upsert inserts or replaces the account for (user, provider).
	Upsert(ctx context.Context, account *model.DelegatedAccount) error
}
