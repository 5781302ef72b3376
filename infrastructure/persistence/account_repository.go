package persistence

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/krishhhh88/instadrive-backend/domain/apperr"
	"github.com/krishhhh88/instadrive-backend/domain/model"
	"github.com/krishhhh88/instadrive-backend/domain/repository"
)

// AccountRepository stores delegated OAuth accounts in PostgreSQL.
type AccountRepository struct{ db *sql.DB }

func NewAccountRepository(db *sql.DB) repository.IAccount { return &AccountRepository{db: db} }

func (r *AccountRepository) FindByUserAndProvider(ctx context.Context, userID string, provider model.Provider) ([]*model.DelegatedAccount, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE user_id=$1 AND provider=$2 ORDER BY created_at DESC`, userID, string(provider))
	if err != nil {
		return nil, apperr.Persistence("find accounts", err)
	}
	defer rows.Close()
	var list []*model.DelegatedAccount
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, apperr.Persistence("find accounts", err)
		}
		list = append(list, acc)
	}
	return list, apperr.Persistence("find accounts", rows.Err())
}

func (r *AccountRepository) GetByID(ctx context.Context, id int64) (*model.DelegatedAccount, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id=$1`, id)
	acc, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Persistence("get account", err)
	}
	return acc, nil
}

func (r *AccountRepository) UpdateAccessToken(ctx context.Context, id int64, accessTokenEnc string, expiresAt *time.Time) error {
	var exp sql.NullTime
	if expiresAt != nil {
		exp = sql.NullTime{Time: expiresAt.UTC(), Valid: true}
	}
	_, err := r.db.ExecContext(ctx, `UPDATE accounts SET access_token_enc=$1, token_expires_at=$2, updated_at=$3 WHERE id=$4`,
		accessTokenEnc, exp, time.Now().UTC(), id)
	return apperr.Persistence("update access token", err)
}

func (r *AccountRepository) Upsert(ctx context.Context, a *model.DelegatedAccount) error {
	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	q := `INSERT INTO accounts (user_id, provider, access_token_enc, refresh_token_enc, token_expires_at, scope, created_at, updated_at)
		  VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		  ON CONFLICT (user_id, provider) DO UPDATE SET
			access_token_enc=EXCLUDED.access_token_enc,
			refresh_token_enc=COALESCE(EXCLUDED.refresh_token_enc, accounts.refresh_token_enc),
			token_expires_at=EXCLUDED.token_expires_at,
			scope=EXCLUDED.scope,
			updated_at=EXCLUDED.updated_at
		  RETURNING id`
	err := r.db.QueryRowContext(ctx, q, a.UserID, string(a.Provider), toNullString(a.AccessTokenEnc), toNullString(a.RefreshTokenEnc),
		toNullTime(a), a.Scope, a.CreatedAt, a.UpdatedAt).Scan(&a.ID)
	return apperr.Persistence("upsert account", err)
}
