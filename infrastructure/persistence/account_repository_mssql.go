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

type AccountRepositoryMSSQL struct{ db *sql.DB }

func NewAccountRepositoryMSSQL(db *sql.DB) repository.IAccount {
	return &AccountRepositoryMSSQL{db: db}
}

func (r *AccountRepositoryMSSQL) FindByUserAndProvider(ctx context.Context, userID string, provider model.Provider) ([]*model.DelegatedAccount, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+accountColumns+` FROM dbo.[accounts] WHERE user_id=@p1 AND provider=@p2 ORDER BY created_at DESC`, userID, string(provider))
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

func (r *AccountRepositoryMSSQL) GetByID(ctx context.Context, id int64) (*model.DelegatedAccount, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM dbo.[accounts] WHERE id=@p1`, id)
	acc, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Persistence("get account", err)
	}
	return acc, nil
}

func (r *AccountRepositoryMSSQL) UpdateAccessToken(ctx context.Context, id int64, accessTokenEnc string, expiresAt *time.Time) error {
	var exp sql.NullTime
	if expiresAt != nil {
		exp = sql.NullTime{Time: expiresAt.UTC(), Valid: true}
	}
	_, err := r.db.ExecContext(ctx, `UPDATE dbo.[accounts] SET access_token_enc=@p1, token_expires_at=@p2, updated_at=@p3 WHERE id=@p4`,
		accessTokenEnc, exp, time.Now().UTC(), id)
	return apperr.Persistence("update access token", err)
}

func (r *AccountRepositoryMSSQL) Upsert(ctx context.Context, a *model.DelegatedAccount) error {
	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	// MERGE upsert by (user_id, provider); a missing refresh token keeps the stored one
	q := `MERGE dbo.[accounts] WITH (HOLDLOCK) AS target
USING (VALUES (@p1, @p2)) AS src(user_id, provider)
ON target.user_id = src.user_id AND target.provider = src.provider
WHEN MATCHED THEN UPDATE SET
    access_token_enc=@p3,
    refresh_token_enc=COALESCE(@p4, target.refresh_token_enc),
    token_expires_at=@p5,
    scope=@p6,
    updated_at=@p8
WHEN NOT MATCHED THEN
    INSERT (user_id, provider, access_token_enc, refresh_token_enc, token_expires_at, scope, created_at, updated_at)
    VALUES (@p1,@p2,@p3,@p4,@p5,@p6,@p7,@p8)
OUTPUT inserted.id;`
	err := r.db.QueryRowContext(ctx, q, a.UserID, string(a.Provider), toNullString(a.AccessTokenEnc), toNullString(a.RefreshTokenEnc),
		toNullTime(a), a.Scope, a.CreatedAt, a.UpdatedAt).Scan(&a.ID)
	return apperr.Persistence("upsert account", err)
}
