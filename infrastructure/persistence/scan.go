package persistence

import (
	"database/sql"

	"github.com/krishhhh88/instadrive-backend/domain/model"
)

type rowScanner interface {
	Scan(dest ...interface{}) error
}

const accountColumns = `id, user_id, provider, access_token_enc, refresh_token_enc, token_expires_at, scope, created_at, updated_at`

const queueColumns = `id, user_id, google_drive_file_id, caption, post_order, status, error_message, created_at, updated_at`

func scanAccount(s rowScanner) (*model.DelegatedAccount, error) {
	acc := &model.DelegatedAccount{}
	var access, refresh sql.NullString
	var exp sql.NullTime
	if err := s.Scan(&acc.ID, &acc.UserID, &acc.Provider, &access, &refresh, &exp, &acc.Scope, &acc.CreatedAt, &acc.UpdatedAt); err != nil {
		return nil, err
	}
	acc.AccessTokenEnc = nullStringPtr(access)
	acc.RefreshTokenEnc = nullStringPtr(refresh)
	if exp.Valid {
		t := exp.Time.UTC()
		acc.ExpiresAt = &t
	}
	return acc, nil
}

func scanQueueItem(s rowScanner) (*model.QueueItem, error) {
	item := &model.QueueItem{}
	var caption, errMsg sql.NullString
	if err := s.Scan(&item.ID, &item.UserID, &item.SourceAssetID, &caption, &item.PostOrder, &item.Status, &errMsg, &item.CreatedAt, &item.UpdatedAt); err != nil {
		return nil, err
	}
	item.Caption = nullStringPtr(caption)
	item.ErrorMessage = nullStringPtr(errMsg)
	return item, nil
}

func nullStringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

func toNullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func toNullTime(t *model.DelegatedAccount) sql.NullTime {
	if t.ExpiresAt == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.ExpiresAt.UTC(), Valid: true}
}
