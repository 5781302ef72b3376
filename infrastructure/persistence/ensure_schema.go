package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
		id BIGSERIAL PRIMARY KEY,
		user_id TEXT NOT NULL,
		provider TEXT NOT NULL,
		access_token_enc TEXT,
		refresh_token_enc TEXT,
		token_expires_at TIMESTAMPTZ,
		scope TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (user_id, provider)
	)`,
	`CREATE TABLE IF NOT EXISTS schedules (
		id BIGSERIAL PRIMARY KEY,
		user_id TEXT NOT NULL,
		day_of_week SMALLINT NOT NULL CHECK (day_of_week BETWEEN 0 AND 6),
		time TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS schedules_bucket_idx ON schedules (day_of_week, time)`,
	`CREATE TABLE IF NOT EXISTS schedule_firings (
		user_id TEXT NOT NULL,
		fired_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (user_id, fired_at)
	)`,
	`CREATE TABLE IF NOT EXISTS content_queue (
		id BIGSERIAL PRIMARY KEY,
		user_id TEXT NOT NULL,
		google_drive_file_id TEXT NOT NULL,
		caption TEXT,
		post_order INTEGER NOT NULL,
		status TEXT NOT NULL DEFAULT 'queued',
		error_message TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS content_queue_claim_idx ON content_queue (user_id, status, post_order, created_at)`,
}

// Columns added after the first release; checked one by one so older databases catch up.
var postgresColumns = []struct {
	table  string
	column string
	ddl    string
}{
	{"accounts", "scope", "ALTER TABLE accounts ADD COLUMN scope TEXT NOT NULL DEFAULT ''"},
	{"content_queue", "updated_at", "ALTER TABLE content_queue ADD COLUMN updated_at TIMESTAMPTZ NOT NULL DEFAULT now()"},
}

// EnsureSchema creates the pipeline tables and adds missing columns. Safe to call at startup.
func EnsureSchema(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, ddl := range postgresSchema {
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	for _, c := range postgresColumns {
		exists, err := columnExists(ctx, db, c.table, c.column)
		if err != nil {
			return err
		}
		if !exists {
			if _, err := db.ExecContext(ctx, c.ddl); err != nil {
				return fmt.Errorf("adding column %s.%s failed: %w", c.table, c.column, err)
			}
		}
	}
	return nil
}

func columnExists(ctx context.Context, db *sql.DB, table, column string) (bool, error) {
	row := db.QueryRowContext(ctx, `SELECT 1 FROM information_schema.columns WHERE table_name=$1 AND column_name=$2`, table, column)
	var one int
	if err := row.Scan(&one); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
