package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

var mssqlTables = []struct {
	table string
	ddl   string
}{
	{"dbo.accounts", `CREATE TABLE dbo.[accounts] (
		id BIGINT IDENTITY(1,1) PRIMARY KEY,
		user_id NVARCHAR(191) NOT NULL,
		provider NVARCHAR(32) NOT NULL,
		access_token_enc NVARCHAR(MAX) NULL,
		refresh_token_enc NVARCHAR(MAX) NULL,
		token_expires_at DATETIME2 NULL,
		scope NVARCHAR(1024) NOT NULL DEFAULT '',
		created_at DATETIME2 NOT NULL DEFAULT SYSUTCDATETIME(),
		updated_at DATETIME2 NOT NULL DEFAULT SYSUTCDATETIME(),
		CONSTRAINT uq_accounts_user_provider UNIQUE (user_id, provider)
	)`},
	{"dbo.schedules", `CREATE TABLE dbo.[schedules] (
		id BIGINT IDENTITY(1,1) PRIMARY KEY,
		user_id NVARCHAR(191) NOT NULL,
		day_of_week TINYINT NOT NULL,
		[time] CHAR(8) NOT NULL
	)`},
	{"dbo.schedule_firings", `CREATE TABLE dbo.[schedule_firings] (
		user_id NVARCHAR(191) NOT NULL,
		fired_at DATETIME2 NOT NULL,
		CONSTRAINT pk_schedule_firings PRIMARY KEY (user_id, fired_at)
	)`},
	{"dbo.content_queue", `CREATE TABLE dbo.[content_queue] (
		id BIGINT IDENTITY(1,1) PRIMARY KEY,
		user_id NVARCHAR(191) NOT NULL,
		google_drive_file_id NVARCHAR(255) NOT NULL,
		caption NVARCHAR(MAX) NULL,
		post_order INT NOT NULL,
		status NVARCHAR(16) NOT NULL DEFAULT 'queued',
		error_message NVARCHAR(1000) NULL,
		created_at DATETIME2 NOT NULL DEFAULT SYSUTCDATETIME(),
		updated_at DATETIME2 NOT NULL DEFAULT SYSUTCDATETIME()
	)`},
}

// EnsureSchemaMSSQL creates the pipeline tables in SQL Server when they are missing.
func EnsureSchemaMSSQL(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, t := range mssqlTables {
		q := fmt.Sprintf(`IF OBJECT_ID('%s', 'U') IS NULL BEGIN %s END`, t.table, t.ddl)
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure table %s: %w", t.table, err)
		}
	}

	addIfMissing := func(table, column, ddl string) error {
		q := fmt.Sprintf(`IF COL_LENGTH('%s', '%s') IS NULL BEGIN %s END`, table, column, ddl)
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure column %s.%s: %w", table, column, err)
		}
		return nil
	}
	if err := addIfMissing("dbo.accounts", "scope", "ALTER TABLE dbo.[accounts] ADD scope NVARCHAR(1024) NOT NULL DEFAULT ''"); err != nil {
		return err
	}
	return addIfMissing("dbo.content_queue", "updated_at", "ALTER TABLE dbo.[content_queue] ADD updated_at DATETIME2 NOT NULL DEFAULT SYSUTCDATETIME()")
}
