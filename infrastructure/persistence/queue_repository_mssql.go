package persistence

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/krishhhh88/instadrive-backend/domain/apperr"
	"github.com/krishhhh88/instadrive-backend/domain/model"
	"github.com/krishhhh88/instadrive-backend/domain/repository"
	"github.com/krishhhh88/instadrive-backend/infrastructure/utils"
)

// QueueRepositoryMSSQL implements the content queue for SQL Server/Azure SQL using database/sql.
type QueueRepositoryMSSQL struct{ db *sql.DB }

func NewQueueRepositoryMSSQL(db *sql.DB) repository.IQueue { return &QueueRepositoryMSSQL{db: db} }

func (r *QueueRepositoryMSSQL) ClaimNext(ctx context.Context, userID string) (*model.QueueItem, error) {
	// READPAST skips rows another claimer holds; UPDLOCK keeps the chosen row ours until commit
	q := `WITH next AS (
	SELECT TOP (1) * FROM dbo.[content_queue] WITH (UPDLOCK, READPAST, ROWLOCK)
	WHERE user_id=@p1 AND status='queued'
	ORDER BY post_order ASC, created_at ASC
)
UPDATE next SET status='processing', updated_at=@p2
OUTPUT inserted.id, inserted.user_id, inserted.google_drive_file_id, inserted.caption, inserted.post_order,
	inserted.status, inserted.error_message, inserted.created_at, inserted.updated_at;`
	item, err := scanQueueItem(r.db.QueryRowContext(ctx, q, userID, time.Now().UTC()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Persistence("claim queue item", err)
	}
	return item, nil
}

func (r *QueueRepositoryMSSQL) MarkPosted(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE dbo.[content_queue] SET status='posted', error_message=NULL, updated_at=@p1 WHERE id=@p2`, time.Now().UTC(), id)
	return apperr.Persistence("mark posted", err)
}

// MarkFailed bounds errMsg in UTF-16 units so the NVARCHAR column never rejects the write.
func (r *QueueRepositoryMSSQL) MarkFailed(ctx context.Context, id int64, errMsg string) error {
	errMsg = utils.TruncateUTF16(errMsg, utils.MaxErrorMessageLen)
	_, err := r.db.ExecContext(ctx, `UPDATE dbo.[content_queue] SET status='failed', error_message=@p1, updated_at=@p2 WHERE id=@p3`, errMsg, time.Now().UTC(), id)
	return apperr.Persistence("mark failed", err)
}

func (r *QueueRepositoryMSSQL) ListByUser(ctx context.Context, userID string) ([]*model.QueueItem, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+queueColumns+` FROM dbo.[content_queue] WHERE user_id=@p1 ORDER BY post_order ASC, created_at ASC`, userID)
	if err != nil {
		return nil, apperr.Persistence("list queue", err)
	}
	return collectQueue(rows)
}

func (r *QueueRepositoryMSSQL) Append(ctx context.Context, item *model.QueueItem) (*model.QueueItem, error) {
	q := `INSERT INTO dbo.[content_queue] (user_id, google_drive_file_id, caption, post_order, status, created_at, updated_at)
OUTPUT inserted.id, inserted.user_id, inserted.google_drive_file_id, inserted.caption, inserted.post_order,
	inserted.status, inserted.error_message, inserted.created_at, inserted.updated_at
SELECT @p1, @p2, @p3, COALESCE(MAX(post_order), 0) + 1, 'queued', @p4, @p4
FROM dbo.[content_queue] WITH (UPDLOCK, HOLDLOCK) WHERE user_id=@p1;`
	created, err := scanQueueItem(r.db.QueryRowContext(ctx, q, item.UserID, item.SourceAssetID, toNullString(item.Caption), time.Now().UTC()))
	if err != nil {
		return nil, apperr.Persistence("append queue item", err)
	}
	return created, nil
}

func (r *QueueRepositoryMSSQL) Delete(ctx context.Context, userID string, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM dbo.[content_queue] WHERE id=@p1 AND user_id=@p2`, id, userID)
	return apperr.Persistence("delete queue item", err)
}
