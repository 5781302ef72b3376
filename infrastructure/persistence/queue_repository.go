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

// QueueRepository implements the content queue on PostgreSQL.
type QueueRepository struct{ db *sql.DB }

func NewQueueRepository(db *sql.DB) repository.IQueue { return &QueueRepository{db: db} }

// ClaimNext flips the head of the user's queue to processing in one statement.
// SKIP LOCKED keeps a concurrent trigger from waiting on, then re-claiming, the same row.
func (r *QueueRepository) ClaimNext(ctx context.Context, userID string) (*model.QueueItem, error) {
	q := `UPDATE content_queue SET status='processing', updated_at=$2
WHERE status='queued' AND id = (
	SELECT id FROM content_queue
	WHERE user_id=$1 AND status='queued'
	ORDER BY post_order ASC, created_at ASC
	LIMIT 1
	FOR UPDATE SKIP LOCKED
)
RETURNING ` + queueColumns
	item, err := scanQueueItem(r.db.QueryRowContext(ctx, q, userID, time.Now().UTC()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Persistence("claim queue item", err)
	}
	return item, nil
}

func (r *QueueRepository) MarkPosted(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE content_queue SET status='posted', error_message=NULL, updated_at=$1 WHERE id=$2`, time.Now().UTC(), id)
	return apperr.Persistence("mark posted", err)
}

func (r *QueueRepository) MarkFailed(ctx context.Context, id int64, errMsg string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE content_queue SET status='failed', error_message=$1, updated_at=$2 WHERE id=$3`, errMsg, time.Now().UTC(), id)
	return apperr.Persistence("mark failed", err)
}

func (r *QueueRepository) ListByUser(ctx context.Context, userID string) ([]*model.QueueItem, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+queueColumns+` FROM content_queue WHERE user_id=$1 ORDER BY post_order ASC, created_at ASC`, userID)
	if err != nil {
		return nil, apperr.Persistence("list queue", err)
	}
	return collectQueue(rows)
}

// Append assigns the next post_order under a per-user advisory lock held until commit,
// so concurrent appends for one user never read the same MAX(post_order).
func (r *QueueRepository) Append(ctx context.Context, item *model.QueueItem) (created *model.QueueItem, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, apperr.Persistence("append queue item", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if _, err = tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, item.UserID); err != nil {
		return nil, apperr.Persistence("append queue item", err)
	}
	q := `INSERT INTO content_queue (user_id, google_drive_file_id, caption, post_order, status, created_at, updated_at)
SELECT $1, $2, $3, COALESCE(MAX(post_order), 0) + 1, 'queued', $4, $4 FROM content_queue WHERE user_id=$1
RETURNING ` + queueColumns
	created, err = scanQueueItem(tx.QueryRowContext(ctx, q, item.UserID, item.SourceAssetID, toNullString(item.Caption), time.Now().UTC()))
	if err != nil {
		return nil, apperr.Persistence("append queue item", err)
	}
	if err = tx.Commit(); err != nil {
		return nil, apperr.Persistence("append queue item", err)
	}
	return created, nil
}

func (r *QueueRepository) Delete(ctx context.Context, userID string, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM content_queue WHERE id=$1 AND user_id=$2`, id, userID)
	return apperr.Persistence("delete queue item", err)
}

func collectQueue(rows *sql.Rows) ([]*model.QueueItem, error) {
	defer rows.Close()
	list := make([]*model.QueueItem, 0)
	for rows.Next() {
		item, err := scanQueueItem(rows)
		if err != nil {
			return nil, apperr.Persistence("list queue", err)
		}
		list = append(list, item)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Persistence("list queue", err)
	}
	return list, nil
}
