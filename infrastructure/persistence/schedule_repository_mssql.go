package persistence

import (
	"context"
	"database/sql"
	"time"

	"github.com/krishhhh88/instadrive-backend/domain/apperr"
	"github.com/krishhhh88/instadrive-backend/domain/model"
	"github.com/krishhhh88/instadrive-backend/domain/repository"
)

type ScheduleRepositoryMSSQL struct{ db *sql.DB }

func NewScheduleRepositoryMSSQL(db *sql.DB) repository.ISchedule {
	return &ScheduleRepositoryMSSQL{db: db}
}

func (r *ScheduleRepositoryMSSQL) FindByBucket(ctx context.Context, dayOfWeek int, timeOfDay string) ([]*model.ScheduleEntry, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, user_id, day_of_week, [time] FROM dbo.[schedules] WHERE day_of_week=@p1 AND [time]=@p2 ORDER BY id`, dayOfWeek, timeOfDay)
	if err != nil {
		return nil, apperr.Persistence("find schedules", err)
	}
	return collectSchedules(rows, "find schedules")
}

func (r *ScheduleRepositoryMSSQL) ListByUser(ctx context.Context, userID string) ([]*model.ScheduleEntry, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, user_id, day_of_week, [time] FROM dbo.[schedules] WHERE user_id=@p1 ORDER BY day_of_week, [time]`, userID)
	if err != nil {
		return nil, apperr.Persistence("list schedules", err)
	}
	return collectSchedules(rows, "list schedules")
}

func (r *ScheduleRepositoryMSSQL) ReplaceForUser(ctx context.Context, userID string, entries []*model.ScheduleEntry) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return apperr.Persistence("replace schedules", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if _, err = tx.ExecContext(ctx, `DELETE FROM dbo.[schedules] WHERE user_id=@p1`, userID); err != nil {
		return apperr.Persistence("replace schedules", err)
	}
	for _, e := range entries {
		if _, err = tx.ExecContext(ctx, `INSERT INTO dbo.[schedules] (user_id, day_of_week, [time]) VALUES (@p1,@p2,@p3)`, userID, e.DayOfWeek, e.Time); err != nil {
			return apperr.Persistence("replace schedules", err)
		}
	}
	if err = tx.Commit(); err != nil {
		return apperr.Persistence("replace schedules", err)
	}
	return nil
}

func (r *ScheduleRepositoryMSSQL) MarkFired(ctx context.Context, userID string, at time.Time) (bool, error) {
	q := `INSERT INTO dbo.[schedule_firings] (user_id, fired_at)
SELECT @p1, @p2
WHERE NOT EXISTS (SELECT 1 FROM dbo.[schedule_firings] WITH (UPDLOCK, HOLDLOCK) WHERE user_id=@p1 AND fired_at=@p2);`
	res, err := r.db.ExecContext(ctx, q, userID, at.UTC().Truncate(time.Minute))
	return firstFiring(res, err)
}
