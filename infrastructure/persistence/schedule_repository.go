package persistence

import (
	"context"
	"database/sql"
	"time"

	"github.com/krishhhh88/instadrive-backend/domain/apperr"
	"github.com/krishhhh88/instadrive-backend/domain/model"
	"github.com/krishhhh88/instadrive-backend/domain/repository"
)

type ScheduleRepository struct{ db *sql.DB }

func NewScheduleRepository(db *sql.DB) repository.ISchedule { return &ScheduleRepository{db: db} }

func (r *ScheduleRepository) FindByBucket(ctx context.Context, dayOfWeek int, timeOfDay string) ([]*model.ScheduleEntry, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, user_id, day_of_week, time FROM schedules WHERE day_of_week=$1 AND time=$2 ORDER BY id`, dayOfWeek, timeOfDay)
	if err != nil {
		return nil, apperr.Persistence("find schedules", err)
	}
	return collectSchedules(rows, "find schedules")
}

func (r *ScheduleRepository) ListByUser(ctx context.Context, userID string) ([]*model.ScheduleEntry, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, user_id, day_of_week, time FROM schedules WHERE user_id=$1 ORDER BY day_of_week, time`, userID)
	if err != nil {
		return nil, apperr.Persistence("list schedules", err)
	}
	return collectSchedules(rows, "list schedules")
}

func (r *ScheduleRepository) ReplaceForUser(ctx context.Context, userID string, entries []*model.ScheduleEntry) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return apperr.Persistence("replace schedules", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if _, err = tx.ExecContext(ctx, `DELETE FROM schedules WHERE user_id=$1`, userID); err != nil {
		return apperr.Persistence("replace schedules", err)
	}
	for _, e := range entries {
		if _, err = tx.ExecContext(ctx, `INSERT INTO schedules (user_id, day_of_week, time) VALUES ($1,$2,$3)`, userID, e.DayOfWeek, e.Time); err != nil {
			return apperr.Persistence("replace schedules", err)
		}
	}
	if err = tx.Commit(); err != nil {
		return apperr.Persistence("replace schedules", err)
	}
	return nil
}

func (r *ScheduleRepository) MarkFired(ctx context.Context, userID string, at time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `INSERT INTO schedule_firings (user_id, fired_at) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		userID, at.UTC().Truncate(time.Minute))
	return firstFiring(res, err)
}

func firstFiring(res sql.Result, err error) (bool, error) {
	if err != nil {
		return false, apperr.Persistence("mark schedule fired", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, apperr.Persistence("mark schedule fired", err)
	}
	return n == 1, nil
}

func collectSchedules(rows *sql.Rows, op string) ([]*model.ScheduleEntry, error) {
	defer rows.Close()
	var list []*model.ScheduleEntry
	for rows.Next() {
		e := &model.ScheduleEntry{}
		if err := rows.Scan(&e.ID, &e.UserID, &e.DayOfWeek, &e.Time); err != nil {
			return nil, apperr.Persistence(op, err)
		}
		list = append(list, e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Persistence(op, err)
	}
	return list, nil
}
