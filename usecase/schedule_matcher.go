package usecase

import (
	"context"
	"time"

	"github.com/krishhhh88/instadrive-backend/domain/apperr"
	"github.com/krishhhh88/instadrive-backend/domain/model"
	"github.com/krishhhh88/instadrive-backend/domain/repository"
)

// TimeBucket reduces an instant to the UTC weekday and minute it belongs to.
// Seconds are dropped, so every instant within one minute maps to the same bucket.
func TimeBucket(now time.Time) (int, string) {
	t := now.UTC().Truncate(time.Minute)
	return int(t.Weekday()), t.Format("15:04") + ":00"
}

// MatchSchedules returns the schedule entries due in the minute containing now.
func MatchSchedules(ctx context.Context, schedules repository.ISchedule, now time.Time) ([]*model.ScheduleEntry, error) {
	day, at := TimeBucket(now)
	entries, err := schedules.FindByBucket(ctx, day, at)
	if err != nil {
		return nil, apperr.Persistence("find schedules", err)
	}
	return entries, nil
}
