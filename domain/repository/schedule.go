package repository

import (
	"context"
	"time"

	"github.com/krishhhh88/instadrive-backend/domain/model"
)

type ISchedule interface {
	// FindByBucket returns entries whose day and time equal the bucket exactly.
	FindByBucket(ctx context.Context, dayOfWeek int, timeOfDay string) ([]*model.ScheduleEntry, error)
	ListByUser(ctx context.Context, userID string) ([]*model.ScheduleEntry, error)
	// ReplaceForUser swaps all of a user's entries atomically.
	ReplaceForUser(ctx context.Context, userID string, entries []*model.ScheduleEntry) error
	// MarkFired records that the user's schedule fired for the minute at. It
	// returns false when that minute was already recorded.
	MarkFired(ctx context.Context, userID string, at time.Time) (bool, error)
}
