package usecase

import (
	"context"
	"fmt"
	"regexp"
	"sort"

	"github.com/krishhhh88/instadrive-backend/domain/apperr"
	"github.com/krishhhh88/instadrive-backend/domain/dto"
	"github.com/krishhhh88/instadrive-backend/domain/model"
	"github.com/krishhhh88/instadrive-backend/domain/repository"
)

var timeOfDayPattern = regexp.MustCompile(`^([01]\d|2[0-3]):([0-5]\d)(:00)?$`)

type IScheduleUsecase interface {
	GetWeekly(ctx context.Context, userID string) (dto.WeeklySchedule, error)
	// ReplaceWeekly discards the user's schedule and stores the enabled days of weekly.
	ReplaceWeekly(ctx context.Context, userID string, weekly dto.WeeklySchedule) error
}

type scheduleUsecase struct {
	schedules repository.ISchedule
}

func NewScheduleUsecase(schedules repository.ISchedule) IScheduleUsecase {
	return &scheduleUsecase{schedules: schedules}
}

func (u *scheduleUsecase) GetWeekly(ctx context.Context, userID string) (dto.WeeklySchedule, error) {
	entries, err := u.schedules.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Persistence("list schedules", err)
	}
	out := make(dto.WeeklySchedule, len(model.Weekdays))
	for _, name := range model.Weekdays {
		out[name] = dto.DaySchedule{Times: []string{}}
	}
	for _, e := range entries {
		if e.DayOfWeek < 0 || e.DayOfWeek >= len(model.Weekdays) {
			continue
		}
		name := model.Weekdays[e.DayOfWeek]
		day := out[name]
		day.Enabled = true
		day.Times = append(day.Times, e.Time)
		out[name] = day
	}
	for name, day := range out {
		sort.Strings(day.Times)
		out[name] = day
	}
	return out, nil
}

func (u *scheduleUsecase) ReplaceWeekly(ctx context.Context, userID string, weekly dto.WeeklySchedule) error {
	entries, err := ExpandWeekly(userID, weekly)
	if err != nil {
		return err
	}
	if err := u.schedules.ReplaceForUser(ctx, userID, entries); err != nil {
		return apperr.Persistence("replace schedules", err)
	}
	return nil
}

// ExpandWeekly turns the weekly form into schedule entries. Disabled days are
// dropped, HH:MM is widened to HH:MM:00 and repeated times collapse to one.
func ExpandWeekly(userID string, weekly dto.WeeklySchedule) ([]*model.ScheduleEntry, error) {
	var entries []*model.ScheduleEntry
	for d, name := range model.Weekdays {
		day, ok := weekly[name]
		if !ok || !day.Enabled {
			continue
		}
		seen := make(map[string]bool, len(day.Times))
		for _, raw := range day.Times {
			t, err := NormalizeTimeOfDay(raw)
			if err != nil {
				return nil, err
			}
			if seen[t] {
				continue
			}
			seen[t] = true
			entries = append(entries, &model.ScheduleEntry{UserID: userID, DayOfWeek: d, Time: t})
		}
	}
	return entries, nil
}

// NormalizeTimeOfDay accepts HH:MM or HH:MM:00 and returns HH:MM:00.
func NormalizeTimeOfDay(raw string) (string, error) {
	m := timeOfDayPattern.FindStringSubmatch(raw)
	if m == nil {
		return "", &apperr.ValidationError{Msg: fmt.Sprintf("invalid time %q", raw)}
	}
	return m[1] + ":" + m[2] + ":00", nil
}
