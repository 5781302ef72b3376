package dto

// DaySchedule is one weekday of the weekly schedule form.
type DaySchedule struct {
	Enabled bool     `json:"enabled"`
	Times   []string `json:"times"`
}

// WeeklySchedule is keyed by weekday name (Sunday..Saturday).
type WeeklySchedule map[string]DaySchedule
