package model

// ScheduleEntry is one weekly firing instant in UTC.
type ScheduleEntry struct {
	ID        int64  `json:"id"`
	UserID    string `json:"user_id"`
	DayOfWeek int    `json:"day_of_week"` // 0=Sunday .. 6=Saturday
	Time      string `json:"time"`        // HH:MM:SS
}

// Weekdays maps day-of-week numbers to the names used by the schedule API.
var Weekdays = [7]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}
