package dto

// CronRunResponse is returned when a trigger firing completes.
type CronRunResponse struct {
	OK        bool `json:"ok"`
	Processed int  `json:"processed"`
}

// CronErrorResponse is returned when the trigger is rejected or aborts.
type CronErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
