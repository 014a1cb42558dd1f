package models

import "time"

// CheckResult is the outcome of a login rate limit check.
type CheckResult struct {
	Allowed           bool       `json:"allowed"`
	RemainingAttempts int        `json:"remaining_attempts"`
	LockedUntil       *time.Time `json:"locked_until,omitempty"`
	Message           string     `json:"message,omitempty"`
}

// Status is the raw limiter state for one IP, for client-facing display
// ("you have 2 attempts left").
type Status struct {
	FailedAttempts    int  `json:"failed_attempts"`
	MaxAttempts       int  `json:"max_attempts"`
	TimeWindowMinutes int  `json:"time_window_minutes"`
	IsBlocked         bool `json:"is_blocked"`
}
