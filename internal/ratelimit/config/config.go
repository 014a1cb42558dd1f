// Package config holds rate limiting configuration. Business rules live in
// the service layer; this package only carries the numbers.
package config

import "time"

// LoginLimitConfig governs the sliding-window login limiter.
type LoginLimitConfig struct {
	// MaxFailedAttempts is the failed-login budget per IP within Window.
	MaxFailedAttempts int
	// Window is the sliding range the failed-attempt count is taken over.
	Window time.Duration
	// LockoutDuration is how long a denial advertises the IP as locked.
	LockoutDuration time.Duration
}

// Default returns the stock limits: 5 attempts per 15 minutes, 30 minute
// lockout.
func Default() LoginLimitConfig {
	return LoginLimitConfig{
		MaxFailedAttempts: 5,
		Window:            15 * time.Minute,
		LockoutDuration:   30 * time.Minute,
	}
}
