// Package service decides, per source IP, whether a login attempt may
// proceed. The decision is a pure function of the current time and the
// failed-login history in the audit ledger; the limiter holds no state of
// its own, so expiry is implicit in the sliding window and no lock flag can
// go stale.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"auditgate/internal/platform/metrics"
	"auditgate/internal/ratelimit/config"
	"auditgate/internal/ratelimit/models"
	"auditgate/pkg/requestcontext"
)

// FailedLoginCounter is the single read the limiter depends on, satisfied by
// the audit service.
type FailedLoginCounter interface {
	CountFailedLoginsSince(ctx context.Context, ipAddress string, since time.Time) (int, error)
}

type Service struct {
	counter FailedLoginCounter
	logger  *slog.Logger
	metrics *metrics.Metrics
	config  config.LoginLimitConfig
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithConfig(cfg config.LoginLimitConfig) Option {
	return func(s *Service) {
		s.config = cfg
	}
}

func New(counter FailedLoginCounter, opts ...Option) (*Service, error) {
	if counter == nil {
		return nil, errors.New("failed login counter is required")
	}

	svc := &Service{
		counter: counter,
		logger:  slog.Default(),
		config:  config.Default(),
	}

	for _, opt := range opts {
		opt(svc)
	}

	return svc, nil
}

// CheckAttempt decides whether a login attempt from ipAddress may proceed.
// When the audit store is unreachable the check fails open and returns the
// full attempt budget; the failure is logged and counted.
func (s *Service) CheckAttempt(ctx context.Context, ipAddress string) models.CheckResult {
	if s.metrics != nil {
		s.metrics.IncrementLoginChecks()
	}

	now := requestcontext.Now(ctx)
	since := now.Add(-s.config.Window)

	failedAttempts, err := s.counter.CountFailedLoginsSince(ctx, ipAddress, since)
	if err != nil {
		s.logger.ErrorContext(ctx, "rate limit check failed open",
			"ip_address", ipAddress,
			"error", err,
		)
		if s.metrics != nil {
			s.metrics.IncrementLoginCheckFailOpens()
		}
		return models.CheckResult{
			Allowed:           true,
			RemainingAttempts: s.config.MaxFailedAttempts,
		}
	}

	if failedAttempts >= s.config.MaxFailedAttempts {
		lockedUntil := now.Add(s.config.LockoutDuration)
		if s.metrics != nil {
			s.metrics.IncrementLoginChecksDenied()
		}
		s.logger.WarnContext(ctx, "login attempt denied",
			"ip_address", ipAddress,
			"failed_attempts", failedAttempts,
			"locked_until", lockedUntil,
		)
		return models.CheckResult{
			Allowed:           false,
			RemainingAttempts: 0,
			LockedUntil:       &lockedUntil,
			Message:           fmt.Sprintf("Too many failed attempts. Try again in %d minutes.", int(s.config.LockoutDuration.Minutes())),
		}
	}

	return models.CheckResult{
		Allowed:           true,
		RemainingAttempts: max(0, s.config.MaxFailedAttempts-failedAttempts),
	}
}

// IsBlocked restates CheckAttempt as a boolean.
func (s *Service) IsBlocked(ctx context.Context, ipAddress string) bool {
	return !s.CheckAttempt(ctx, ipAddress).Allowed
}

// Status returns the raw failed-attempt count and the configured limits.
// Unlike CheckAttempt, store failures propagate: there is no safe default
// to display for "how many attempts do I have left".
func (s *Service) Status(ctx context.Context, ipAddress string) (*models.Status, error) {
	now := requestcontext.Now(ctx)
	since := now.Add(-s.config.Window)

	failedAttempts, err := s.counter.CountFailedLoginsSince(ctx, ipAddress, since)
	if err != nil {
		return nil, err
	}

	return &models.Status{
		FailedAttempts:    failedAttempts,
		MaxAttempts:       s.config.MaxFailedAttempts,
		TimeWindowMinutes: int(s.config.Window.Minutes()),
		IsBlocked:         failedAttempts >= s.config.MaxFailedAttempts,
	}, nil
}
