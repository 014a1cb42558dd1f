package audit

import (
	"context"
	"errors"
	"log/slog"
	"time"

	dErrors "auditgate/pkg/domain-errors"

	"auditgate/internal/platform/metrics"
)

// Service fronts the audit store with the two-tier error convention: writes
// are best-effort and never raise, reads propagate failures to the caller.
type Service struct {
	store   Store
	logger  *slog.Logger
	metrics *metrics.Metrics
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

func NewService(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("audit store is required")
	}

	svc := &Service{
		store:  store,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(svc)
	}

	return svc, nil
}

// Record appends one entry best-effort. It returns the new row's ID and true
// on success, or an empty ID and false when persistence fails. Failure is
// logged and counted but never surfaced, so audit logging can never block
// the user action that triggered it.
func (s *Service) Record(ctx context.Context, entry Entry) (string, bool) {
	if entry.Metadata == nil {
		entry.Metadata = Metadata{}
	}

	id, err := s.store.Append(ctx, entry)
	if err != nil {
		s.logger.ErrorContext(ctx, "audit entry not logged",
			"event_type", entry.EventType,
			"error", err,
		)
		if s.metrics != nil {
			s.metrics.IncrementAuditWriteFailures()
		}
		return "", false
	}

	s.logger.InfoContext(ctx, "audit entry logged",
		"event_type", entry.EventType,
		"id", id,
	)
	if s.metrics != nil {
		s.metrics.IncrementAuditEventsRecorded(entry.EventType.String())
	}
	return id, true
}

// LogsByCustomerID returns up to limit entries for one customer, newest first.
func (s *Service) LogsByCustomerID(ctx context.Context, customerID string, limit int) ([]Entry, error) {
	entries, err := s.store.ListByCustomerID(ctx, customerID, normalizeLimit(limit))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load audit logs")
	}
	return entries, nil
}

// LogsByEmail returns entries keyed by the denormalized email, for lookups
// made before authentication established a customer id.
func (s *Service) LogsByEmail(ctx context.Context, email string, limit int) ([]Entry, error) {
	entries, err := s.store.ListByEmail(ctx, email, normalizeLimit(limit))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load audit logs")
	}
	return entries, nil
}

// RecentLogsByType returns newest-first entries of one type for security
// monitoring style reads.
func (s *Service) RecentLogsByType(ctx context.Context, eventType EventType, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 100
	}
	entries, err := s.store.ListRecentByType(ctx, eventType, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load audit logs")
	}
	return entries, nil
}

// CountFailedLoginsSince counts LOGIN_FAILED rows for an IP after since.
// This read backs the login rate limiter.
func (s *Service) CountFailedLoginsSince(ctx context.Context, ipAddress string, since time.Time) (int, error) {
	count, err := s.store.CountFailedLoginsSince(ctx, ipAddress, since)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count failed logins")
	}
	return count, nil
}

// List returns a filtered, paginated admin listing with its total count.
func (s *Service) List(ctx context.Context, opts ListOptions) (*Page, error) {
	opts.Limit = normalizeLimit(opts.Limit)
	if opts.Offset < 0 {
		opts.Offset = 0
	}
	page, err := s.store.List(ctx, opts)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load audit logs")
	}
	return page, nil
}

// ExportForCustomer returns a customer's entries for a data-portability
// request, newest first, capped at ExportCeiling. A customer with no rows
// exports an empty set, not an error.
func (s *Service) ExportForCustomer(ctx context.Context, customerID string) ([]Entry, error) {
	entries, err := s.store.ListByCustomerID(ctx, customerID, ExportCeiling)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to export audit logs")
	}
	return entries, nil
}

// Anonymize scrubs PII from every row of one customer, in place. Rows keyed
// only by email (pre-account failed logins) are out of scope by contract.
// Concurrent inserts for the same customer may land after the pass; the
// next anonymize catches them (eventual, not point-in-time, consistency).
func (s *Service) Anonymize(ctx context.Context, customerID string) error {
	if err := s.store.Anonymize(ctx, customerID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to anonymize audit logs")
	}
	s.logger.InfoContext(ctx, "audit logs anonymized", "customer_id", customerID)
	return nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return 50
	}
	return limit
}
