package audit

import (
	"context"
	"time"
)

// ListOptions filters and paginates admin-facing listings. All filters are
// optional and compose conjunctively; zero-value options list the full table.
// The date range is inclusive on both ends.
type ListOptions struct {
	Limit      int
	Offset     int
	EventType  EventType
	CustomerID string
	StartDate  *time.Time
	EndDate    *time.Time
}

// Page is one page of entries plus the total count over the same filter set,
// regardless of limit/offset.
type Page struct {
	Entries []Entry
	Total   int
}

// Store is the persistence port for audit entries. Postgres is the production
// implementation; the memory store backs unit tests.
//
// Append is the only write besides Anonymize. Entries are never updated field
// by field and never hard-deleted.
type Store interface {
	// Append inserts one immutable entry and returns the store-assigned ID.
	Append(ctx context.Context, entry Entry) (string, error)

	// ListByCustomerID returns up to limit entries for one customer, newest first.
	ListByCustomerID(ctx context.Context, customerID string, limit int) ([]Entry, error)

	// ListByEmail is the fallback lookup for rows recorded before an account
	// existed, keyed by the denormalized email.
	ListByEmail(ctx context.Context, email string, limit int) ([]Entry, error)

	// ListRecentByType returns newest-first entries of one type.
	ListRecentByType(ctx context.Context, eventType EventType, limit int) ([]Entry, error)

	// CountFailedLoginsSince counts LOGIN_FAILED rows for an IP with
	// created_at strictly after since. The rate limiter's only read.
	CountFailedLoginsSince(ctx context.Context, ipAddress string, since time.Time) (int, error)

	// List returns a filtered, paginated page with its total.
	List(ctx context.Context, opts ListOptions) (*Page, error)

	// Anonymize irreversibly replaces customer_email, ip_address, user_agent
	// and metadata with placeholders for every row of one customer. Event
	// type, customer id and created_at are preserved. Idempotent.
	Anonymize(ctx context.Context, customerID string) error
}
