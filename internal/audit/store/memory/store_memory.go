// Package memory provides an in-memory audit.Store for unit tests and local
// development. Ordering matches the Postgres store: newest first, with
// insertion order breaking created_at ties.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"auditgate/internal/audit"
	"auditgate/pkg/requestcontext"
)

type storedEntry struct {
	entry audit.Entry
	seq   int
}

type InMemoryStore struct {
	mu      sync.RWMutex
	entries []storedEntry
	nextSeq int

	// FailWrites / FailReads force persistence errors, for testing the
	// best-effort write path and the limiter's fail-open behavior.
	FailWrites bool
	FailReads  bool
	failErr    error
}

func New() *InMemoryStore {
	return &InMemoryStore{}
}

// FailWith sets the error returned while FailWrites/FailReads are on.
func (s *InMemoryStore) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failErr = err
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
	s.nextSeq = 0
}

func (s *InMemoryStore) Append(ctx context.Context, entry audit.Entry) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailWrites {
		return "", s.failure()
	}

	entry.ID = uuid.New()
	entry.CreatedAt = requestcontext.Now(ctx)
	if entry.Metadata == nil {
		entry.Metadata = audit.Metadata{}
	}

	s.entries = append(s.entries, storedEntry{entry: entry, seq: s.nextSeq})
	s.nextSeq++
	return entry.ID.String(), nil
}

func (s *InMemoryStore) ListByCustomerID(_ context.Context, customerID string, limit int) ([]audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.FailReads {
		return nil, s.failure()
	}

	return s.collect(limit, func(e audit.Entry) bool {
		return e.CustomerID == customerID
	}), nil
}

func (s *InMemoryStore) ListByEmail(_ context.Context, email string, limit int) ([]audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.FailReads {
		return nil, s.failure()
	}

	return s.collect(limit, func(e audit.Entry) bool {
		return e.CustomerEmail == email
	}), nil
}

func (s *InMemoryStore) ListRecentByType(_ context.Context, eventType audit.EventType, limit int) ([]audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.FailReads {
		return nil, s.failure()
	}

	return s.collect(limit, func(e audit.Entry) bool {
		return e.EventType == eventType
	}), nil
}

func (s *InMemoryStore) CountFailedLoginsSince(_ context.Context, ipAddress string, since time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.FailReads {
		return 0, s.failure()
	}

	count := 0
	for _, se := range s.entries {
		if se.entry.EventType == audit.EventLoginFailed &&
			se.entry.IPAddress == ipAddress &&
			se.entry.CreatedAt.After(since) {
			count++
		}
	}
	return count, nil
}

func (s *InMemoryStore) List(_ context.Context, opts audit.ListOptions) (*audit.Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.FailReads {
		return nil, s.failure()
	}

	matches := s.collect(0, func(e audit.Entry) bool {
		if opts.EventType != "" && e.EventType != opts.EventType {
			return false
		}
		if opts.CustomerID != "" && e.CustomerID != opts.CustomerID {
			return false
		}
		if opts.StartDate != nil && e.CreatedAt.Before(*opts.StartDate) {
			return false
		}
		if opts.EndDate != nil && e.CreatedAt.After(*opts.EndDate) {
			return false
		}
		return true
	})

	total := len(matches)

	start := opts.Offset
	if start > total {
		start = total
	}
	end := total
	if opts.Limit > 0 && start+opts.Limit < end {
		end = start + opts.Limit
	}

	return &audit.Page{Entries: matches[start:end], Total: total}, nil
}

func (s *InMemoryStore) Anonymize(_ context.Context, customerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailWrites {
		return s.failure()
	}

	for i := range s.entries {
		if s.entries[i].entry.CustomerID != customerID {
			continue
		}
		s.entries[i].entry.CustomerEmail = audit.AnonymizedEmail
		s.entries[i].entry.IPAddress = audit.AnonymizedIP
		s.entries[i].entry.UserAgent = audit.AnonymizedUserAgent
		s.entries[i].entry.Metadata = audit.Metadata{}
	}
	return nil
}

// collect returns matching entries newest first. limit <= 0 means no limit.
func (s *InMemoryStore) collect(limit int, match func(audit.Entry) bool) []audit.Entry {
	matched := make([]storedEntry, 0, len(s.entries))
	for _, se := range s.entries {
		if match(se.entry) {
			matched = append(matched, se)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].entry.CreatedAt.Equal(matched[j].entry.CreatedAt) {
			return matched[i].seq > matched[j].seq
		}
		return matched[i].entry.CreatedAt.After(matched[j].entry.CreatedAt)
	})

	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}

	entries := make([]audit.Entry, len(matched))
	for i, se := range matched {
		entries[i] = se.entry
	}
	return entries
}

func (s *InMemoryStore) failure() error {
	if s.failErr != nil {
		return s.failErr
	}
	return errSimulated
}

var errSimulated = errors.New("simulated store failure")
