package audit_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"auditgate/internal/audit"
	"auditgate/internal/audit/store/memory"
	"auditgate/pkg/requestcontext"
)

type AuditServiceSuite struct {
	suite.Suite
	store *memory.InMemoryStore
	svc   *audit.Service
}

func TestAuditServiceSuite(t *testing.T) {
	suite.Run(t, new(AuditServiceSuite))
}

func (s *AuditServiceSuite) SetupTest() {
	s.store = memory.New()
	svc, err := audit.NewService(s.store)
	s.Require().NoError(err)
	s.svc = svc
}

func (s *AuditServiceSuite) TestRecord() {
	ctx := context.Background()

	s.Run("returns id on success", func() {
		id, ok := s.svc.Record(ctx, audit.Entry{
			EventType:  audit.EventAccountCreated,
			CustomerID: "cus_1",
		})
		s.True(ok)
		s.NotEmpty(id)
	})

	s.Run("round trips all caller-supplied fields", func() {
		_, ok := s.svc.Record(ctx, audit.Entry{
			EventType:     audit.EventLoginSuccess,
			CustomerID:    "cus_2",
			CustomerEmail: "jane@example.com",
			IPAddress:     "192.0.2.10",
			UserAgent:     "Mozilla/5.0",
			Metadata:      audit.Metadata{"reason": "test"},
		})
		s.True(ok)

		entries, err := s.svc.LogsByCustomerID(ctx, "cus_2", 10)
		s.Require().NoError(err)
		s.Require().Len(entries, 1)
		e := entries[0]
		s.Equal(audit.EventLoginSuccess, e.EventType)
		s.Equal("jane@example.com", e.CustomerEmail)
		s.Equal("192.0.2.10", e.IPAddress)
		s.Equal("Mozilla/5.0", e.UserAgent)
		s.Equal(audit.Metadata{"reason": "test"}, e.Metadata)
		s.NotEmpty(e.ID)
		s.False(e.CreatedAt.IsZero())
	})

	s.Run("nil metadata defaults to empty object", func() {
		_, ok := s.svc.Record(ctx, audit.Entry{
			EventType:  audit.EventLogout,
			CustomerID: "cus_3",
		})
		s.True(ok)

		entries, err := s.svc.LogsByCustomerID(ctx, "cus_3", 10)
		s.Require().NoError(err)
		s.Require().Len(entries, 1)
		s.NotNil(entries[0].Metadata)
		s.Empty(entries[0].Metadata)
	})

	s.Run("persistence failure reports not logged, never raises", func() {
		s.store.FailWrites = true
		defer func() { s.store.FailWrites = false }()

		id, ok := s.svc.Record(ctx, audit.Entry{EventType: audit.EventLoginFailed})
		s.False(ok)
		s.Empty(id)
	})
}

func (s *AuditServiceSuite) TestReadsPropagateFailure() {
	ctx := context.Background()
	s.store.FailReads = true

	_, err := s.svc.LogsByCustomerID(ctx, "cus_1", 10)
	s.Error(err)

	_, err = s.svc.LogsByEmail(ctx, "jane@example.com", 10)
	s.Error(err)

	_, err = s.svc.List(ctx, audit.ListOptions{})
	s.Error(err)

	_, err = s.svc.CountFailedLoginsSince(ctx, "10.0.0.1", time.Now())
	s.Error(err)

	_, err = s.svc.ExportForCustomer(ctx, "cus_1")
	s.Error(err)
}

func (s *AuditServiceSuite) TestExportForCustomer() {
	base := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		ctx := requestcontext.WithTime(context.Background(), base.Add(time.Duration(i)*time.Minute))
		_, ok := s.svc.Record(ctx, audit.Entry{
			EventType:  audit.EventOrderPlaced,
			CustomerID: "cus_1",
		})
		s.Require().True(ok)
	}

	entries, err := s.svc.ExportForCustomer(context.Background(), "cus_1")
	s.Require().NoError(err)
	s.Require().Len(entries, 3)

	// Newest first, strictly descending.
	for i := 1; i < len(entries); i++ {
		s.True(entries[i-1].CreatedAt.After(entries[i].CreatedAt))
	}

	s.Run("unknown customer exports empty set, not an error", func() {
		entries, err := s.svc.ExportForCustomer(context.Background(), "cus_missing")
		s.NoError(err)
		s.Empty(entries)
	})
}

func (s *AuditServiceSuite) TestExportCeiling() {
	ctx := context.Background()

	for i := 0; i < audit.ExportCeiling+5; i++ {
		_, err := s.store.Append(ctx, audit.Entry{
			EventType:  audit.EventLoginSuccess,
			CustomerID: "cus_bulk",
		})
		s.Require().NoError(err)
	}

	entries, err := s.svc.ExportForCustomer(ctx, "cus_bulk")
	s.Require().NoError(err)
	s.Len(entries, audit.ExportCeiling)
}

func (s *AuditServiceSuite) TestRecentLogsByType() {
	base := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	record := func(eventType audit.EventType, at time.Time) {
		ctx := requestcontext.WithTime(context.Background(), at)
		_, ok := s.svc.Record(ctx, audit.Entry{EventType: eventType, IPAddress: "10.0.0.1"})
		s.Require().True(ok)
	}

	record(audit.EventLoginFailed, base)
	record(audit.EventLoginFailed, base.Add(time.Minute))
	record(audit.EventLoginSuccess, base.Add(2*time.Minute))

	entries, err := s.svc.RecentLogsByType(context.Background(), audit.EventLoginFailed, 0)
	s.Require().NoError(err)
	s.Require().Len(entries, 2)
	s.Equal(base.Add(time.Minute), entries[0].CreatedAt)

	entries, err = s.svc.RecentLogsByType(context.Background(), audit.EventLoginFailed, 1)
	s.Require().NoError(err)
	s.Len(entries, 1)
}

func (s *AuditServiceSuite) TestAnonymizeScenario() {
	ctx := context.Background()

	_, ok := s.svc.Record(ctx, audit.Entry{
		EventType:  audit.EventAccountDeleted,
		CustomerID: "cus_1",
	})
	s.Require().True(ok)

	s.Require().NoError(s.svc.Anonymize(ctx, "cus_1"))

	entries, err := s.svc.LogsByCustomerID(ctx, "cus_1", 50)
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal(audit.EventAccountDeleted, entries[0].EventType)
	s.Equal("anonymized@deleted.user", entries[0].CustomerEmail)
	s.Equal("0.0.0.0", entries[0].IPAddress)
}
