//go:build integration

package events

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"auditgate/internal/audit"
	"auditgate/pkg/testutil/containers"
)

type SubscriberIntegrationSuite struct {
	suite.Suite
	redis    *containers.RedisContainer
	recorder *fakeRecorder
}

func TestSubscriberIntegrationSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(SubscriberIntegrationSuite))
}

func (s *SubscriberIntegrationSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.redis = mgr.GetRedis(s.T())
}

func (s *SubscriberIntegrationSuite) SetupTest() {
	s.recorder = &fakeRecorder{}
	err := s.redis.FlushAll(context.Background())
	s.Require().NoError(err)
}

func (s *SubscriberIntegrationSuite) TestRecordsPublishedEvents() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub, err := New(s.redis.Client.Client, s.recorder, slog.Default())
	s.Require().NoError(err)

	done := make(chan error, 1)
	go func() {
		done <- sub.Run(ctx)
	}()

	// PSubscribe is confirmed before Run reads messages, but give the pattern
	// registration a moment to settle on the server side.
	s.Require().Eventually(func() bool {
		channels, err := s.redis.Client.PubSubNumPat(ctx).Result()
		return err == nil && channels > 0
	}, 5*time.Second, 50*time.Millisecond)

	err = s.redis.Client.Publish(ctx, ChannelPrefix+"customer.created",
		`{"id":"cus_1","email":"jane@example.com"}`).Err()
	s.Require().NoError(err)

	err = s.redis.Client.Publish(ctx, ChannelPrefix+"order.placed",
		`{"id":"order_1","customer_id":"cus_1"}`).Err()
	s.Require().NoError(err)

	s.Require().Eventually(func() bool {
		return len(s.recorder.recorded()) == 2
	}, 5*time.Second, 50*time.Millisecond)

	entries := s.recorder.recorded()
	s.Equal(audit.EventAccountCreated, entries[0].EventType)
	s.Equal("cus_1", entries[0].CustomerID)
	s.Equal(audit.EventOrderPlaced, entries[1].EventType)
	s.Equal("order_1", entries[1].Metadata["order_id"])

	cancel()
	s.Require().ErrorIs(<-done, context.Canceled)
}

func (s *SubscriberIntegrationSuite) TestSkipsUnmappedEvents() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub, err := New(s.redis.Client.Client, s.recorder, slog.Default())
	s.Require().NoError(err)

	go func() { _ = sub.Run(ctx) }()

	s.Require().Eventually(func() bool {
		channels, err := s.redis.Client.PubSubNumPat(ctx).Result()
		return err == nil && channels > 0
	}, 5*time.Second, 50*time.Millisecond)

	err = s.redis.Client.Publish(ctx, ChannelPrefix+"cart.updated", `{"id":"cart_1"}`).Err()
	s.Require().NoError(err)

	err = s.redis.Client.Publish(ctx, ChannelPrefix+"customer.deleted", `{"id":"cus_1"}`).Err()
	s.Require().NoError(err)

	s.Require().Eventually(func() bool {
		return len(s.recorder.recorded()) == 1
	}, 5*time.Second, 50*time.Millisecond)

	s.Equal(audit.EventAccountDeleted, s.recorder.recorded()[0].EventType)
}
