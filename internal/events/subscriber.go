// Package events consumes commerce lifecycle events from the platform's
// Redis event bus and records the matching audit entries. Recording is
// best-effort: a failed write is logged and dropped, never retried into the
// producing workflow.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"

	"auditgate/internal/audit"
)

// ChannelPrefix is the pub/sub namespace the commerce platform publishes
// lifecycle events under; the event name is the channel suffix.
const ChannelPrefix = "commerce.events."

// eventTypes maps bus event names to audit event types. Events outside this
// map are not audit-relevant and are skipped.
var eventTypes = map[string]audit.EventType{
	"customer.created":      audit.EventAccountCreated,
	"customer.updated":      audit.EventAccountUpdated,
	"customer.deleted":      audit.EventAccountDeleted,
	"order.placed":          audit.EventOrderPlaced,
	"order.canceled":        audit.EventOrderCancelled,
	"auth.password_changed": audit.EventPasswordChanged,
	"auth.password_reset":   audit.EventPasswordResetSuccess,
}

// payload is the JSON body lifecycle events carry on the bus. Customer and
// auth events put the customer id in "id"; order events put the order id
// there and carry "customer_id" separately.
type payload struct {
	ID         string `json:"id"`
	CustomerID string `json:"customer_id"`
	Email      string `json:"email"`
}

// Recorder is the slice of the audit service the subscriber needs.
type Recorder interface {
	Record(ctx context.Context, entry audit.Entry) (string, bool)
}

type Subscriber struct {
	client   *redis.Client
	recorder Recorder
	logger   *slog.Logger
}

func New(client *redis.Client, recorder Recorder, logger *slog.Logger) (*Subscriber, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	if recorder == nil {
		return nil, errors.New("audit recorder is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Subscriber{client: client, recorder: recorder, logger: logger}, nil
}

// Run consumes events until ctx is canceled. It returns ctx.Err() on
// cancellation and nil if the subscription channel closes.
func (s *Subscriber) Run(ctx context.Context) error {
	sub := s.client.PSubscribe(ctx, ChannelPrefix+"*")
	defer sub.Close()

	// Force the subscription before reporting ready.
	if _, err := sub.Receive(ctx); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "event subscriber started", "pattern", ChannelPrefix+"*")

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			s.Handle(ctx, msg.Channel, []byte(msg.Payload))
		}
	}
}

// Handle records the audit entry for one event. Exposed for tests.
func (s *Subscriber) Handle(ctx context.Context, channel string, body []byte) {
	name := strings.TrimPrefix(channel, ChannelPrefix)

	eventType, ok := eventTypes[name]
	if !ok {
		s.logger.DebugContext(ctx, "ignoring event without audit mapping", "event", name)
		return
	}

	var p payload
	if err := json.Unmarshal(body, &p); err != nil {
		s.logger.WarnContext(ctx, "malformed event payload dropped",
			"event", name,
			"error", err,
		)
		return
	}

	metadata := audit.Metadata{"source": "event-bus", "event": name}

	customerID := p.ID
	if strings.HasPrefix(name, "order.") {
		customerID = p.CustomerID
		if p.ID != "" {
			metadata["order_id"] = p.ID
		}
	}

	s.recorder.Record(ctx, audit.Entry{
		EventType:     eventType,
		CustomerID:    customerID,
		CustomerEmail: p.Email,
		Metadata:      metadata,
	})
}
