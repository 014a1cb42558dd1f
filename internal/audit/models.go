// Package audit is the durable, queryable ledger of security, account and
// GDPR-relevant commerce events. It is the single source of truth for the
// login rate limiter and for compliance export/erasure.
package audit

import (
	"time"

	"github.com/google/uuid"
)

// EventType classifies an audit entry. The set is closed; stores reject
// nothing but handlers validate inbound types against IsValid.
type EventType string

const (
	// Authentication events
	EventLoginSuccess         EventType = "LOGIN_SUCCESS"
	EventLoginFailed          EventType = "LOGIN_FAILED"
	EventLogout               EventType = "LOGOUT"
	EventPasswordResetRequest EventType = "PASSWORD_RESET_REQUEST"
	EventPasswordResetSuccess EventType = "PASSWORD_RESET_SUCCESS"
	EventPasswordChanged      EventType = "PASSWORD_CHANGED"

	// Account lifecycle events
	EventAccountCreated EventType = "ACCOUNT_CREATED"
	EventAccountUpdated EventType = "ACCOUNT_UPDATED"
	EventAccountDeleted EventType = "ACCOUNT_DELETED"

	// Address events
	EventAddressAdded   EventType = "ADDRESS_ADDED"
	EventAddressUpdated EventType = "ADDRESS_UPDATED"
	EventAddressDeleted EventType = "ADDRESS_DELETED"

	// Order events
	EventOrderPlaced    EventType = "ORDER_PLACED"
	EventOrderCancelled EventType = "ORDER_CANCELLED"

	// Consent / GDPR events
	EventDataExportRequest EventType = "DATA_EXPORT_REQUEST"
	EventDataDeleteRequest EventType = "DATA_DELETE_REQUEST"
	EventConsentGiven      EventType = "CONSENT_GIVEN"
	EventConsentWithdrawn  EventType = "CONSENT_WITHDRAWN"
)

var knownEventTypes = map[EventType]struct{}{
	EventLoginSuccess:         {},
	EventLoginFailed:          {},
	EventLogout:               {},
	EventPasswordResetRequest: {},
	EventPasswordResetSuccess: {},
	EventPasswordChanged:      {},
	EventAccountCreated:       {},
	EventAccountUpdated:       {},
	EventAccountDeleted:       {},
	EventAddressAdded:         {},
	EventAddressUpdated:       {},
	EventAddressDeleted:       {},
	EventOrderPlaced:          {},
	EventOrderCancelled:       {},
	EventDataExportRequest:    {},
	EventDataDeleteRequest:    {},
	EventConsentGiven:         {},
	EventConsentWithdrawn:     {},
}

// IsValid reports whether the event type is part of the closed enumeration.
func (t EventType) IsValid() bool {
	_, ok := knownEventTypes[t]
	return ok
}

// String returns the string representation.
func (t EventType) String() string {
	return string(t)
}

// Metadata is the open, schema-less context bag attached to an entry.
// It always serializes to a valid JSON object; nil marshals as {}.
type Metadata map[string]any

// Anonymization placeholders. Once applied they are never reversed, so the
// ledger keeps the fact and timing of every event without the PII.
const (
	AnonymizedEmail     = "anonymized@deleted.user"
	AnonymizedIP        = "0.0.0.0"
	AnonymizedUserAgent = "anonymized"
)

// ExportCeiling caps how many rows a GDPR export returns.
const ExportCeiling = 1000

// Entry is one immutable compliance record. ID and CreatedAt are assigned by
// the store at insert time, never by the caller.
type Entry struct {
	ID            uuid.UUID `json:"id"`
	EventType     EventType `json:"event_type"`
	CustomerID    string    `json:"customer_id,omitempty"`
	CustomerEmail string    `json:"customer_email,omitempty"`
	IPAddress     string    `json:"ip_address,omitempty"`
	UserAgent     string    `json:"user_agent,omitempty"`
	Metadata      Metadata  `json:"metadata"`
	CreatedAt     time.Time `json:"created_at"`
}
