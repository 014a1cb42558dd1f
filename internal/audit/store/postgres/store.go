// Package postgres implements audit.Store on a single audit_logs table.
// Stores are pure I/O; retention rules and best-effort semantics belong to
// the service layer.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"auditgate/internal/audit"
)

type Store struct {
	db *sql.DB
}

// New constructs a PostgreSQL-backed audit store. The caller owns the pool
// lifecycle: open at process start, close at shutdown.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const entryColumns = "id, event_type, customer_id, customer_email, ip_address, user_agent, metadata, created_at"

// Append inserts one immutable row. The database assigns id and created_at,
// so created_at reflects true insertion order across concurrent writers.
func (s *Store) Append(ctx context.Context, entry audit.Entry) (string, error) {
	metadata := entry.Metadata
	if metadata == nil {
		metadata = audit.Metadata{}
	}
	metadataBytes, err := json.Marshal(metadata)
	if err != nil {
		return "", fmt.Errorf("marshal audit metadata: %w", err)
	}

	query := `
		INSERT INTO audit_logs (event_type, customer_id, customer_email, ip_address, user_agent, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	var id string
	err = s.db.QueryRowContext(ctx, query,
		string(entry.EventType),
		nullIfEmpty(entry.CustomerID),
		nullIfEmpty(entry.CustomerEmail),
		nullIfEmpty(entry.IPAddress),
		nullIfEmpty(entry.UserAgent),
		metadataBytes,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("insert audit entry: %w", err)
	}
	return id, nil
}

func (s *Store) ListByCustomerID(ctx context.Context, customerID string, limit int) ([]audit.Entry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM audit_logs
		WHERE customer_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := s.db.QueryContext(ctx, query, customerID, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit entries by customer: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

func (s *Store) ListByEmail(ctx context.Context, email string, limit int) ([]audit.Entry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM audit_logs
		WHERE customer_email = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := s.db.QueryContext(ctx, query, email, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit entries by email: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

func (s *Store) ListRecentByType(ctx context.Context, eventType audit.EventType, limit int) ([]audit.Entry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM audit_logs
		WHERE event_type = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := s.db.QueryContext(ctx, query, string(eventType), limit)
	if err != nil {
		return nil, fmt.Errorf("query audit entries by type: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// CountFailedLoginsSince counts LOGIN_FAILED rows for one IP strictly after
// since. Window expiry is implicit in the cutoff; nothing is ever cleaned up.
func (s *Store) CountFailedLoginsSince(ctx context.Context, ipAddress string, since time.Time) (int, error) {
	query := `
		SELECT COUNT(*) FROM audit_logs
		WHERE ip_address = $1
		AND event_type = $2
		AND created_at > $3
	`

	var count int
	err := s.db.QueryRowContext(ctx, query, ipAddress, string(audit.EventLoginFailed), since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count failed logins: %w", err)
	}
	return count, nil
}

// List returns one filtered page plus the total over the same filter set.
// Filters compose conjunctively; the date range is inclusive on both ends.
func (s *Store) List(ctx context.Context, opts audit.ListOptions) (*audit.Page, error) {
	var conditions []string
	var params []any

	if opts.EventType != "" {
		params = append(params, string(opts.EventType))
		conditions = append(conditions, fmt.Sprintf("event_type = $%d", len(params)))
	}
	if opts.CustomerID != "" {
		params = append(params, opts.CustomerID)
		conditions = append(conditions, fmt.Sprintf("customer_id = $%d", len(params)))
	}
	if opts.StartDate != nil {
		params = append(params, *opts.StartDate)
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", len(params)))
	}
	if opts.EndDate != nil {
		params = append(params, *opts.EndDate)
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", len(params)))
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM audit_logs " + whereClause
	if err := s.db.QueryRowContext(ctx, countQuery, params...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count audit entries: %w", err)
	}

	params = append(params, opts.Limit, opts.Offset)
	listQuery := fmt.Sprintf(`
		SELECT `+entryColumns+`
		FROM audit_logs %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, whereClause, len(params)-1, len(params))

	rows, err := s.db.QueryContext(ctx, listQuery, params...)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	entries, err := scanEntries(rows)
	if err != nil {
		return nil, err
	}

	return &audit.Page{Entries: entries, Total: total}, nil
}

// Anonymize overwrites PII columns with fixed placeholders for every row of
// one customer. Re-running produces the same state, and rows without a
// customer_id are untouched by contract.
func (s *Store) Anonymize(ctx context.Context, customerID string) error {
	query := `
		UPDATE audit_logs
		SET customer_email = $2,
		    ip_address = $3,
		    user_agent = $4,
		    metadata = '{}'
		WHERE customer_id = $1
	`

	_, err := s.db.ExecContext(ctx, query,
		customerID,
		audit.AnonymizedEmail,
		audit.AnonymizedIP,
		audit.AnonymizedUserAgent,
	)
	if err != nil {
		return fmt.Errorf("anonymize audit entries: %w", err)
	}
	return nil
}

func scanEntries(rows *sql.Rows) ([]audit.Entry, error) {
	var entries []audit.Entry

	for rows.Next() {
		var (
			entry         audit.Entry
			eventType     string
			customerID    sql.NullString
			customerEmail sql.NullString
			ipAddress     sql.NullString
			userAgent     sql.NullString
			metadataBytes []byte
		)

		err := rows.Scan(
			&entry.ID,
			&eventType,
			&customerID,
			&customerEmail,
			&ipAddress,
			&userAgent,
			&metadataBytes,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}

		entry.EventType = audit.EventType(eventType)
		entry.CustomerID = customerID.String
		entry.CustomerEmail = customerEmail.String
		entry.IPAddress = ipAddress.String
		entry.UserAgent = userAgent.String

		entry.Metadata = audit.Metadata{}
		if len(metadataBytes) > 0 {
			if err := json.Unmarshal(metadataBytes, &entry.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal audit metadata: %w", err)
			}
		}

		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}

	return entries, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
