package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is idempotent so concurrent first boots cannot race on conflicting
// creation. It runs once at startup, never on the hot path.
const schema = `
CREATE TABLE IF NOT EXISTS audit_logs (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	event_type VARCHAR(50) NOT NULL,
	customer_id VARCHAR(255),
	customer_email VARCHAR(255),
	ip_address VARCHAR(45),
	user_agent TEXT,
	metadata JSONB DEFAULT '{}',
	created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_audit_logs_customer_id ON audit_logs(customer_id);
CREATE INDEX IF NOT EXISTS idx_audit_logs_event_type ON audit_logs(event_type);
CREATE INDEX IF NOT EXISTS idx_audit_logs_created_at ON audit_logs(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_audit_logs_ip_address ON audit_logs(ip_address);
`

// Migrate creates the audit_logs table and its secondary indexes if absent.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate audit_logs: %w", err)
	}
	return nil
}
