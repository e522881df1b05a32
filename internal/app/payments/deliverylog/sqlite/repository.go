// Package sqlite provides a SQLite-backed implementation of
// deliverylog.Repository.
//
// WAL mode is enabled on Open so the webhook handler can append while an
// operator query is reading.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/wuyiadepoju/payments-reconciliation/internal/app/payments/deliverylog"

	// pure-Go driver, registered as "sqlite"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS webhook_deliveries (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    request_id   TEXT NOT NULL DEFAULT '',
    kind         TEXT NOT NULL,
    gateway_id   TEXT NOT NULL DEFAULT '',
    outcome      TEXT NOT NULL,
    detail       TEXT,
    trace_id     TEXT NOT NULL DEFAULT '',
    span_id      TEXT NOT NULL DEFAULT '',
    received_at  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_webhook_deliveries_gateway_id ON webhook_deliveries(gateway_id, received_at);

CREATE INDEX IF NOT EXISTS idx_webhook_deliveries_trace_id ON webhook_deliveries(trace_id);
`

var _ deliverylog.Repository = (*Repository)(nil)

// Repository is the SQLite implementation of deliverylog.Repository.
type Repository struct {
	db *sql.DB
}

// Open opens (or creates) the SQLite database at path and applies the schema.
func Open(path string) (*Repository, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}

	// single writer
	db.SetMaxOpenConns(1)

	repo, err := New(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// New applies the schema to an already open database.
func New(db *sql.DB) (*Repository, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("sqlite: apply schema: %w", err)
	}
	return &Repository{db: db}, nil
}

// Close releases the database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Save appends a delivery entry. It is safe to call concurrently.
func (r *Repository) Save(ctx context.Context, entry *deliverylog.Entry) error {
	const q = `
		INSERT INTO webhook_deliveries
			(request_id, kind, gateway_id, outcome, detail, trace_id, span_id, received_at)
		VALUES
			(?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, q,
		entry.RequestID,
		entry.Kind,
		entry.GatewayID,
		entry.Outcome,
		nullableString(entry.Detail),
		entry.TraceID,
		entry.SpanID,
		formatTime(entry.ReceivedAt),
	)
	if err != nil {
		return fmt.Errorf("sqlite: save delivery for %q: %w", entry.GatewayID, err)
	}
	return nil
}

// Latest returns the most recent entry for gatewayID, or nil, nil.
func (r *Repository) Latest(ctx context.Context, gatewayID string) (*deliverylog.Entry, error) {
	const q = `
		SELECT request_id, kind, gateway_id, outcome, COALESCE(detail, ''),
		       trace_id, span_id, received_at
		FROM   webhook_deliveries
		WHERE  gateway_id = ?
		ORDER  BY received_at DESC, id DESC
		LIMIT  1`

	var (
		entry      deliverylog.Entry
		receivedAt string
	)
	err := r.db.QueryRowContext(ctx, q, gatewayID).Scan(
		&entry.RequestID,
		&entry.Kind,
		&entry.GatewayID,
		&entry.Outcome,
		&entry.Detail,
		&entry.TraceID,
		&entry.SpanID,
		&receivedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: latest delivery for %q: %w", gatewayID, err)
	}

	entry.ReceivedAt, err = parseRFC3339(receivedAt)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
