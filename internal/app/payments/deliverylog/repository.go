package deliverylog

import "context"

// Repository persists delivery log entries. Each Save appends a row.
type Repository interface {
	Save(ctx context.Context, entry *Entry) error
	// Latest returns the most recent entry for gatewayID, or nil, nil.
	Latest(ctx context.Context, gatewayID string) (*Entry, error)
}
