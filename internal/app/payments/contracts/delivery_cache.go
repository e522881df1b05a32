package contracts

import (
	"context"
	"time"
)

// DeliveryCache remembers webhook deliveries that were already applied so
// redeliveries can skip the gateway fetch.
type DeliveryCache interface {
	Seen(ctx context.Context, key string) (bool, error)
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) error
}
