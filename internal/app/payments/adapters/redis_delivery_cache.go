package adapters

import (
	"context"
	"time"

	"github.com/wuyiadepoju/payments-reconciliation/internal/app/payments/contracts"
	"github.com/wuyiadepoju/payments-reconciliation/internal/pkg/cache"
)

var _ contracts.DeliveryCache = (*CacheDeliveryStore)(nil)

const processedMarker = "1"

// CacheDeliveryStore records processed webhook deliveries in the shared
// key/value cache.
type CacheDeliveryStore struct {
	cache cache.Cache
}

// NewCacheDeliveryStore creates a new delivery store backed by c
func NewCacheDeliveryStore(c cache.Cache) *CacheDeliveryStore {
	return &CacheDeliveryStore{cache: c}
}

func (s *CacheDeliveryStore) Seen(ctx context.Context, key string) (bool, error) {
	val, err := s.cache.Get(ctx, s.cache.GenerateKey("webhook", key))
	if err != nil {
		return false, err
	}
	return val == processedMarker, nil
}

func (s *CacheDeliveryStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) error {
	return s.cache.Set(ctx, s.cache.GenerateKey("webhook", key), processedMarker, ttl)
}
