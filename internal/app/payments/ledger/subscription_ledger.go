package ledger

import (
	"context"
	"errors"
	"log/slog"

	"github.com/wuyiadepoju/payments-reconciliation/internal/app/payments/contracts"
	"github.com/wuyiadepoju/payments-reconciliation/internal/app/payments/domain"
	"github.com/wuyiadepoju/payments-reconciliation/internal/pkg/metrics"
)

var _ contracts.SubscriptionLedger = (*SubscriptionLedger)(nil)

// SubscriptionLedger turns premium on and off for subscribers.
type SubscriptionLedger struct {
	repo  contracts.SubscriberRepository
	clock domain.Clock
}

// NewSubscriptionLedger creates a new subscription ledger
func NewSubscriptionLedger(repo contracts.SubscriberRepository, clock domain.Clock) *SubscriptionLedger {
	return &SubscriptionLedger{repo: repo, clock: clock}
}

func (l *SubscriptionLedger) Get(ctx context.Context, subscriberID string) (*domain.Subscriber, error) {
	if subscriberID == "" {
		return nil, domain.ErrInvalidSubscriberID
	}
	return l.repo.FindByID(ctx, subscriberID)
}

// FindByEmail returns nil, nil when nobody has that e-mail.
func (l *SubscriptionLedger) FindByEmail(ctx context.Context, email string) (*domain.Subscriber, error) {
	if email == "" {
		return nil, nil
	}
	return l.repo.FindByEmail(ctx, email)
}

// Activate records an authorized mandate. Activating again with the same
// mandate is a no-op; a different mandate while active is
// domain.ErrMandateConflict.
func (l *SubscriptionLedger) Activate(ctx context.Context, subscriberID, mandateRef string) (*domain.Subscriber, error) {
	return l.mutate(ctx, subscriberID, func(s *domain.Subscriber) (bool, error) {
		event, err := s.Activate(mandateRef, l.clock)
		if err != nil || event == nil {
			return false, err
		}
		slog.InfoContext(ctx, "subscription activated",
			"subscriber_id", event.SubscriberID,
			"mandate_id", event.MandateRef,
		)
		return true, nil
	})
}

// Cancel turns premium off. The mandate reference is kept.
func (l *SubscriptionLedger) Cancel(ctx context.Context, subscriberID string) (*domain.Subscriber, error) {
	return l.mutate(ctx, subscriberID, func(s *domain.Subscriber) (bool, error) {
		event := s.Cancel(l.clock)
		if event == nil {
			return false, nil
		}
		slog.InfoContext(ctx, "subscription cancelled",
			"subscriber_id", event.SubscriberID,
			"mandate_id", event.MandateRef,
		)
		return true, nil
	})
}

func (l *SubscriptionLedger) mutate(ctx context.Context, subscriberID string, change func(*domain.Subscriber) (bool, error)) (*domain.Subscriber, error) {
	if subscriberID == "" {
		return nil, domain.ErrInvalidSubscriberID
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		sub, err := l.repo.FindByID(ctx, subscriberID)
		if err != nil {
			return nil, err
		}
		expected := sub.Version()

		changed, err := change(sub)
		if err != nil {
			return nil, err
		}
		if !changed {
			return sub, nil
		}

		err = l.repo.UpdateIfVersion(ctx, sub, expected)
		if err == nil {
			return sub, nil
		}
		if !errors.Is(err, domain.ErrVersionConflict) {
			return nil, err
		}
		slog.WarnContext(ctx, "subscriber version conflict",
			"subscriber_id", subscriberID,
			"expected_version", expected,
			"attempt", attempt,
		)
	}

	metrics.LedgerConflicts.Inc()
	return nil, domain.ErrConcurrentModification
}
