package domain

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscriber_Activate(t *testing.T) {
	activatedAt := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	clock := FixedClock{FixedTime: activatedAt}

	sub := ReconstructSubscriber(SubscriberRecord{ID: "sub-1", Email: "a@example.com", Version: 3})

	event, err := sub.Activate("mandate-1", clock)
	require.NoError(t, err)
	require.NotNil(t, event)
	assert.Equal(t, "sub-1", event.SubscriberID)
	assert.True(t, sub.Premium())
	assert.Equal(t, "mandate-1", sub.MandateRef())
	require.NotNil(t, sub.ActivatedAt())
	assert.Equal(t, activatedAt, *sub.ActivatedAt())
	assert.Equal(t, int64(4), sub.Version())

	// same mandate again is a no-op
	event, err = sub.Activate("mandate-1", clock)
	require.NoError(t, err)
	assert.Nil(t, event)
	assert.Equal(t, int64(4), sub.Version())

	// different mandate while active conflicts
	event, err = sub.Activate("mandate-2", clock)
	assert.ErrorIs(t, err, ErrMandateConflict)
	assert.Nil(t, event)
	assert.Equal(t, "mandate-1", sub.MandateRef())

	_, err = sub.Activate("", clock)
	assert.ErrorIs(t, err, ErrInvalidMandateReference)
}

func TestSubscriber_CancelRetainsMandate(t *testing.T) {
	clock := FixedClock{FixedTime: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)}
	sub := ReconstructSubscriber(SubscriberRecord{ID: "sub-1", Premium: true, MandateRef: "mandate-1"})

	event := sub.Cancel(clock)
	require.NotNil(t, event)
	assert.False(t, sub.Premium())
	assert.Equal(t, "mandate-1", sub.MandateRef())
	require.NotNil(t, sub.CancelledAt())
	assert.Equal(t, clock.FixedTime, *sub.CancelledAt())

	assert.Nil(t, sub.Cancel(clock))
}

func TestSubscriber_ReactivateAfterCancel(t *testing.T) {
	clock := FixedClock{FixedTime: time.Now()}
	sub := ReconstructSubscriber(SubscriberRecord{ID: "sub-1", Premium: true, MandateRef: "mandate-1"})
	sub.Cancel(clock)

	event, err := sub.Activate("mandate-2", clock)
	require.NoError(t, err)
	require.NotNil(t, event)
	assert.Equal(t, "mandate-2", sub.MandateRef())
	assert.Nil(t, sub.CancelledAt())
}

func TestReconstructSubscriber_PremiumRequiresMandate(t *testing.T) {
	sub := ReconstructSubscriber(SubscriberRecord{ID: "sub-1", Premium: true})
	assert.False(t, sub.Premium())
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindConflict, KindOf(ErrMandateConflict))
	assert.Equal(t, KindValidation, KindOf(ErrEmptyCart))
	assert.Equal(t, KindUpstream, KindOf(fmt.Errorf("fetch payment: %w", ErrUpstream)))
	assert.Equal(t, KindInternal, KindOf(assert.AnError))
}
