package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wuyiadepoju/payments-reconciliation/internal/app/payments/domain"
)

func newTestSubscriptionLedger() (*SubscriptionLedger, *memSubscriberRepo) {
	repo := newMemSubscriberRepo(domain.SubscriberRecord{
		ID:        "user-1",
		Email:     "buyer@example.com",
		Version:   1,
		UpdatedAt: testClock.Now(),
	})
	return NewSubscriptionLedger(repo, testClock), repo
}

func TestSubscriptionLedger_Activate(t *testing.T) {
	ctx := context.Background()
	l, repo := newTestSubscriptionLedger()

	sub, err := l.Activate(ctx, "user-1", "mandate-1")
	require.NoError(t, err)
	assert.True(t, sub.Premium())
	assert.Equal(t, "mandate-1", sub.MandateRef())
	require.NotNil(t, sub.ActivatedAt())
	assert.Equal(t, testClock.Now(), *sub.ActivatedAt())

	t.Run("same mandate twice is a no-op", func(t *testing.T) {
		before := repo.rows["user-1"].Version
		again, err := l.Activate(ctx, "user-1", "mandate-1")
		require.NoError(t, err)
		assert.True(t, again.Premium())
		assert.Equal(t, before, repo.rows["user-1"].Version)
	})

	t.Run("different mandate while active", func(t *testing.T) {
		_, err := l.Activate(ctx, "user-1", "mandate-2")
		assert.ErrorIs(t, err, domain.ErrMandateConflict)
		assert.Equal(t, "mandate-1", repo.rows["user-1"].MandateRef)
	})
}

func TestSubscriptionLedger_ActivateValidation(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestSubscriptionLedger()

	_, err := l.Activate(ctx, "", "mandate-1")
	assert.ErrorIs(t, err, domain.ErrInvalidSubscriberID)

	_, err = l.Activate(ctx, "user-1", "")
	assert.ErrorIs(t, err, domain.ErrInvalidMandateReference)

	_, err = l.Activate(ctx, "user-404", "mandate-1")
	assert.ErrorIs(t, err, domain.ErrSubscriberNotFound)
}

func TestSubscriptionLedger_Cancel(t *testing.T) {
	ctx := context.Background()
	l, repo := newTestSubscriptionLedger()

	_, err := l.Activate(ctx, "user-1", "mandate-1")
	require.NoError(t, err)

	sub, err := l.Cancel(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, sub.Premium())
	assert.Equal(t, "mandate-1", sub.MandateRef())
	assert.NotNil(t, sub.CancelledAt())

	before := repo.rows["user-1"].Version
	_, err = l.Cancel(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, before, repo.rows["user-1"].Version)

	// reactivation with a new mandate is allowed after cancellation
	sub, err = l.Activate(ctx, "user-1", "mandate-2")
	require.NoError(t, err)
	assert.True(t, sub.Premium())
	assert.Nil(t, sub.CancelledAt())
}

func TestSubscriptionLedger_ConflictRetry(t *testing.T) {
	ctx := context.Background()

	l, repo := newTestSubscriptionLedger()
	repo.forcedConflicts = 1
	sub, err := l.Activate(ctx, "user-1", "mandate-1")
	require.NoError(t, err)
	assert.True(t, sub.Premium())

	l, repo = newTestSubscriptionLedger()
	repo.forcedConflicts = 2
	_, err = l.Activate(ctx, "user-1", "mandate-1")
	assert.ErrorIs(t, err, domain.ErrConcurrentModification)
	assert.False(t, repo.rows["user-1"].Premium)
}

func TestSubscriptionLedger_FindByEmail(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestSubscriptionLedger()

	sub, err := l.FindByEmail(ctx, "buyer@example.com")
	require.NoError(t, err)
	require.NotNil(t, sub)
	assert.Equal(t, "user-1", sub.ID())

	sub, err = l.FindByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, sub)

	sub, err = l.FindByEmail(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, sub)
}
