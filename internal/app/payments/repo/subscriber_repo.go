package repo

import (
	"context"
	"time"

	"cloud.google.com/go/spanner"
	"github.com/wuyiadepoju/payments-reconciliation/internal/app/payments/contracts"
	"github.com/wuyiadepoju/payments-reconciliation/internal/app/payments/domain"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
)

var _ contracts.SubscriberRepository = (*SubscriberRepo)(nil)

const subscriberColumns = `id, email, premium, mandate_ref, activated_at, cancelled_at, version, updated_at`

// SubscriberRepo implements the subscriber repository interface using Cloud Spanner
type SubscriberRepo struct {
	client *spanner.Client
}

// NewSubscriberRepo creates a new subscriber repository
func NewSubscriberRepo(client *spanner.Client) *SubscriberRepo {
	return &SubscriberRepo{client: client}
}

// FindByID retrieves a subscriber by ID
func (r *SubscriberRepo) FindByID(ctx context.Context, id string) (*domain.Subscriber, error) {
	stmt := spanner.Statement{
		SQL: `SELECT ` + subscriberColumns + `
			FROM subscribers
			WHERE id = @id`,
		Params: map[string]interface{}{
			"id": id,
		},
	}

	sub, err := r.queryOne(ctx, stmt)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, domain.ErrSubscriberNotFound
	}
	return sub, nil
}

// FindByEmail returns nil, nil when no subscriber has that e-mail.
func (r *SubscriberRepo) FindByEmail(ctx context.Context, email string) (*domain.Subscriber, error) {
	stmt := spanner.Statement{
		SQL: `SELECT ` + subscriberColumns + `
			FROM subscribers@{FORCE_INDEX=subscribers_by_email}
			WHERE email = @email`,
		Params: map[string]interface{}{
			"email": email,
		},
	}

	return r.queryOne(ctx, stmt)
}

// UpdateIfVersion writes the subscription columns only when the stored
// version still matches expectedVersion.
func (r *SubscriberRepo) UpdateIfVersion(ctx context.Context, sub *domain.Subscriber, expectedVersion int64) error {
	_, err := r.client.ReadWriteTransaction(ctx, func(ctx context.Context, txn *spanner.ReadWriteTransaction) error {
		row, err := txn.ReadRow(ctx, "subscribers", spanner.Key{sub.ID()}, []string{"version"})
		if err != nil {
			if spanner.ErrCode(err) == codes.NotFound {
				return domain.ErrSubscriberNotFound
			}
			return err
		}

		var version int64
		if err := row.Column(0, &version); err != nil {
			return err
		}
		if version != expectedVersion {
			return domain.ErrVersionConflict
		}

		return txn.BufferWrite([]*spanner.Mutation{
			spanner.Update("subscribers",
				[]string{"id", "premium", "mandate_ref", "activated_at", "cancelled_at", "version", "updated_at"},
				[]interface{}{
					sub.ID(),
					sub.Premium(),
					nullString(sub.MandateRef()),
					nullTime(sub.ActivatedAt()),
					nullTime(sub.CancelledAt()),
					sub.Version(),
					sub.UpdatedAt(),
				}),
		})
	})
	return err
}

func (r *SubscriberRepo) queryOne(ctx context.Context, stmt spanner.Statement) (*domain.Subscriber, error) {
	iter := r.client.Single().Query(ctx, stmt)
	defer iter.Stop()

	row, err := iter.Next()
	if err != nil {
		if err == iterator.Done {
			return nil, nil
		}
		return nil, err
	}

	var (
		rec         domain.SubscriberRecord
		mandateRef  spanner.NullString
		activatedAt spanner.NullTime
		cancelledAt spanner.NullTime
		updatedAt   time.Time
	)
	if err := row.Columns(&rec.ID, &rec.Email, &rec.Premium, &mandateRef, &activatedAt, &cancelledAt, &rec.Version, &updatedAt); err != nil {
		return nil, err
	}
	rec.MandateRef = mandateRef.StringVal
	rec.ActivatedAt = timePtr(activatedAt)
	rec.CancelledAt = timePtr(cancelledAt)
	rec.UpdatedAt = updatedAt.UTC()

	return domain.ReconstructSubscriber(rec), nil
}

func nullTime(t *time.Time) spanner.NullTime {
	if t == nil {
		return spanner.NullTime{}
	}
	return spanner.NullTime{Time: *t, Valid: true}
}

func timePtr(t spanner.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}
