package ledger

import (
	"context"
	"sort"
	"sync"

	"cloud.google.com/go/spanner"
	"github.com/wuyiadepoju/payments-reconciliation/internal/app/payments/contracts"
	"github.com/wuyiadepoju/payments-reconciliation/internal/app/payments/domain"
)

var (
	_ contracts.OrderRepository      = (*memOrderRepo)(nil)
	_ contracts.SubscriberRepository = (*memSubscriberRepo)(nil)
)

// memOrderRepo keeps order records in memory with the same version check
// the Spanner repository performs. forcedConflicts makes the next N
// UpdateIfVersion calls fail with a version conflict.
type memOrderRepo struct {
	mu              sync.Mutex
	rows            map[string]domain.OrderRecord
	staged          map[*spanner.Mutation]domain.OrderRecord
	forcedConflicts int
	updates         int
}

func newMemOrderRepo() *memOrderRepo {
	return &memOrderRepo{
		rows:   make(map[string]domain.OrderRecord),
		staged: make(map[*spanner.Mutation]domain.OrderRecord),
	}
}

func orderRecord(o *domain.Order) domain.OrderRecord {
	return domain.OrderRecord{
		ID:          o.ID(),
		Buyer:       o.Buyer(),
		Items:       o.Items(),
		Total:       o.Total(),
		Status:      o.Status(),
		CheckoutRef: o.CheckoutRef(),
		PaymentRef:  o.PaymentRef(),
		Version:     o.Version(),
		CreatedAt:   o.CreatedAt(),
		UpdatedAt:   o.UpdatedAt(),
	}
}

func (r *memOrderRepo) Save(ctx context.Context, order *domain.Order) ([]*spanner.Mutation, error) {
	m := spanner.Insert("orders", []string{"id"}, []interface{}{order.ID()})
	r.mu.Lock()
	r.staged[m] = orderRecord(order)
	r.mu.Unlock()
	return []*spanner.Mutation{m}, nil
}

func (r *memOrderRepo) Apply(ctx context.Context, mutations ...*spanner.Mutation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range mutations {
		rec, ok := r.staged[m]
		if !ok {
			continue
		}
		delete(r.staged, m)
		r.rows[rec.ID] = rec
	}
	return nil
}

func (r *memOrderRepo) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.rows[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return domain.ReconstructOrder(rec), nil
}

func (r *memOrderRepo) FindByCheckoutRef(ctx context.Context, ref string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.rows {
		if rec.CheckoutRef == ref {
			return domain.ReconstructOrder(rec), nil
		}
	}
	return nil, nil
}

func (r *memOrderRepo) ListByBuyer(ctx context.Context, buyer string) ([]*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var orders []*domain.Order
	for _, rec := range r.rows {
		if rec.Buyer == buyer {
			orders = append(orders, domain.ReconstructOrder(rec))
		}
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].CreatedAt().After(orders[j].CreatedAt()) })
	return orders, nil
}

func (r *memOrderRepo) UpdateIfVersion(ctx context.Context, order *domain.Order, expectedVersion int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.forcedConflicts > 0 {
		r.forcedConflicts--
		return domain.ErrVersionConflict
	}
	cur, ok := r.rows[order.ID()]
	if !ok {
		return domain.ErrOrderNotFound
	}
	if cur.Version != expectedVersion {
		return domain.ErrVersionConflict
	}
	if ref := order.CheckoutRef(); ref != "" {
		for id, rec := range r.rows {
			if id != order.ID() && rec.CheckoutRef == ref {
				return domain.ErrCheckoutReferenceInUse
			}
		}
	}
	r.rows[order.ID()] = orderRecord(order)
	r.updates++
	return nil
}

func (r *memOrderRepo) stored(id string) domain.OrderRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rows[id]
}

type memSubscriberRepo struct {
	mu              sync.Mutex
	rows            map[string]domain.SubscriberRecord
	forcedConflicts int
}

func newMemSubscriberRepo(records ...domain.SubscriberRecord) *memSubscriberRepo {
	r := &memSubscriberRepo{rows: make(map[string]domain.SubscriberRecord)}
	for _, rec := range records {
		r.rows[rec.ID] = rec
	}
	return r
}

func subscriberRecord(s *domain.Subscriber) domain.SubscriberRecord {
	return domain.SubscriberRecord{
		ID:          s.ID(),
		Email:       s.Email(),
		Premium:     s.Premium(),
		MandateRef:  s.MandateRef(),
		ActivatedAt: s.ActivatedAt(),
		CancelledAt: s.CancelledAt(),
		Version:     s.Version(),
		UpdatedAt:   s.UpdatedAt(),
	}
}

func (r *memSubscriberRepo) FindByID(ctx context.Context, id string) (*domain.Subscriber, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.rows[id]
	if !ok {
		return nil, domain.ErrSubscriberNotFound
	}
	return domain.ReconstructSubscriber(rec), nil
}

func (r *memSubscriberRepo) FindByEmail(ctx context.Context, email string) (*domain.Subscriber, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.rows {
		if rec.Email == email {
			return domain.ReconstructSubscriber(rec), nil
		}
	}
	return nil, nil
}

func (r *memSubscriberRepo) UpdateIfVersion(ctx context.Context, sub *domain.Subscriber, expectedVersion int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.forcedConflicts > 0 {
		r.forcedConflicts--
		return domain.ErrVersionConflict
	}
	cur, ok := r.rows[sub.ID()]
	if !ok {
		return domain.ErrSubscriberNotFound
	}
	if cur.Version != expectedVersion {
		return domain.ErrVersionConflict
	}
	r.rows[sub.ID()] = subscriberRecord(sub)
	return nil
}
