package repo

import (
	"context"
	"errors"
	"math/big"
	"time"

	"cloud.google.com/go/spanner"
	"github.com/wuyiadepoju/payments-reconciliation/internal/app/payments/contracts"
	"github.com/wuyiadepoju/payments-reconciliation/internal/app/payments/domain"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
)

var _ contracts.OrderRepository = (*OrderRepo)(nil)

const orderColumns = `id, buyer, total, status, checkout_ref, payment_ref, version, created_at, updated_at`

var orderMutableColumns = []string{"id", "status", "checkout_ref", "payment_ref", "version", "updated_at"}

// OrderRepo implements the order repository interface using Cloud Spanner
type OrderRepo struct {
	client *spanner.Client
}

// NewOrderRepo creates a new order repository
func NewOrderRepo(client *spanner.Client) *OrderRepo {
	return &OrderRepo{client: client}
}

// Save returns the mutations inserting the order and its lines.
// The mutations must be applied using Apply() method
func (r *OrderRepo) Save(ctx context.Context, order *domain.Order) ([]*spanner.Mutation, error) {
	mutations := []*spanner.Mutation{
		spanner.Insert("orders",
			[]string{"id", "buyer", "total", "status", "checkout_ref", "payment_ref", "version", "created_at", "updated_at"},
			[]interface{}{
				order.ID(),
				order.Buyer(),
				numericValue(order.Total()),
				string(order.Status()),
				nullString(order.CheckoutRef()),
				nullString(order.PaymentRef()),
				order.Version(),
				order.CreatedAt(),
				order.UpdatedAt(),
			}),
	}

	for i, item := range order.Items() {
		mutations = append(mutations, spanner.Insert("order_items",
			[]string{"order_id", "line_no", "product_id", "name", "quantity", "unit_price"},
			[]interface{}{
				order.ID(),
				int64(i),
				item.ProductID,
				item.Name,
				item.Quantity,
				numericValue(item.UnitPrice),
			}))
	}

	return mutations, nil
}

// Apply applies the given mutations to the database
func (r *OrderRepo) Apply(ctx context.Context, mutations ...*spanner.Mutation) error {
	_, err := r.client.Apply(ctx, mutations)
	return err
}

// FindByID retrieves an order and its lines by ID
func (r *OrderRepo) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	stmt := spanner.Statement{
		SQL: `SELECT ` + orderColumns + `
			FROM orders
			WHERE id = @id`,
		Params: map[string]interface{}{
			"id": id,
		},
	}

	orders, err := r.query(ctx, stmt)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, domain.ErrOrderNotFound
	}
	return orders[0], nil
}

// FindByCheckoutRef returns nil, nil when no order carries ref.
func (r *OrderRepo) FindByCheckoutRef(ctx context.Context, ref string) (*domain.Order, error) {
	stmt := spanner.Statement{
		SQL: `SELECT ` + orderColumns + `
			FROM orders@{FORCE_INDEX=orders_by_checkout_ref}
			WHERE checkout_ref = @ref`,
		Params: map[string]interface{}{
			"ref": ref,
		},
	}

	orders, err := r.query(ctx, stmt)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, nil
	}
	return orders[0], nil
}

// ListByBuyer returns the buyer's orders, newest first
func (r *OrderRepo) ListByBuyer(ctx context.Context, buyer string) ([]*domain.Order, error) {
	stmt := spanner.Statement{
		SQL: `SELECT ` + orderColumns + `
			FROM orders
			WHERE buyer = @buyer
			ORDER BY created_at DESC`,
		Params: map[string]interface{}{
			"buyer": buyer,
		},
	}

	return r.query(ctx, stmt)
}

// UpdateIfVersion writes the mutable columns only when the stored version
// still matches expectedVersion. The read and the write share one
// read-write transaction, so Spanner's locking makes the check atomic.
func (r *OrderRepo) UpdateIfVersion(ctx context.Context, order *domain.Order, expectedVersion int64) error {
	_, err := r.client.ReadWriteTransaction(ctx, func(ctx context.Context, txn *spanner.ReadWriteTransaction) error {
		row, err := txn.ReadRow(ctx, "orders", spanner.Key{order.ID()}, []string{"version"})
		if err != nil {
			if spanner.ErrCode(err) == codes.NotFound {
				return domain.ErrOrderNotFound
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
			spanner.Update("orders", orderMutableColumns, []interface{}{
				order.ID(),
				string(order.Status()),
				nullString(order.CheckoutRef()),
				nullString(order.PaymentRef()),
				order.Version(),
				order.UpdatedAt(),
			}),
		})
	})
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, domain.ErrOrderNotFound), errors.Is(err, domain.ErrVersionConflict):
		return err
	case spanner.ErrCode(err) == codes.AlreadyExists:
		// unique index on checkout_ref
		return domain.ErrCheckoutReferenceInUse
	}
	return err
}

// query runs stmt against a single read-only snapshot and loads the lines
// of every returned order from the same snapshot.
func (r *OrderRepo) query(ctx context.Context, stmt spanner.Statement) ([]*domain.Order, error) {
	txn := r.client.ReadOnlyTransaction()
	defer txn.Close()

	var (
		records []domain.OrderRecord
		ids     []string
	)
	iter := txn.Query(ctx, stmt)
	defer iter.Stop()
	for {
		row, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		rec, err := scanOrder(row)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
		ids = append(ids, rec.ID)
	}
	if len(records) == 0 {
		return nil, nil
	}

	items, err := r.loadItems(ctx, txn, ids)
	if err != nil {
		return nil, err
	}

	orders := make([]*domain.Order, 0, len(records))
	for _, rec := range records {
		rec.Items = items[rec.ID]
		orders = append(orders, domain.ReconstructOrder(rec))
	}
	return orders, nil
}

func (r *OrderRepo) loadItems(ctx context.Context, txn *spanner.ReadOnlyTransaction, orderIDs []string) (map[string][]domain.LineItem, error) {
	stmt := spanner.Statement{
		SQL: `SELECT order_id, product_id, name, quantity, unit_price
			FROM order_items
			WHERE order_id IN UNNEST(@ids)
			ORDER BY order_id, line_no`,
		Params: map[string]interface{}{
			"ids": orderIDs,
		},
	}

	items := make(map[string][]domain.LineItem, len(orderIDs))
	iter := txn.Query(ctx, stmt)
	defer iter.Stop()
	for {
		row, err := iter.Next()
		if err == iterator.Done {
			return items, nil
		}
		if err != nil {
			return nil, err
		}

		var (
			orderID   string
			item      domain.LineItem
			unitPrice big.Rat
		)
		if err := row.Columns(&orderID, &item.ProductID, &item.Name, &item.Quantity, &unitPrice); err != nil {
			return nil, err
		}
		if item.UnitPrice, err = decimalFromNumeric(unitPrice); err != nil {
			return nil, err
		}
		items[orderID] = append(items[orderID], item)
	}
}

func scanOrder(row *spanner.Row) (domain.OrderRecord, error) {
	var (
		rec         domain.OrderRecord
		total       big.Rat
		status      string
		checkoutRef spanner.NullString
		paymentRef  spanner.NullString
		createdAt   time.Time
		updatedAt   time.Time
	)
	if err := row.Columns(&rec.ID, &rec.Buyer, &total, &status, &checkoutRef, &paymentRef, &rec.Version, &createdAt, &updatedAt); err != nil {
		return rec, err
	}

	var err error
	if rec.Total, err = decimalFromNumeric(total); err != nil {
		return rec, err
	}
	rec.Status = domain.OrderStatus(status)
	rec.CheckoutRef = checkoutRef.StringVal
	rec.PaymentRef = paymentRef.StringVal
	rec.CreatedAt = createdAt.UTC()
	rec.UpdatedAt = updatedAt.UTC()
	return rec, nil
}

func nullString(s string) spanner.NullString {
	return spanner.NullString{StringVal: s, Valid: s != ""}
}
