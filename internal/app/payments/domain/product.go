package domain

import "github.com/shopspring/decimal"

// Product is the catalog view consumed by checkout.
type Product struct {
	ID             string
	Name           string
	Price          decimal.Decimal
	IsSubscription bool
}

// CartItem is a requested product and quantity, before pricing.
type CartItem struct {
	ProductID string
	Quantity  int64
}

// LineItem is a priced order line. UnitPrice is the catalog price at the
// time the order was created.
type LineItem struct {
	ProductID string
	Name      string
	Quantity  int64
	UnitPrice decimal.Decimal
}

// Subtotal returns UnitPrice * Quantity.
func (l LineItem) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(l.Quantity))
}
