package contracts

import (
	"context"

	"github.com/wuyiadepoju/payments-reconciliation/internal/app/payments/domain"
)

// Catalog looks up products for checkout. A missing product is
// domain.ErrUnknownProduct.
type Catalog interface {
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
}
