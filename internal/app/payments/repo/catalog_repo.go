package repo

import (
	"context"
	"math/big"

	"cloud.google.com/go/spanner"
	"github.com/wuyiadepoju/payments-reconciliation/internal/app/payments/contracts"
	"github.com/wuyiadepoju/payments-reconciliation/internal/app/payments/domain"
	"google.golang.org/grpc/codes"
)

var _ contracts.Catalog = (*CatalogRepo)(nil)

// CatalogRepo reads products from Cloud Spanner
type CatalogRepo struct {
	client *spanner.Client
}

// NewCatalogRepo creates a new catalog repository
func NewCatalogRepo(client *spanner.Client) *CatalogRepo {
	return &CatalogRepo{client: client}
}

// GetProduct retrieves a product by ID
func (r *CatalogRepo) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	row, err := r.client.Single().ReadRow(ctx, "products", spanner.Key{id}, []string{"id", "name", "price", "is_subscription"})
	if err != nil {
		if spanner.ErrCode(err) == codes.NotFound {
			return nil, domain.ErrUnknownProduct
		}
		return nil, err
	}

	var (
		p     domain.Product
		price big.Rat
	)
	if err := row.Columns(&p.ID, &p.Name, &price, &p.IsSubscription); err != nil {
		return nil, err
	}
	if p.Price, err = decimalFromNumeric(price); err != nil {
		return nil, err
	}
	return &p, nil
}
