package ports

import (
	"context"

	"github.com/Apurer/go-escrow-marketplace/internal/domains/catalog/domain"
)

// Repository persists catalog products.
type Repository interface {
	Save(ctx context.Context, product *domain.Product) (*domain.Product, error)
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	List(ctx context.Context, offset, limit int) ([]*domain.Product, error)
	// ApplyDelivery performs the delivery side effect as one conditional
	// write: decrement-or-disable depending on the product kind.
	ApplyDelivery(ctx context.Context, id int64) (*domain.Product, error)
}
