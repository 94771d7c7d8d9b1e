package ports

import (
	"context"

	"github.com/Apurer/go-escrow-marketplace/internal/domains/catalog/domain"
)

// Service exposes catalog use cases to adapters and to the order engine.
type Service interface {
	AddProduct(ctx context.Context, product *domain.Product) (*domain.Product, error)
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	ListProducts(ctx context.Context, offset, limit int) ([]*domain.Product, error)
	ApplyDeliverySideEffect(ctx context.Context, id int64) (*domain.Product, error)
}
