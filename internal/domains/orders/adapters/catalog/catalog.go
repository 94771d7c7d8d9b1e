package catalog

import (
	"context"
	"errors"

	catalogdomain "github.com/Apurer/go-escrow-marketplace/internal/domains/catalog/domain"
	catalogports "github.com/Apurer/go-escrow-marketplace/internal/domains/catalog/ports"
	ordersdomain "github.com/Apurer/go-escrow-marketplace/internal/domains/orders/domain"
	ordersports "github.com/Apurer/go-escrow-marketplace/internal/domains/orders/ports"
)

var _ ordersports.Catalog = (*Collaborator)(nil)

// Collaborator adapts the catalog service to the slim view the order
// engine consumes.
type Collaborator struct {
	service catalogports.Service
}

func NewCollaborator(service catalogports.Service) *Collaborator {
	return &Collaborator{service: service}
}

func (c *Collaborator) GetProduct(ctx context.Context, productID int64) (*ordersports.ProductInfo, error) {
	product, err := c.service.GetProduct(ctx, productID)
	if err != nil {
		return nil, mapError(err)
	}
	return &ordersports.ProductInfo{
		ID:          product.ID,
		SellerID:    product.SellerID,
		Price:       product.Price,
		DeliveryFee: product.DeliveryFee,
		Active:      product.Active,
		OutOfStock:  product.OutOfStock,
		SingleUnit:  product.SingleUnit(),
	}, nil
}

func (c *Collaborator) ApplyDeliverySideEffect(ctx context.Context, productID int64) error {
	if _, err := c.service.ApplyDeliverySideEffect(ctx, productID); err != nil {
		return mapError(err)
	}
	return nil
}

func mapError(err error) error {
	if errors.Is(err, catalogdomain.ErrNotFound) {
		return ordersdomain.ErrNotFound
	}
	return err
}
