package application

import (
	"context"
	"errors"

	"github.com/Apurer/go-escrow-marketplace/internal/domains/catalog/domain"
	"github.com/Apurer/go-escrow-marketplace/internal/domains/catalog/ports"
)

// Service orchestrates catalog use cases.
type Service struct {
	repo ports.Repository
}

func NewService(repo ports.Repository) *Service {
	return &Service{repo: repo}
}

// AddProduct validates and persists a new listing.
func (s *Service) AddProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	if product == nil {
		return nil, errors.New("product is nil")
	}
	if product.Kind != domain.KindDeclutter && product.Kind != domain.KindOnlineStore {
		return nil, domain.ErrInvalidProduct
	}
	if product.SingleUnit() {
		product.Quantity = 1
	}
	return s.repo.Save(ctx, product)
}

// GetProduct loads a single listing.
func (s *Service) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	return s.repo.GetByID(ctx, id)
}

// ListProducts pages through listings.
func (s *Service) ListProducts(ctx context.Context, offset, limit int) ([]*domain.Product, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.repo.List(ctx, offset, limit)
}

// ApplyDeliverySideEffect performs the availability mutation for one
// delivered order of the product.
func (s *Service) ApplyDeliverySideEffect(ctx context.Context, id int64) (*domain.Product, error) {
	return s.repo.ApplyDelivery(ctx, id)
}

var _ ports.Service = (*Service)(nil)
