package domain

import (
	"errors"
	"time"
)

// Kind discriminates how a product is sold.
type Kind string

const (
	// KindDeclutter is a single-unit, second-hand listing. It is sold
	// once and deactivated permanently on delivery.
	KindDeclutter Kind = "Declutter"
	// KindOnlineStore is a multi-unit storefront listing with a quantity
	// decremented per delivered order.
	KindOnlineStore Kind = "Online Store"
)

var (
	ErrNotFound       = errors.New("product not found")
	ErrInvalidProduct = errors.New("product is invalid")
)

// Product is the catalog aggregate mutated by the order engine as a
// delivery side effect.
type Product struct {
	ID            int64
	SellerID      int64
	Name          string
	Description   string
	Price         int64
	DeliveryFee   int64
	Condition     string
	LocationState string
	Kind          Kind
	Quantity      int
	Active        bool
	OutOfStock    bool
	Images        []string
	Videos        []string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewProduct validates and constructs a catalog listing. Declutter listings
// always carry quantity 1 regardless of the requested amount.
func NewProduct(sellerID int64, name string, price, deliveryFee int64, kind Kind, quantity int) (*Product, error) {
	if sellerID <= 0 {
		return nil, ErrInvalidProduct
	}
	if name == "" || price <= 0 {
		return nil, ErrInvalidProduct
	}
	if kind != KindDeclutter && kind != KindOnlineStore {
		return nil, ErrInvalidProduct
	}
	if kind == KindDeclutter || quantity <= 0 {
		quantity = 1
	}
	return &Product{
		SellerID:    sellerID,
		Name:        name,
		Price:       price,
		DeliveryFee: deliveryFee,
		Kind:        kind,
		Quantity:    quantity,
		Active:      true,
	}, nil
}

// SingleUnit reports whether the product is sold exactly once.
func (p *Product) SingleUnit() bool { return p.Kind == KindDeclutter }

// Available reports whether the product can currently be purchased.
func (p *Product) Available() bool { return p.Active && !p.OutOfStock }

// ApplyDelivery mutates availability after one order of the product is
// delivered: single-unit listings are retired, multi-unit listings lose one
// unit and go out of stock at zero.
func (p *Product) ApplyDelivery() {
	if p.SingleUnit() {
		p.Active = false
		p.OutOfStock = true
		return
	}
	if p.Quantity > 0 {
		p.Quantity--
	}
	if p.Quantity <= 0 {
		p.Active = false
		p.OutOfStock = true
	}
}
