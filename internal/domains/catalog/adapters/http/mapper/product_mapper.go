package mapper

import (
	"time"

	catalogdomain "github.com/Apurer/go-escrow-marketplace/internal/domains/catalog/domain"
)

// Product is the transport-layer shape of a catalog listing.
type Product struct {
	ID            int64     `json:"id"`
	SellerID      int64     `json:"seller_id"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	Price         int64     `json:"price"`
	DeliveryFee   int64     `json:"delivery_fee"`
	Condition     string    `json:"condition,omitempty"`
	LocationState string    `json:"location_state,omitempty"`
	Kind          string    `json:"kind"`
	Quantity      int       `json:"quantity"`
	Active        bool      `json:"active"`
	OutOfStock    bool      `json:"out_of_stock"`
	Images        []string  `json:"images,omitempty"`
	Videos        []string  `json:"videos,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// NewProductRequest carries the fields a seller submits for a new listing.
type NewProductRequest struct {
	SellerID      int64    `json:"seller_id" binding:"required"`
	Name          string   `json:"name" binding:"required"`
	Description   string   `json:"description"`
	Price         int64    `json:"price" binding:"required"`
	DeliveryFee   int64    `json:"delivery_fee"`
	Condition     string   `json:"condition"`
	LocationState string   `json:"location_state"`
	Kind          string   `json:"kind" binding:"required"`
	Quantity      int      `json:"quantity"`
	Images        []string `json:"images"`
	Videos        []string `json:"videos"`
}

// ToDomainProduct converts the request into a validated domain product.
func ToDomainProduct(req NewProductRequest) (*catalogdomain.Product, error) {
	product, err := catalogdomain.NewProduct(
		req.SellerID,
		req.Name,
		req.Price,
		req.DeliveryFee,
		catalogdomain.Kind(req.Kind),
		req.Quantity,
	)
	if err != nil {
		return nil, err
	}
	product.Description = req.Description
	product.Condition = req.Condition
	product.LocationState = req.LocationState
	product.Images = req.Images
	product.Videos = req.Videos
	return product, nil
}

// FromDomainProduct converts a domain product to the transport representation.
func FromDomainProduct(product *catalogdomain.Product) Product {
	if product == nil {
		return Product{}
	}
	return Product{
		ID:            product.ID,
		SellerID:      product.SellerID,
		Name:          product.Name,
		Description:   product.Description,
		Price:         product.Price,
		DeliveryFee:   product.DeliveryFee,
		Condition:     product.Condition,
		LocationState: product.LocationState,
		Kind:          string(product.Kind),
		Quantity:      product.Quantity,
		Active:        product.Active,
		OutOfStock:    product.OutOfStock,
		Images:        product.Images,
		Videos:        product.Videos,
		CreatedAt:     product.CreatedAt,
		UpdatedAt:     product.UpdatedAt,
	}
}

// FromDomainProducts converts a slice of domain products.
func FromDomainProducts(products []*catalogdomain.Product) []Product {
	out := make([]Product, 0, len(products))
	for _, product := range products {
		out = append(out, FromDomainProduct(product))
	}
	return out
}
