package ports

import "context"

// ProductInfo is the slice of the catalog the engine needs for guards and
// pricing. The catalog context owns the full product aggregate.
type ProductInfo struct {
	ID          int64
	SellerID    int64
	Price       int64
	DeliveryFee int64
	Active      bool
	OutOfStock  bool
	// SingleUnit products are sold once and deactivated on delivery;
	// multi-unit products decrement quantity instead.
	SingleUnit bool
}

// Catalog is the collaborator the engine consults on create and mutates as
// a delivery side effect.
type Catalog interface {
	GetProduct(ctx context.Context, productID int64) (*ProductInfo, error)
	// ApplyDeliverySideEffect deactivates a single-unit product or
	// decrements a multi-unit product's quantity, disabling it at zero.
	ApplyDeliverySideEffect(ctx context.Context, productID int64) error
}
