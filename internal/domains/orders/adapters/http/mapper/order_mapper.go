package mapper

import (
	"time"

	ordersdomain "github.com/Apurer/go-escrow-marketplace/internal/domains/orders/domain"
)

// Order is the transport-layer shape of an order.
type Order struct {
	ID          int64      `json:"id"`
	Reference   string     `json:"reference"`
	ProductID   int64      `json:"product_id"`
	BuyerID     int64      `json:"buyer_id"`
	SellerID    int64      `json:"seller_id"`
	Price       int64      `json:"price"`
	DeliveryFee int64      `json:"delivery_fee"`
	Total       int64      `json:"total"`
	Status      string     `json:"status"`
	ReceivedAt  *time.Time `json:"received_at,omitempty"`
	Satisfied   bool       `json:"satisfied"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Escrow is the transport-layer shape of a payment hold.
type Escrow struct {
	ID                   int64      `json:"id"`
	OrderID              int64      `json:"order_id"`
	Amount               int64      `json:"amount"`
	Currency             string     `json:"currency"`
	Status               string     `json:"status"`
	GatewayTransactionID string     `json:"gateway_transaction_id"`
	ReleasedAt           *time.Time `json:"released_at,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
}

// FromDomainOrder converts a domain order to the transport representation.
func FromDomainOrder(order *ordersdomain.Order) Order {
	if order == nil {
		return Order{}
	}
	return Order{
		ID:          order.ID,
		Reference:   order.Reference,
		ProductID:   order.ProductID,
		BuyerID:     order.BuyerID,
		SellerID:    order.SellerID,
		Price:       order.Price,
		DeliveryFee: order.DeliveryFee,
		Total:       order.Total(),
		Status:      string(order.Status),
		ReceivedAt:  order.ReceivedAt,
		Satisfied:   order.Satisfied,
		CreatedAt:   order.CreatedAt,
		UpdatedAt:   order.UpdatedAt,
	}
}

// FromDomainOrders converts a slice of domain orders.
func FromDomainOrders(orders []*ordersdomain.Order) []Order {
	out := make([]Order, 0, len(orders))
	for _, order := range orders {
		out = append(out, FromDomainOrder(order))
	}
	return out
}

// FromDomainEscrow converts a domain escrow to the transport representation.
func FromDomainEscrow(escrow *ordersdomain.Escrow) Escrow {
	if escrow == nil {
		return Escrow{}
	}
	return Escrow{
		ID:                   escrow.ID,
		OrderID:              escrow.OrderID,
		Amount:               escrow.Amount,
		Currency:             escrow.Currency,
		Status:               string(escrow.Status),
		GatewayTransactionID: escrow.GatewayTransactionID,
		ReleasedAt:           escrow.ReleasedAt,
		CreatedAt:            escrow.CreatedAt,
	}
}
