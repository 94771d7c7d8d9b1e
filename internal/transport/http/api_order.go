package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	ordershttpmapper "github.com/Apurer/go-escrow-marketplace/internal/domains/orders/adapters/http/mapper"
	ordersdomain "github.com/Apurer/go-escrow-marketplace/internal/domains/orders/domain"
	ordersports "github.com/Apurer/go-escrow-marketplace/internal/domains/orders/ports"
)

// OrderAPI wires HTTP transport with the order engine and checkout workflows.
type OrderAPI struct {
	service  ordersports.Service
	checkout ordersports.CheckoutOrchestrator
}

// NewOrderAPI creates an OrderAPI backed by the provided service.
func NewOrderAPI(service ordersports.Service, checkout ordersports.CheckoutOrchestrator) OrderAPI {
	return OrderAPI{service: service, checkout: checkout}
}

type createOrderRequest struct {
	ProductID int64 `json:"product_id" binding:"required"`
}

type checkoutRequest struct {
	ProductID   int64  `json:"product_id" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	CallbackURL string `json:"callback_url"`
}

type advanceRequest struct {
	Status string `json:"status" binding:"required"`
}

// Post /v1/orders
// Create a pending order without starting payment
func (api *OrderAPI) CreateOrder(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	var payload createOrderRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	order, err := api.service.Create(c.Request.Context(), actor, payload.ProductID)
	if err != nil {
		respondOrderServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ordershttpmapper.FromDomainOrder(order))
}

// Post /v1/checkout
// Create an order and open a hosted payment session
func (api *OrderAPI) Checkout(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	var payload checkoutRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	input := ordersports.CheckoutInput{
		BuyerID:     actor,
		BuyerEmail:  payload.Email,
		ProductID:   payload.ProductID,
		CallbackURL: payload.CallbackURL,
	}
	result, err := api.startCheckout(c.Request.Context(), input)
	if err != nil {
		respondOrderServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (api *OrderAPI) startCheckout(ctx context.Context, input ordersports.CheckoutInput) (*ordersports.CheckoutResult, error) {
	if api.checkout != nil {
		return api.checkout.Checkout(ctx, input)
	}
	return api.service.InitializeCheckout(ctx, input)
}

// Get /v1/orders/:orderId
// Find order by ID
func (api *OrderAPI) GetOrder(c *gin.Context) {
	id, ok := parseIDParam(c, "orderId")
	if !ok {
		return
	}
	order, err := api.service.GetByID(c.Request.Context(), id)
	if err != nil {
		respondOrderServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ordershttpmapper.FromDomainOrder(order))
}

// Get /v1/orders/:orderId/escrow
// Show the escrow held for an order
func (api *OrderAPI) GetEscrow(c *gin.Context) {
	id, ok := parseIDParam(c, "orderId")
	if !ok {
		return
	}
	escrow, err := api.service.GetEscrow(c.Request.Context(), id)
	if err != nil {
		respondOrderServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ordershttpmapper.FromDomainEscrow(escrow))
}

// Get /v1/orders
// List the caller's orders, or every order with scope=all
func (api *OrderAPI) ListOrders(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	if c.Query("scope") == "all" {
		offset, limit := parsePageParams(c)
		orders, err := api.service.ListAll(c.Request.Context(), offset, limit)
		if err != nil {
			respondOrderServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, ordershttpmapper.FromDomainOrders(orders))
		return
	}
	orders, err := api.service.ListMine(c.Request.Context(), actor)
	if err != nil {
		respondOrderServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ordershttpmapper.FromDomainOrders(orders))
}

// Post /v1/orders/:orderId/advance
// Seller moves a paid order through fulfilment
func (api *OrderAPI) AdvanceOrder(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "orderId")
	if !ok {
		return
	}
	var payload advanceRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	target := ordersdomain.Status(strings.ToUpper(strings.TrimSpace(payload.Status)))
	order, err := api.service.Advance(c.Request.Context(), id, actor, target)
	if err != nil {
		respondOrderServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ordershttpmapper.FromDomainOrder(order))
}

// Post /v1/orders/:orderId/received
// Buyer confirms physical delivery
func (api *OrderAPI) ConfirmReceived(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "orderId")
	if !ok {
		return
	}
	order, err := api.service.ConfirmReceived(c.Request.Context(), id, actor)
	if err != nil {
		respondOrderServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ordershttpmapper.FromDomainOrder(order))
}

// Post /v1/orders/:orderId/satisfied
// Buyer confirms satisfaction, releasing the escrow
func (api *OrderAPI) ConfirmSatisfied(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "orderId")
	if !ok {
		return
	}
	order, err := api.service.ConfirmSatisfied(c.Request.Context(), id, actor)
	if err != nil {
		respondOrderServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ordershttpmapper.FromDomainOrder(order))
}
