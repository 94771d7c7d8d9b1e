package httpapi

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	ordershttpmapper "github.com/Apurer/go-escrow-marketplace/internal/domains/orders/adapters/http/mapper"
	ordersports "github.com/Apurer/go-escrow-marketplace/internal/domains/orders/ports"
)

// SignatureHeader carries the gateway's HMAC over the raw webhook body.
const SignatureHeader = "x-paystack-signature"

// PaymentAPI wires HTTP transport with the payment operations of the order
// engine.
type PaymentAPI struct {
	service ordersports.Service
}

// NewPaymentAPI creates a PaymentAPI backed by the provided service.
func NewPaymentAPI(service ordersports.Service) PaymentAPI {
	return PaymentAPI{service: service}
}

// Get /v1/payments/verify/:reference
// Confirm a payment with the gateway after checkout redirect
func (api *PaymentAPI) VerifyPayment(c *gin.Context) {
	reference := c.Param("reference")
	order, err := api.service.VerifyPayment(c.Request.Context(), reference)
	if err != nil {
		respondOrderServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ordershttpmapper.FromDomainOrder(order))
}

// Post /v1/payments/webhook
// Gateway callback; the signature is checked against the raw body before
// any parsing happens
func (api *PaymentAPI) Webhook(c *gin.Context) {
	rawBody, err := io.ReadAll(c.Request.Body)
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	signature := c.GetHeader(SignatureHeader)
	if err := api.service.HandleWebhook(c.Request.Context(), rawBody, signature); err != nil {
		respondOrderServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
