package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ApiHandleFunctions groups the handlers mounted on the router.
type ApiHandleFunctions struct {
	OrderAPI   OrderAPI
	PaymentAPI PaymentAPI
	CatalogAPI CatalogAPI
	FeedAPI    FeedAPI
}

// NewRouter mounts all routes on a gin engine.
func NewRouter(handles ApiHandleFunctions) *gin.Engine {
	router := gin.Default()
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/v1")
	{
		v1.POST("/orders", handles.OrderAPI.CreateOrder)
		v1.GET("/orders", handles.OrderAPI.ListOrders)
		v1.GET("/orders/:orderId", handles.OrderAPI.GetOrder)
		v1.GET("/orders/:orderId/escrow", handles.OrderAPI.GetEscrow)
		v1.POST("/orders/:orderId/advance", handles.OrderAPI.AdvanceOrder)
		v1.POST("/orders/:orderId/received", handles.OrderAPI.ConfirmReceived)
		v1.POST("/orders/:orderId/satisfied", handles.OrderAPI.ConfirmSatisfied)
		v1.GET("/orders/:orderId/events", handles.FeedAPI.PollOrderEvents)

		v1.POST("/checkout", handles.OrderAPI.Checkout)
		v1.GET("/payments/verify/:reference", handles.PaymentAPI.VerifyPayment)
		v1.POST("/payments/webhook", handles.PaymentAPI.Webhook)

		v1.POST("/products", handles.CatalogAPI.AddProduct)
		v1.GET("/products", handles.CatalogAPI.ListProducts)
		v1.GET("/products/:productId", handles.CatalogAPI.GetProduct)
	}
	return router
}
