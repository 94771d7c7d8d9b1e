package orders

import (
	"go.temporal.io/sdk/workflow"

	ordersports "github.com/Apurer/go-escrow-marketplace/internal/domains/orders/ports"
	"github.com/Apurer/go-escrow-marketplace/internal/durable/temporal/sequences"
)

const (
	// CheckoutWorkflowName is the public identifier for registering the workflow.
	CheckoutWorkflowName = "orders.workflows.Checkout"
	// CheckoutTaskQueue is the queue consumed by the worker processing checkout workflows.
	CheckoutTaskQueue = "ORDER_CHECKOUT"
)

// CheckoutWorkflowInput captures the payload required to start a purchase.
type CheckoutWorkflowInput struct {
	Command ordersports.CheckoutInput
	TraceID string
}

// CheckoutWorkflow orchestrates order creation and gateway checkout.
func CheckoutWorkflow(ctx workflow.Context, input CheckoutWorkflowInput) (*ordersports.CheckoutResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("CheckoutWorkflow started", withTraceID(input.TraceID, "buyerId", input.Command.BuyerID, "productId", input.Command.ProductID)...)
	result, err := sequences.RunCheckoutSequence(ctx, input.Command)
	if err != nil {
		logger.Error("CheckoutWorkflow failed", withTraceID(input.TraceID, "productId", input.Command.ProductID, "error", err)...)
		return nil, err
	}
	logger.Info("CheckoutWorkflow completed", withTraceID(input.TraceID, "orderId", result.OrderID)...)
	return result, nil
}

func withTraceID(traceID string, keyvals ...interface{}) []interface{} {
	if traceID == "" {
		return keyvals
	}
	return append(keyvals, "traceId", traceID)
}
