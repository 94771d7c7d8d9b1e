package sequences

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	orderactivities "github.com/Apurer/go-escrow-marketplace/internal/durable/temporal/activities/orders"
	ordersports "github.com/Apurer/go-escrow-marketplace/internal/domains/orders/ports"
)

// RunCheckoutSequence executes the activities needed to open a checkout
// session. The initialize activity runs at most once: a failed gateway call
// leaves the order pending for the auto-cancel sweep rather than firing a
// duplicate charge attempt.
func RunCheckoutSequence(ctx workflow.Context, input ordersports.CheckoutInput) (*ordersports.CheckoutResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("checkout sequence started", "buyerId", input.BuyerID, "productId", input.ProductID)
	options := workflow.ActivityOptions{
		StartToCloseTimeout: time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 1,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, options)

	var result ordersports.CheckoutResult
	err := workflow.ExecuteActivity(ctx, orderactivities.InitializeCheckoutActivityName, input).Get(ctx, &result)
	if err != nil {
		logger.Error("checkout sequence failed", "productId", input.ProductID, "error", err)
		return nil, err
	}
	logger.Info("checkout sequence completed", "orderId", result.OrderID, "reference", result.Reference)
	return &result, nil
}
