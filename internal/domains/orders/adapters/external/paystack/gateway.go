package paystack

import (
	"context"
	"errors"
	"time"

	paystackclient "github.com/Apurer/go-escrow-marketplace/internal/clients/http/paystack"
	"github.com/Apurer/go-escrow-marketplace/internal/domains/orders/ports"
)

var _ ports.PaymentGateway = (*Gateway)(nil)

// Gateway adapts the Paystack HTTP client to the payment gateway port the
// order engine depends on.
type Gateway struct {
	client *paystackclient.Client
}

func NewGateway(client *paystackclient.Client) (*Gateway, error) {
	if client == nil {
		return nil, errors.New("paystack client is required")
	}
	return &Gateway{client: client}, nil
}

func (g *Gateway) Initialize(ctx context.Context, req ports.InitializeRequest) (*ports.CheckoutSession, error) {
	result, err := g.client.Initialize(ctx, req.Email, req.Amount, req.Reference, req.Metadata, req.CallbackURL)
	if err != nil {
		return nil, wrapError("initialize", err)
	}
	return &ports.CheckoutSession{
		AuthorizationURL: result.AuthorizationURL,
		AccessCode:       result.AccessCode,
		Reference:        result.Reference,
	}, nil
}

func (g *Gateway) Verify(ctx context.Context, reference string) (*ports.VerifyResult, error) {
	result, err := g.client.Verify(ctx, reference)
	if err != nil {
		return nil, wrapError("verify", err)
	}
	paidAt, _ := time.Parse(time.RFC3339, result.PaidAt)
	return &ports.VerifyResult{
		Status:   result.Status,
		Amount:   result.Amount,
		PaidAt:   paidAt,
		Metadata: result.Metadata,
	}, nil
}

func (g *Gateway) VerifySignature(rawBody []byte, signature string) bool {
	return g.client.VerifySignature(rawBody, signature)
}

func wrapError(op string, err error) error {
	var apiErr *paystackclient.APIError
	if errors.As(err, &apiErr) {
		return &ports.GatewayError{Op: op, Status: apiErr.StatusCode, Err: err}
	}
	return &ports.GatewayError{Op: op, Err: err}
}
