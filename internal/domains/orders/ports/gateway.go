package ports

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrSignatureInvalid rejects webhook payloads whose signature does not
// match the shared-secret HMAC. No order or escrow write may happen after it.
var ErrSignatureInvalid = errors.New("webhook signature mismatch")

// GatewayError wraps failures talking to the payment processor: transport
// errors, timeouts, or non-success HTTP statuses. The adapter never retries;
// the caller surfaces it and the auto-cancel sweep reclaims the order.
type GatewayError struct {
	Op     string
	Status int
	Err    error
}

func (e *GatewayError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("payment gateway %s failed with status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("payment gateway %s failed: %v", e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }

// InitializeRequest starts a hosted checkout with the gateway. Amount is in
// the currency's minor unit; conversion happens only at this boundary.
type InitializeRequest struct {
	Email       string
	Amount      int64
	Reference   string
	Metadata    map[string]any
	CallbackURL string
}

// CheckoutSession is the gateway's redirect handle for a started checkout.
type CheckoutSession struct {
	AuthorizationURL string
	AccessCode       string
	Reference        string
}

// VerifyResult reports what the gateway knows about a transaction. Its
// Status field is the sole authority for whether money moved.
type VerifyResult struct {
	Status   string
	Amount   int64
	PaidAt   time.Time
	Metadata map[string]any
}

// Success reports whether the gateway confirmed the charge.
func (r *VerifyResult) Success() bool { return r != nil && r.Status == "success" }

// PaymentGateway initializes and verifies external transactions and
// authenticates inbound webhooks.
type PaymentGateway interface {
	Initialize(ctx context.Context, req InitializeRequest) (*CheckoutSession, error)
	Verify(ctx context.Context, reference string) (*VerifyResult, error)
	// VerifySignature compares the supplied signature against an
	// HMAC-SHA512 of the raw, unparsed body in constant time.
	VerifySignature(rawBody []byte, signature string) bool
}
