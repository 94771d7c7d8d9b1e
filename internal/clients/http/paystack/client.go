package paystack

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// DefaultBaseURL is the production Paystack API endpoint.
const DefaultBaseURL = "https://api.paystack.co"

// defaultTimeout bounds every request; a slow gateway surfaces as an error
// instead of blocking the caller.
const defaultTimeout = 15 * time.Second

// APIError carries a non-success response from the Paystack API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("paystack API returned %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("paystack API returned %d", e.StatusCode)
}

// Client talks to the Paystack transaction API. It never retries: a failed
// or timed-out call is surfaced to the caller as-is.
type Client struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
}

// Option configures the client.
type Option func(*Client)

// WithBaseURL points the client at a different API host (tests, mocks).
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(baseURL, "/") }
}

// WithHTTPClient substitutes the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// NewClient instantiates the Paystack client with sane defaults.
func NewClient(secretKey string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(secretKey) == "" {
		return nil, errors.New("paystack secret key is required")
	}
	c := &Client{
		baseURL:    DefaultBaseURL,
		secretKey:  secretKey,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// InitializeResult is the redirect handle for a started transaction.
type InitializeResult struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

// VerifyResult reports the gateway's view of a transaction.
type VerifyResult struct {
	Status          string         `json:"status"`
	Reference       string         `json:"reference"`
	Amount          int64          `json:"amount"`
	GatewayResponse string         `json:"gateway_response"`
	PaidAt          string         `json:"paid_at"`
	Metadata        map[string]any `json:"metadata"`
}

// Initialize starts a hosted checkout. Amount is in the currency's minor
// unit and is serialized as a string, matching the gateway contract.
func (c *Client) Initialize(ctx context.Context, email string, amount int64, reference string, metadata map[string]any, callbackURL string) (*InitializeResult, error) {
	payload := map[string]any{
		"email":     email,
		"amount":    strconv.FormatInt(amount, 10),
		"reference": reference,
	}
	if metadata != nil {
		payload["metadata"] = metadata
	}
	if callbackURL != "" {
		payload["callback_url"] = callbackURL
	}
	var result InitializeResult
	if err := c.post(ctx, "/transaction/initialize", payload, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Verify fetches the gateway's record of the transaction. This call is the
// sole authority for whether money moved.
func (c *Client) Verify(ctx context.Context, reference string) (*VerifyResult, error) {
	if strings.TrimSpace(reference) == "" {
		return nil, errors.New("transaction reference is required")
	}
	var result VerifyResult
	if err := c.get(ctx, "/transaction/verify/"+reference, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// VerifySignature checks the webhook signature header: a hex-encoded
// HMAC-SHA512 of the raw body under the shared secret, compared in
// constant time.
func (c *Client) VerifySignature(rawBody []byte, signature string) bool {
	mac := hmac.New(sha512.New, []byte(c.secretKey))
	mac.Write(rawBody)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

func (c *Client) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode paystack request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call paystack API: %w", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read paystack response: %w", err)
	}
	var env envelope
	if len(raw) > 0 {
		// Tolerate a non-JSON error body; the status code still decides.
		_ = json.Unmarshal(raw, &env)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return &APIError{StatusCode: resp.StatusCode, Message: env.Message}
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode paystack response: %w", err)
		}
	}
	return nil
}
