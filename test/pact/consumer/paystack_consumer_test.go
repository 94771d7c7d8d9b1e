//go:build pact
// +build pact

package consumer_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	pacttest "github.com/Apurer/go-escrow-marketplace/test/pact"

	pactconsumer "github.com/pact-foundation/pact-go/v2/consumer"
	pactlog "github.com/pact-foundation/pact-go/v2/log"
	"github.com/pact-foundation/pact-go/v2/matchers"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/go-escrow-marketplace/internal/clients/http/paystack"
)

func TestPaymentGatewayContract(t *testing.T) {
	t.Helper()
	pactlog.SetLogLevel("INFO")

	pact, err := pactconsumer.NewV2Pact(pactconsumer.MockHTTPProviderConfig{
		Consumer: pacttest.ConsumerName,
		Provider: pacttest.ProviderName,
		PactDir:  pacttest.PactDir(t),
		LogDir:   pacttest.LogDir(t),
	})
	require.NoError(t, err)

	jsonContentType := matchers.Regex("application/json; charset=utf-8", "application\\/json(?:;\\s?charset=utf-8)?")
	bearerToken := matchers.Regex("Bearer sk_test_secret", "Bearer .+")

	pact.AddInteraction().
		Given(pacttest.StateTransactionsBaseline).
		UponReceiving("a request to initialize a transaction").
		WithRequest("POST", "/transaction/initialize", func(b *pactconsumer.V2RequestBuilder) {
			b.Header("Content-Type", matchers.S("application/json"))
			b.Header("Authorization", bearerToken)
			b.JSONBody(matchers.Map{
				"email":        matchers.Like(pacttest.ExampleEmail),
				"amount":       matchers.Regex(pacttest.ExampleAmountMinor, "\\d+"),
				"reference":    matchers.Like(pacttest.ExistingReference),
				"callback_url": matchers.Like(pacttest.ExampleCallbackURL),
			})
		}).
		WillRespondWith(http.StatusOK, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", jsonContentType)
			b.JSONBody(matchers.Map{
				"status":  matchers.Like(true),
				"message": matchers.S("Authorization URL created"),
				"data": matchers.Map{
					"authorization_url": matchers.Regex("https://checkout.paystack.com/abc123", "https://.+"),
					"access_code":       matchers.Like("abc123"),
					"reference":         matchers.Like(pacttest.ExistingReference),
				},
			})
		})

	pact.AddInteraction().
		Given(pacttest.StateTransactionSucceeded).
		UponReceiving("a request to verify a successful transaction").
		WithRequest("GET", fmt.Sprintf("/transaction/verify/%s", pacttest.ExistingReference), func(b *pactconsumer.V2RequestBuilder) {
			b.Header("Authorization", bearerToken)
		}).
		WillRespondWith(http.StatusOK, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", jsonContentType)
			b.JSONBody(matchers.Map{
				"status":  matchers.Like(true),
				"message": matchers.S("Verification successful"),
				"data": matchers.Map{
					"status":           matchers.Term("success", "success|failed|abandoned"),
					"reference":        matchers.Like(pacttest.ExistingReference),
					"amount":           matchers.Like(120000),
					"gateway_response": matchers.Like("Successful"),
					"paid_at":          matchers.Regex("2025-06-01T12:00:00Z", `\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}.*`),
				},
			})
		})

	pact.AddInteraction().
		Given(pacttest.StateTransactionMissing).
		UponReceiving("a request to verify an unknown transaction").
		WithRequest("GET", fmt.Sprintf("/transaction/verify/%s", pacttest.MissingReference), func(b *pactconsumer.V2RequestBuilder) {
			b.Header("Authorization", bearerToken)
		}).
		WillRespondWith(http.StatusNotFound, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", jsonContentType)
			b.JSONBody(matchers.Map{
				"status":  matchers.Like(false),
				"message": matchers.S("Transaction reference not found"),
			})
		})

	err = pact.ExecuteTest(t, func(config pactconsumer.MockServerConfig) error {
		host := config.Host
		if host == "" {
			host = "localhost"
		}
		baseURL := fmt.Sprintf("http://%s:%d", host, config.Port)
		transport := &http.Transport{TLSClientConfig: config.TLSConfig}
		httpClient := &http.Client{Transport: transport, Timeout: 10 * time.Second}

		client, err := paystack.NewClient("sk_test_secret",
			paystack.WithBaseURL(baseURL),
			paystack.WithHTTPClient(httpClient),
		)
		if err != nil {
			return fmt.Errorf("configure client: %w", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		initialized, err := client.Initialize(ctx, pacttest.ExampleEmail, 120000,
			pacttest.ExistingReference, nil, pacttest.ExampleCallbackURL)
		if err != nil {
			return fmt.Errorf("initialize transaction: %w", err)
		}
		if initialized.AuthorizationURL == "" {
			return fmt.Errorf("expected authorization URL to be set")
		}

		verified, err := client.Verify(ctx, pacttest.ExistingReference)
		if err != nil {
			return fmt.Errorf("verify transaction: %w", err)
		}
		if verified.Status != "success" {
			return fmt.Errorf("expected success status, got %q", verified.Status)
		}
		if verified.Amount != 120000 {
			return fmt.Errorf("expected amount 120000, got %d", verified.Amount)
		}

		_, err = client.Verify(ctx, pacttest.MissingReference)
		if err == nil {
			return fmt.Errorf("expected error for unknown reference")
		}
		var apiErr *paystack.APIError
		if !errors.As(err, &apiErr) {
			return fmt.Errorf("expected APIError, got %T", err)
		}
		if apiErr.StatusCode != http.StatusNotFound {
			return fmt.Errorf("expected 404, got %d", apiErr.StatusCode)
		}

		return nil
	})
	require.NoError(t, err)
}
