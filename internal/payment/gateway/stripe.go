package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	stripe "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
	"github.com/stripe/stripe-go/v76/refund"

	"github.com/utafrali/checkout-core/pkg/httpclient"
	"github.com/utafrali/checkout-core/pkg/logger"
)

// DefaultBaseURL is the public Stripe API endpoint.
const DefaultBaseURL = stripe.APIURL

// StripeClient talks to the Stripe API through stripe-go. Requests go through
// doer, usually an httpclient.CircuitBreakerClient, so the SDK's own network
// retries are disabled.
type StripeClient struct {
	backend stripe.Backend
}

// NewStripeClient creates a client for the API at baseURL.
func NewStripeClient(baseURL string, doer httpclient.Doer, log *slog.Logger) *StripeClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if log == nil {
		log = logger.Discard()
	}
	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		HTTPClient:        httpclient.NewStdClient(doer),
		URL:               stripe.String(baseURL),
		MaxNetworkRetries: stripe.Int64(0),
		EnableTelemetry:   stripe.Bool(false),
		LeveledLogger:     &leveledLogger{logger: log.With(slog.String("component", "stripe"))},
	})
	return &StripeClient{backend: backend}
}

// CreateIntent creates a payment intent.
func (c *StripeClient) CreateIntent(ctx context.Context, apiKey string, params CreateIntentParams) (*Intent, error) {
	p := &stripe.PaymentIntentParams{
		Params:   requestParams(ctx, params.IdempotencyKey),
		Amount:   stripe.Int64(params.Amount),
		Currency: stripe.String(params.Currency),
		Metadata: params.Metadata,
	}
	if params.CaptureMethod != "" {
		p.CaptureMethod = stripe.String(params.CaptureMethod)
	}
	if params.ReceiptEmail != "" {
		p.ReceiptEmail = stripe.String(params.ReceiptEmail)
	}

	pi, err := c.intents(apiKey).New(p)
	if err != nil {
		return nil, fromStripe(err)
	}
	return intentFrom(pi), nil
}

// RetrieveIntent fetches the current state of a payment intent.
func (c *StripeClient) RetrieveIntent(ctx context.Context, apiKey, intentID string) (*Intent, error) {
	pi, err := c.intents(apiKey).Get(intentID, &stripe.PaymentIntentParams{Params: requestParams(ctx, "")})
	if err != nil {
		return nil, fromStripe(err)
	}
	return intentFrom(pi), nil
}

// CaptureIntent captures an authorized payment intent.
func (c *StripeClient) CaptureIntent(ctx context.Context, apiKey, intentID string, params CaptureIntentParams) (*Intent, error) {
	p := &stripe.PaymentIntentCaptureParams{Params: requestParams(ctx, params.IdempotencyKey)}
	if params.AmountToCapture > 0 {
		p.AmountToCapture = stripe.Int64(params.AmountToCapture)
	}

	pi, err := c.intents(apiKey).Capture(intentID, p)
	if err != nil {
		return nil, fromStripe(err)
	}
	return intentFrom(pi), nil
}

// CancelIntent cancels a payment intent.
func (c *StripeClient) CancelIntent(ctx context.Context, apiKey, intentID string, params CancelIntentParams) (*Intent, error) {
	pi, err := c.intents(apiKey).Cancel(intentID, &stripe.PaymentIntentCancelParams{
		Params: requestParams(ctx, params.IdempotencyKey),
	})
	if err != nil {
		return nil, fromStripe(err)
	}
	return intentFrom(pi), nil
}

// CreateRefund refunds a payment intent.
func (c *StripeClient) CreateRefund(ctx context.Context, apiKey string, params CreateRefundParams) (*Refund, error) {
	p := &stripe.RefundParams{
		Params:        requestParams(ctx, params.IdempotencyKey),
		PaymentIntent: stripe.String(params.PaymentIntent),
	}
	if params.Amount > 0 {
		p.Amount = stripe.Int64(params.Amount)
	}

	r, err := refund.Client{B: c.backend, Key: apiKey}.New(p)
	if err != nil {
		return nil, fromStripe(err)
	}
	out := &Refund{
		ID:           r.ID,
		Status:       string(r.Status),
		Amount:       r.Amount,
		Currency:     string(r.Currency),
		LastResponse: rawResponse(r.LastResponse),
	}
	if r.PaymentIntent != nil {
		out.PaymentIntent = r.PaymentIntent.ID
	}
	return out, nil
}

func (c *StripeClient) intents(apiKey string) paymentintent.Client {
	return paymentintent.Client{B: c.backend, Key: apiKey}
}

// requestParams carries the context, the idempotency key and the correlation
// ID onto a Stripe request.
func requestParams(ctx context.Context, idempotencyKey string) stripe.Params {
	p := stripe.Params{Context: ctx}
	if idempotencyKey != "" {
		p.IdempotencyKey = stripe.String(idempotencyKey)
	}
	if cid := logger.CorrelationIDFromContext(ctx); cid != "" {
		p.Headers = http.Header{}
		p.Headers.Set("X-Correlation-ID", cid)
	}
	return p
}

func intentFrom(pi *stripe.PaymentIntent) *Intent {
	return &Intent{
		ID:            pi.ID,
		Status:        string(pi.Status),
		Amount:        pi.Amount,
		Currency:      string(pi.Currency),
		CaptureMethod: string(pi.CaptureMethod),
		ClientSecret:  pi.ClientSecret,
		LastResponse:  rawResponse(pi.LastResponse),
	}
}

// rawResponse decodes the JSON body of the last API response.
func rawResponse(resp *stripe.APIResponse) map[string]any {
	if resp == nil || len(resp.RawJSON) == 0 {
		return nil
	}
	var raw map[string]any
	if err := json.Unmarshal(resp.RawJSON, &raw); err != nil {
		return nil
	}
	return raw
}

// leveledLogger routes stripe-go's logging into slog. Per-request chatter is
// logged at debug.
type leveledLogger struct {
	logger *slog.Logger
}

func (l *leveledLogger) Debugf(format string, v ...any) { l.logger.Debug(fmt.Sprintf(format, v...)) }
func (l *leveledLogger) Infof(format string, v ...any)  { l.logger.Debug(fmt.Sprintf(format, v...)) }
func (l *leveledLogger) Warnf(format string, v ...any)  { l.logger.Warn(fmt.Sprintf(format, v...)) }
func (l *leveledLogger) Errorf(format string, v ...any) { l.logger.Error(fmt.Sprintf(format, v...)) }
