package gateway

import "context"

// Intent is a payment intent as reported by the gateway.
type Intent struct {
	ID            string
	Status        string
	Amount        int64
	Currency      string
	CaptureMethod string
	ClientSecret  string
	LastResponse  map[string]any
}

// Refund is a refund object as reported by the gateway.
type Refund struct {
	ID            string
	Status        string
	Amount        int64
	Currency      string
	PaymentIntent string
	LastResponse  map[string]any
}

// CreateIntentParams holds the parameters for creating a payment intent.
type CreateIntentParams struct {
	Amount         int64
	Currency       string
	CaptureMethod  string
	ReceiptEmail   string
	Metadata       map[string]string
	IdempotencyKey string
}

// CaptureIntentParams holds the parameters for capturing a payment intent.
type CaptureIntentParams struct {
	AmountToCapture int64
	IdempotencyKey  string
}

// CancelIntentParams holds the parameters for cancelling a payment intent.
type CancelIntentParams struct {
	IdempotencyKey string
}

// CreateRefundParams holds the parameters for refunding a payment intent.
type CreateRefundParams struct {
	PaymentIntent  string
	Amount         int64
	IdempotencyKey string
}

// Client is a payment gateway API. Every method fails with *Error when the
// gateway rejects the call or cannot be reached.
type Client interface {
	CreateIntent(ctx context.Context, apiKey string, params CreateIntentParams) (*Intent, error)
	RetrieveIntent(ctx context.Context, apiKey, intentID string) (*Intent, error)
	CaptureIntent(ctx context.Context, apiKey, intentID string, params CaptureIntentParams) (*Intent, error)
	CancelIntent(ctx context.Context, apiKey, intentID string, params CancelIntentParams) (*Intent, error)
	CreateRefund(ctx context.Context, apiKey string, params CreateRefundParams) (*Refund, error)
}
