package gateway

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/checkout-core/pkg/httpclient"
	"github.com/utafrali/checkout-core/pkg/logger"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *StripeClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewStripeClient(srv.URL, httpclient.New(httpclient.Config{Timeout: 5 * time.Second}), logger.Discard())
}

func readForm(t *testing.T, r *http.Request) url.Values {
	t.Helper()
	body, err := io.ReadAll(r.Body)
	require.NoError(t, err)
	form, err := url.ParseQuery(string(body))
	require.NoError(t, err)
	return form
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func TestCreateIntent(t *testing.T) {
	var form url.Values
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/payment_intents", r.URL.Path)
		assert.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))
		assert.Equal(t, "idem-1", r.Header.Get("Idempotency-Key"))
		assert.Equal(t, "corr-1", r.Header.Get("X-Correlation-ID"))
		form = readForm(t, r)

		writeJSON(w, http.StatusOK, `{"id":"pi_1","object":"payment_intent","status":"requires_payment_method","amount":4210,"currency":"usd","capture_method":"manual","client_secret":"pi_1_secret"}`)
	})

	ctx := logger.WithCorrelationID(context.Background(), "corr-1")
	intent, err := client.CreateIntent(ctx, "sk_test", CreateIntentParams{
		Amount:         4210,
		Currency:       "usd",
		CaptureMethod:  "manual",
		ReceiptEmail:   "buyer@example.com",
		Metadata:       map[string]string{"payment_id": "pay-1"},
		IdempotencyKey: "idem-1",
	})
	require.NoError(t, err)

	assert.Equal(t, "4210", form.Get("amount"))
	assert.Equal(t, "usd", form.Get("currency"))
	assert.Equal(t, "manual", form.Get("capture_method"))
	assert.Equal(t, "buyer@example.com", form.Get("receipt_email"))
	assert.Equal(t, "pay-1", form.Get("metadata[payment_id]"))

	assert.Equal(t, "pi_1", intent.ID)
	assert.Equal(t, "requires_payment_method", intent.Status)
	assert.Equal(t, int64(4210), intent.Amount)
	assert.Equal(t, "usd", intent.Currency)
	assert.Equal(t, "manual", intent.CaptureMethod)
	assert.Equal(t, "pi_1_secret", intent.ClientSecret)
	assert.Equal(t, "pi_1", intent.LastResponse["id"])
	assert.Equal(t, "payment_intent", intent.LastResponse["object"])
}

func TestRetrieveIntent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/payment_intents/pi_1", r.URL.Path)
		assert.Empty(t, r.Header.Get("Idempotency-Key"))
		writeJSON(w, http.StatusOK, `{"id":"pi_1","status":"requires_capture","amount":100,"currency":"eur"}`)
	})

	intent, err := client.RetrieveIntent(context.Background(), "sk_test", "pi_1")
	require.NoError(t, err)
	assert.Equal(t, "requires_capture", intent.Status)
	assert.Equal(t, "eur", intent.Currency)
	assert.Equal(t, int64(100), intent.Amount)
}

func TestCaptureIntent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/payment_intents/pi_1/capture", r.URL.Path)
		assert.Equal(t, "idem-2", r.Header.Get("Idempotency-Key"))
		assert.Equal(t, "100", readForm(t, r).Get("amount_to_capture"))
		writeJSON(w, http.StatusOK, `{"id":"pi_1","status":"succeeded","amount":100,"currency":"eur"}`)
	})

	intent, err := client.CaptureIntent(context.Background(), "sk_test", "pi_1", CaptureIntentParams{AmountToCapture: 100, IdempotencyKey: "idem-2"})
	require.NoError(t, err)
	assert.Equal(t, "succeeded", intent.Status)
}

func TestCancelIntent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/payment_intents/pi_1/cancel", r.URL.Path)
		writeJSON(w, http.StatusOK, `{"id":"pi_1","status":"canceled"}`)
	})

	intent, err := client.CancelIntent(context.Background(), "sk_test", "pi_1", CancelIntentParams{})
	require.NoError(t, err)
	assert.Equal(t, "canceled", intent.Status)
}

func TestCreateRefund(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/refunds", r.URL.Path)
		form := readForm(t, r)
		assert.Equal(t, "pi_1", form.Get("payment_intent"))
		assert.Equal(t, "100", form.Get("amount"))
		writeJSON(w, http.StatusOK, `{"id":"re_1","object":"refund","status":"succeeded","amount":100,"currency":"eur","payment_intent":"pi_1"}`)
	})

	refund, err := client.CreateRefund(context.Background(), "sk_test", CreateRefundParams{PaymentIntent: "pi_1", Amount: 100})
	require.NoError(t, err)
	assert.Equal(t, "re_1", refund.ID)
	assert.Equal(t, "succeeded", refund.Status)
	assert.Equal(t, "pi_1", refund.PaymentIntent)
	assert.Equal(t, "re_1", refund.LastResponse["id"])
}

func TestStripeClient_CardError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusPaymentRequired, `{"error":{"message":"Your card was declined.","type":"card_error","code":"card_declined"}}`)
	})

	_, err := client.CreateIntent(context.Background(), "sk_test", CreateIntentParams{Amount: 1, Currency: "usd"})

	var gwErr *Error
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, "Your card was declined.", gwErr.Error())
	assert.Equal(t, ErrTypeCard, gwErr.Type)
	assert.Equal(t, "card_declined", gwErr.Code)
	assert.Equal(t, http.StatusPaymentRequired, gwErr.HTTPStatus)
}

func TestStripeClient_UnparseableErrorBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, "not found")
	})

	_, err := client.RetrieveIntent(context.Background(), "sk_test", "pi_missing")

	var gwErr *Error
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, ErrTypeAPI, gwErr.Type)
	assert.Contains(t, gwErr.Message, "404")
}

func TestStripeClient_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	client := NewStripeClient(srv.URL, httpclient.New(httpclient.Config{Timeout: time.Second}), logger.Discard())

	_, err := client.RetrieveIntent(context.Background(), "sk_test", "pi_1")

	var gwErr *Error
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, ErrTypeAPIConnection, gwErr.Type)
	assert.Contains(t, gwErr.Message, "payment gateway unreachable")
}

func TestStripeClient_ServerErrorThenCircuitOpen(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusInternalServerError, `{"error":{"message":"internal","type":"api_error"}}`)
	}))
	t.Cleanup(srv.Close)

	cbCfg := httpclient.DefaultCircuitBreakerConfig("gateway-test")
	cbCfg.MinRequests = 1
	cbCfg.FailureRatio = 0.5
	cbCfg.Timeout = time.Minute
	doer := httpclient.NewCircuitBreakerClient(httpclient.New(httpclient.Config{Timeout: time.Second}), cbCfg, logger.Discard())
	client := NewStripeClient(srv.URL, doer, logger.Discard())

	_, err := client.RetrieveIntent(context.Background(), "sk_test", "pi_1")
	var gwErr *Error
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, "internal", gwErr.Message)
	assert.Equal(t, ErrTypeAPI, gwErr.Type)
	assert.Equal(t, http.StatusInternalServerError, gwErr.HTTPStatus)

	_, err = client.RetrieveIntent(context.Background(), "sk_test", "pi_1")
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, ErrTypeAPIConnection, gwErr.Type)
	assert.Contains(t, gwErr.Message, "circuit open")
}

func TestAsError(t *testing.T) {
	gwErr := &Error{Message: "declined", Type: ErrTypeCard}
	assert.Same(t, gwErr, AsError(gwErr))

	wrapped := AsError(io.ErrUnexpectedEOF)
	assert.Equal(t, ErrTypeAPIConnection, wrapped.Type)
	assert.Equal(t, io.ErrUnexpectedEOF.Error(), wrapped.Message)
}
