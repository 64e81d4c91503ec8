package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/utafrali/checkout-core/pkg/logger"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func newTestProducer(w *fakeWriter) *Producer {
	return &Producer{writer: w, logger: logger.Discard()}
}

// ─── Event ───

func TestNewEvent_Fields(t *testing.T) {
	type recorded struct {
		TransactionID string `json:"transaction_id"`
		Kind          string `json:"kind"`
	}

	data := recorded{TransactionID: "txn-1", Kind: "auth"}
	event, err := NewEvent("payment.transaction_recorded", "pay-1", "payment", "checkout-core", data)
	require.NoError(t, err)

	assert.NotEmpty(t, event.EventID)
	assert.Equal(t, "payment.transaction_recorded", event.EventType)
	assert.Equal(t, "pay-1", event.AggregateID)
	assert.Equal(t, "payment", event.AggregateType)
	assert.Equal(t, 1, event.Version)
	assert.WithinDuration(t, time.Now().UTC(), event.Timestamp, 2*time.Second)

	var got recorded
	require.NoError(t, event.UnmarshalData(&got))
	assert.Equal(t, data, got)
}

func TestNewEvent_InvalidData(t *testing.T) {
	_, err := NewEvent("test.event", "agg-1", "test", "svc", make(chan int))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "test.event")
}

func TestEvent_Chaining(t *testing.T) {
	event, err := NewEvent("test.event", "agg-1", "test", "svc", nil)
	require.NoError(t, err)

	assert.Same(t, event, event.WithCorrelationID("corr-1").WithMetadata("kind", "auth"))
	assert.Equal(t, "corr-1", event.CorrelationID)
	assert.Equal(t, "auth", event.Metadata["kind"])
}

// ─── Publish ───

func TestPublish_WritesKeyedMessageWithHeaders(t *testing.T) {
	w := &fakeWriter{}
	p := newTestProducer(w)

	event, err := NewEvent("payment.transaction_recorded", "pay-1", "payment", "checkout-core", map[string]string{"kind": "capture"})
	require.NoError(t, err)
	event.WithCorrelationID("corr-9")

	require.NoError(t, p.Publish(context.Background(), "payment.transactions", event))
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "payment.transactions", msg.Topic)
	assert.Equal(t, []byte("pay-1"), msg.Key)

	carrier := NewHeaderCarrier(&msg)
	assert.Equal(t, "payment.transaction_recorded", carrier.Get("event_type"))
	assert.Equal(t, "checkout-core", carrier.Get("source"))
	assert.Equal(t, "corr-9", carrier.Get("correlation_id"))

	var decoded Event
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, event.EventID, decoded.EventID)
}

func TestPublish_InjectsTraceContext(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled,
	}))

	w := &fakeWriter{}
	event, _ := NewEvent("payment.transaction_recorded", "pay-1", "payment", "checkout-core", nil)
	require.NoError(t, newTestProducer(w).Publish(ctx, "payment.transactions", event))

	msg := w.msgs[0]
	assert.Contains(t, NewHeaderCarrier(&msg).Get("traceparent"), "4bf92f3577b34da6a3ce929d0e0e4736")
}

func TestPublish_WriterError(t *testing.T) {
	w := &fakeWriter{err: errors.New("leader not available")}
	event, _ := NewEvent("payment.transaction_recorded", "pay-1", "payment", "checkout-core", nil)

	err := newTestProducer(w).Publish(context.Background(), "payment.transactions", event)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish event to payment.transactions")
}

func TestProducer_PingWithoutBrokers(t *testing.T) {
	err := newTestProducer(&fakeWriter{}).Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no brokers")
}

func TestProducer_Close(t *testing.T) {
	w := &fakeWriter{}
	require.NoError(t, newTestProducer(w).Close())
	assert.True(t, w.closed)
}

// ─── HeaderCarrier ───

func TestHeaderCarrier_SetGetKeys(t *testing.T) {
	msg := kafka.Message{Headers: []kafka.Header{{Key: "existing", Value: []byte("v1")}}}
	c := NewHeaderCarrier(&msg)

	assert.Equal(t, "v1", c.Get("existing"))
	assert.Equal(t, "", c.Get("missing"))

	c.Set("existing", "v2")
	c.Set("new", "v3")
	assert.Equal(t, "v2", c.Get("existing"))
	assert.ElementsMatch(t, []string{"existing", "new"}, c.Keys())
	assert.Len(t, msg.Headers, 2)
}
