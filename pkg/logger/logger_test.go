package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	return out
}

func TestNewWithWriter_ServiceField(t *testing.T) {
	var buf bytes.Buffer
	NewWithWriter("checkout-core", "info", &buf).Info("started")

	out := decodeLine(t, &buf)
	assert.Equal(t, "checkout-core", out["service"])
	assert.Equal(t, "started", out["msg"])
}

func TestNewWithWriter_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter("test", "warn", &buf)
	l.Info("dropped")
	assert.Zero(t, buf.Len())

	l.Warn("kept")
	assert.NotZero(t, buf.Len())
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		" error ": slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestWithContext_ScopedIDs(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter("test", "info", &buf)

	ctx := WithCorrelationID(context.Background(), "req-123")
	ctx = WithCheckoutID(ctx, "chk-1")
	ctx = WithPaymentID(ctx, "pay-9")
	WithContext(ctx, l).Info("hello")

	out := decodeLine(t, &buf)
	assert.Equal(t, "req-123", out["correlation_id"])
	assert.Equal(t, "chk-1", out["checkout_id"])
	assert.Equal(t, "pay-9", out["payment_id"])
}

func TestWithContext_NoSpan(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter("test", "info", &buf)

	WithContext(context.Background(), l).Info("no span")

	out := decodeLine(t, &buf)
	assert.NotContains(t, out, "trace_id")
	assert.NotContains(t, out, "span_id")
	assert.NotContains(t, out, "payment_id")
}

func TestWithContext_WithValidSpan(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter("test", "info", &buf)

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	WithContext(ctx, l).Info("with span")

	out := decodeLine(t, &buf)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", out["trace_id"])
	assert.Equal(t, "00f067aa0ba902b7", out["span_id"])
}

func TestFromContext(t *testing.T) {
	assert.Equal(t, slog.Default(), FromContext(context.Background()))

	l := Discard()
	ctx := NewContext(context.Background(), l)
	assert.Same(t, l, FromContext(ctx))
}
