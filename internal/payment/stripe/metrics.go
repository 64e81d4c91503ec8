package stripe

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/utafrali/checkout-core/internal/payment/domain"
	"github.com/utafrali/checkout-core/pkg/tracing"
)

const tracerName = "github.com/utafrali/checkout-core/internal/payment/stripe"

// Operation outcomes.
const (
	outcomeSuccess          = "success"
	outcomeFailure          = "failure"
	outcomeAlreadyProcessed = "already_processed"
	outcomeError            = "error"
)

var (
	gatewayOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_gateway_operations_total",
			Help: "Total number of payment gateway operations by outcome",
		},
		[]string{"gateway", "operation", "outcome"},
	)

	gatewayOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "payment_gateway_operation_duration_seconds",
			Help:    "Duration of payment gateway operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"gateway", "operation"},
	)
)

func outcomeOf(resp *domain.GatewayResponse, err error) string {
	switch {
	case err != nil || resp == nil:
		return outcomeError
	case resp.TransactionAlreadyProcessed:
		return outcomeAlreadyProcessed
	case resp.IsSuccess:
		return outcomeSuccess
	default:
		return outcomeFailure
	}
}

// instrument starts a span for operation and returns the function that ends
// it and records the operation metrics.
func instrument(ctx context.Context, operation, paymentID string) (context.Context, func(*domain.GatewayResponse, error)) {
	start := time.Now()
	ctx, span := tracing.Tracer(tracerName).Start(ctx, "stripe."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("payment.gateway", GatewayName),
			attribute.String("payment.id", paymentID),
		),
	)

	return ctx, func(resp *domain.GatewayResponse, err error) {
		outcome := outcomeOf(resp, err)
		gatewayOperations.WithLabelValues(GatewayName, operation, outcome).Inc()
		gatewayOperationDuration.WithLabelValues(GatewayName, operation).Observe(time.Since(start).Seconds())

		span.SetAttributes(attribute.String("payment.outcome", outcome))
		switch {
		case err != nil:
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		case resp != nil:
			span.SetAttributes(
				attribute.String("payment.kind", string(resp.Kind)),
				attribute.String("payment.transaction_id", resp.TransactionID),
			)
			if !resp.IsSuccess {
				span.SetStatus(codes.Error, resp.Error)
			}
		}
		span.End()
	}
}
