package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/utafrali/checkout-core/internal/payment/domain"
	pkgkafka "github.com/utafrali/checkout-core/pkg/kafka"
	"github.com/utafrali/checkout-core/pkg/logger"
)

// Kafka topic constants for payment events.
const (
	TopicTransactionRecorded = "payment.transaction_recorded"
)

// Aggregate type constant.
const AggregateTypePayment = "payment"

// Source identifier for events originating from this service.
const SourceCheckoutCore = "checkout-core"

// TransactionRecordedData is the payload for a payment.transaction_recorded event.
type TransactionRecordedData struct {
	TransactionID  string `json:"transaction_id"`
	PaymentID      string `json:"payment_id"`
	Kind           string `json:"kind"`
	IsSuccess      bool   `json:"is_success"`
	ActionRequired bool   `json:"action_required"`
	Token          string `json:"token"`
	Amount         string `json:"amount"`
	Currency       string `json:"currency"`
	Error          string `json:"error,omitempty"`
}

// Publisher sends an event envelope to a topic. *pkgkafka.Producer satisfies it.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes payment events to Kafka.
type Producer struct {
	kafka  Publisher
	logger *slog.Logger
}

// NewProducer creates a new payment event producer.
func NewProducer(kafka Publisher, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishTransactionRecorded publishes a payment.transaction_recorded event.
func (p *Producer) PublishTransactionRecorded(ctx context.Context, txn *domain.Transaction) error {
	data := TransactionRecordedData{
		TransactionID:  txn.ID,
		PaymentID:      txn.PaymentID,
		Kind:           string(txn.Kind),
		IsSuccess:      txn.IsSuccess,
		ActionRequired: txn.ActionRequired,
		Token:          txn.Token,
		Amount:         txn.Amount.String(),
		Currency:       txn.Currency,
		Error:          txn.Error,
	}

	event, err := pkgkafka.NewEvent(TopicTransactionRecorded, txn.PaymentID, AggregateTypePayment, SourceCheckoutCore, data)
	if err != nil {
		return fmt.Errorf("create payment.transaction_recorded event: %w", err)
	}
	if cid := logger.CorrelationIDFromContext(ctx); cid != "" {
		event.WithCorrelationID(cid)
	}

	if err := p.kafka.Publish(ctx, TopicTransactionRecorded, event); err != nil {
		return fmt.Errorf("publish payment.transaction_recorded event: %w", err)
	}

	p.logger.DebugContext(ctx, "published payment.transaction_recorded event",
		slog.String("payment_id", txn.PaymentID),
		slog.String("transaction_id", txn.ID),
		slog.String("kind", string(txn.Kind)),
	)

	return nil
}
