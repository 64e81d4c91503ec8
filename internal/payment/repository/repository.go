package repository

import (
	"context"

	"github.com/utafrali/checkout-core/internal/payment/domain"
)

// PaymentRepository loads payments.
type PaymentRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Payment, error)
}

// TransactionStore is the append-only history of a payment's gateway
// transactions. It is the only source of truth for idempotency checks.
type TransactionStore interface {
	// Append records a new transaction.
	Append(ctx context.Context, txn *domain.Transaction) error

	// ListByPayment returns the payment's transactions, oldest first.
	ListByPayment(ctx context.Context, paymentID string) ([]domain.Transaction, error)

	// LatestSuccessful returns the most recent successful transaction of the
	// payment with one of kinds that does not require action, or nil.
	LatestSuccessful(ctx context.Context, paymentID string, kinds ...domain.TransactionKind) (*domain.Transaction, error)
}
