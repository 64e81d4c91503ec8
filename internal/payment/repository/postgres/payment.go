package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/checkout-core/internal/payment/domain"
	"github.com/utafrali/checkout-core/pkg/database"
	apperrors "github.com/utafrali/checkout-core/pkg/errors"
)

const selectPaymentSQL = `
	SELECT id, gateway, checkout_id, order_id, total, captured_amount, currency,
		token, charge_status, customer_email, is_active, created_at, updated_at
	FROM payments
	WHERE id = $1`

// PaymentRepository implements repository.PaymentRepository using PostgreSQL.
type PaymentRepository struct {
	pool database.DBTX
}

// NewPaymentRepository creates a new PostgreSQL-backed payment repository.
func NewPaymentRepository(pool database.DBTX) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

// GetByID retrieves a payment by its ID.
func (r *PaymentRepository) GetByID(ctx context.Context, id string) (_ *domain.Payment, err error) {
	ctx, end := database.TraceQuery(ctx, "GetPayment", selectPaymentSQL)
	defer func() { end(err) }()

	var (
		p                          domain.Payment
		checkoutID, orderID, email *string
	)
	err = r.pool.QueryRow(ctx, selectPaymentSQL, id).Scan(
		&p.ID,
		&p.Gateway,
		&checkoutID,
		&orderID,
		&p.Total,
		&p.CapturedAmount,
		&p.Currency,
		&p.Token,
		&p.ChargeStatus,
		&email,
		&p.IsActive,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("payment", id)
		}
		return nil, fmt.Errorf("get payment by id: %w", err)
	}

	if checkoutID != nil {
		p.CheckoutID = *checkoutID
	}
	if orderID != nil {
		p.OrderID = *orderID
	}
	if email != nil {
		p.CustomerEmail = *email
	}
	return &p, nil
}
