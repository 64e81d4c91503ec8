package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/utafrali/checkout-core/pkg/money"
	"github.com/utafrali/checkout-core/pkg/validator"
)

// TransactionKind identifies the gateway operation a transaction records.
type TransactionKind string

// Transaction kinds.
const (
	KindActionToConfirm TransactionKind = "action_to_confirm"
	KindAuth            TransactionKind = "auth"
	KindCapture         TransactionKind = "capture"
	KindPending         TransactionKind = "pending"
	KindRefund          TransactionKind = "refund"
	KindVoid            TransactionKind = "void"
)

// Payment charge status constants.
const (
	ChargeStatusNotCharged        = "not-charged"
	ChargeStatusPending           = "pending"
	ChargeStatusPartiallyCharged  = "partially-charged"
	ChargeStatusFullyCharged      = "fully-charged"
	ChargeStatusPartiallyRefunded = "partially-refunded"
	ChargeStatusFullyRefunded     = "fully-refunded"
	ChargeStatusRefused           = "refused"
	ChargeStatusCancelled         = "cancelled"
)

// Payment is a payment of a checkout or an order through a gateway.
type Payment struct {
	ID             string          `json:"id"`
	Gateway        string          `json:"gateway"`
	CheckoutID     string          `json:"checkout_id,omitempty"`
	OrderID        string          `json:"order_id,omitempty"`
	Total          decimal.Decimal `json:"total"`
	CapturedAmount decimal.Decimal `json:"captured_amount"`
	Currency       string          `json:"currency"`
	Token          string          `json:"token"`
	ChargeStatus   string          `json:"charge_status"`
	CustomerEmail  string          `json:"customer_email,omitempty"`
	IsActive       bool            `json:"is_active"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// ErrNegativeAmount is returned when a payment amount is below zero.
var ErrNegativeAmount = errors.New("amount must not be negative")

// PaymentInformation is what the gateway needs to know about a payment to
// run one operation.
type PaymentInformation struct {
	PaymentID     string          `json:"payment_id" validate:"required"`
	OrderID       string          `json:"order_id,omitempty"`
	CheckoutID    string          `json:"checkout_id,omitempty"`
	Token         string          `json:"token"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency" validate:"required,iso4217"`
	CustomerEmail string          `json:"customer_email,omitempty" validate:"omitempty,email"`
	Gateway       string          `json:"gateway"`
}

// NewPaymentInformation builds the payment information for payment. An empty
// token falls back to the payment's stored token. The currency code is
// upper-cased.
func NewPaymentInformation(payment *Payment, token string) PaymentInformation {
	if token == "" {
		token = payment.Token
	}
	return PaymentInformation{
		PaymentID:     payment.ID,
		OrderID:       payment.OrderID,
		CheckoutID:    payment.CheckoutID,
		Token:         token,
		Amount:        payment.Total,
		Currency:      strings.ToUpper(payment.Currency),
		CustomerEmail: payment.CustomerEmail,
		Gateway:       payment.Gateway,
	}
}

// Validate checks the struct tags, that the amount is not negative and that
// it can be expressed in minor units.
func (p PaymentInformation) Validate() error {
	if err := validator.Validate(p); err != nil {
		return err
	}
	if p.Amount.IsNegative() {
		return fmt.Errorf("payment %s: %w", p.PaymentID, ErrNegativeAmount)
	}
	if _, err := p.MinorUnitAmount(); err != nil {
		return fmt.Errorf("payment %s: %w", p.PaymentID, err)
	}
	return nil
}

// MinorUnitAmount returns the amount in the currency's minor units.
func (p PaymentInformation) MinorUnitAmount() (int64, error) {
	return money.ToMinorUnit(p.Amount, p.Currency)
}

// RequestMeta carries per-request data passed through to the gateway.
type RequestMeta struct {
	IdempotencyKey string
	CorrelationID  string
}

// GatewayResponse is the normalized result of a gateway operation.
type GatewayResponse struct {
	Kind                        TransactionKind `json:"kind"`
	IsSuccess                   bool            `json:"is_success"`
	ActionRequired              bool            `json:"action_required"`
	ActionRequiredData          map[string]any  `json:"action_required_data,omitempty"`
	TransactionID               string          `json:"transaction_id"`
	Amount                      decimal.Decimal `json:"amount"`
	Currency                    string          `json:"currency"`
	Error                       string          `json:"error,omitempty"`
	RawResponse                 map[string]any  `json:"raw_response,omitempty"`
	TransactionAlreadyProcessed bool            `json:"transaction_already_processed"`
}

// Transaction is an append-only record of one gateway interaction.
type Transaction struct {
	ID              string          `json:"id"`
	PaymentID       string          `json:"payment_id"`
	Kind            TransactionKind `json:"kind"`
	IsSuccess       bool            `json:"is_success"`
	ActionRequired  bool            `json:"action_required"`
	Token           string          `json:"token"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	Error           string          `json:"error,omitempty"`
	GatewayResponse map[string]any  `json:"gateway_response"`
	CreatedAt       time.Time       `json:"created_at"`
}

// NewTransaction records resp as a transaction of payment paymentID.
func NewTransaction(paymentID string, resp *GatewayResponse) *Transaction {
	return &Transaction{
		ID:              uuid.New().String(),
		PaymentID:       paymentID,
		Kind:            resp.Kind,
		IsSuccess:       resp.IsSuccess,
		ActionRequired:  resp.ActionRequired,
		Token:           resp.TransactionID,
		Amount:          resp.Amount,
		Currency:        resp.Currency,
		Error:           resp.Error,
		GatewayResponse: resp.RawResponse,
		CreatedAt:       time.Now().UTC(),
	}
}
