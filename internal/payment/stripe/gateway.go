package stripe

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/utafrali/checkout-core/internal/payment/domain"
	"github.com/utafrali/checkout-core/internal/payment/gateway"
	"github.com/utafrali/checkout-core/internal/payment/repository"
	apperrors "github.com/utafrali/checkout-core/pkg/errors"
	"github.com/utafrali/checkout-core/pkg/logger"
	"github.com/utafrali/checkout-core/pkg/money"
	"github.com/utafrali/checkout-core/pkg/validator"
)

// Config holds the gateway credentials and behaviour.
type Config struct {
	PublicAPIKey string
	SecretAPIKey string `validate:"required"`
	AutoCapture  bool
}

// EventPublisher announces recorded transactions.
type EventPublisher interface {
	PublishTransactionRecorded(ctx context.Context, txn *domain.Transaction) error
}

// Gateway drives payments through Stripe payment intents. Every operation
// returns a GatewayResponse; gateway failures become failed responses and
// are never returned as errors. An error is returned only for invalid
// payment information or when the transaction cannot be stored.
//
// Callers must not run Process or Confirm concurrently for the same payment.
type Gateway struct {
	config       Config
	client       gateway.Client
	transactions repository.TransactionStore
	events       EventPublisher
	logger       *slog.Logger
}

// NewGateway creates a Stripe gateway. events may be nil.
func NewGateway(cfg Config, client gateway.Client, transactions repository.TransactionStore, events EventPublisher, logger *slog.Logger) (*Gateway, error) {
	if err := validator.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid stripe config: %w", err)
	}
	return &Gateway{
		config:       cfg,
		client:       client,
		transactions: transactions,
		events:       events,
		logger:       logger,
	}, nil
}

// MapIntentStatus maps a payment intent status to the transaction kind it
// confirms and whether customer action is still required. ok is false for
// statuses that confirm nothing.
func MapIntentStatus(status string) (kind domain.TransactionKind, actionRequired, ok bool) {
	switch {
	case status == AuthorizedStatus:
		return domain.KindAuth, false, true
	case status == SuccessStatus:
		return domain.KindCapture, false, true
	case status == ProcessingStatus:
		return domain.KindPending, false, true
	case slices.Contains(ActionRequiredStatuses, status):
		return domain.KindActionToConfirm, true, true
	default:
		return "", false, false
	}
}

func (g *Gateway) captureMethod() string {
	if g.config.AutoCapture {
		return AutomaticCaptureMethod
	}
	return ManualCaptureMethod
}

// Process creates a payment intent for the payment. The client secret needed
// to confirm it on the client side is returned as action required data.
func (g *Gateway) Process(ctx context.Context, info domain.PaymentInformation, meta domain.RequestMeta) (resp *domain.GatewayResponse, err error) {
	amount, err := g.validate(info)
	if err != nil {
		return nil, err
	}
	ctx = logger.WithPaymentID(ctx, info.PaymentID)
	ctx, end := instrument(ctx, "process", info.PaymentID)
	defer func() { end(resp, err) }()

	intent, gwErr := g.client.CreateIntent(ctx, g.config.SecretAPIKey, gateway.CreateIntentParams{
		Amount:         amount,
		Currency:       strings.ToLower(info.Currency),
		CaptureMethod:  g.captureMethod(),
		ReceiptEmail:   info.CustomerEmail,
		Metadata:       intentMetadata(info),
		IdempotencyKey: meta.IdempotencyKey,
	})

	resp = &domain.GatewayResponse{
		Kind:           domain.KindActionToConfirm,
		ActionRequired: true,
		Amount:         info.Amount,
		Currency:       info.Currency,
	}
	if gwErr != nil {
		g.logGatewayError(ctx, "process", gwErr)
		resp.Error = gateway.AsError(gwErr).Message
		resp.ActionRequiredData = map[string]any{"client_secret": nil}
	} else {
		resp.IsSuccess = true
		resp.TransactionID = intent.ID
		resp.RawResponse = intent.LastResponse
		resp.ActionRequiredData = map[string]any{"client_secret": intent.ClientSecret}
	}

	if err := g.record(ctx, info, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Confirm reports the outcome of a processed payment. When the payment
// already has a successful authorization or capture, that transaction is
// returned without calling the gateway or recording anything.
func (g *Gateway) Confirm(ctx context.Context, info domain.PaymentInformation, _ domain.RequestMeta) (resp *domain.GatewayResponse, err error) {
	if _, err := g.validate(info); err != nil {
		return nil, err
	}
	ctx = logger.WithPaymentID(ctx, info.PaymentID)
	ctx, end := instrument(ctx, "confirm", info.PaymentID)
	defer func() { end(resp, err) }()

	prior, err := g.transactions.LatestSuccessful(ctx, info.PaymentID, domain.KindAuth, domain.KindCapture)
	if err != nil {
		g.log(ctx).ErrorContext(ctx, "failed to load payment transactions",
			slog.String("payment_id", info.PaymentID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("load processed transaction: %w", err)
	}
	if prior != nil {
		g.log(ctx).InfoContext(ctx, "payment already processed",
			slog.String("payment_id", info.PaymentID),
			slog.String("kind", string(prior.Kind)),
		)
		return &domain.GatewayResponse{
			Kind:                        prior.Kind,
			IsSuccess:                   true,
			TransactionID:               prior.Token,
			Amount:                      info.Amount,
			Currency:                    info.Currency,
			RawResponse:                 prior.GatewayResponse,
			TransactionAlreadyProcessed: true,
		}, nil
	}

	resp = g.confirmFromIntent(ctx, info)
	if err := g.record(ctx, info, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (g *Gateway) confirmFromIntent(ctx context.Context, info domain.PaymentInformation) *domain.GatewayResponse {
	failed := &domain.GatewayResponse{
		Kind:     domain.KindAuth,
		Amount:   info.Amount,
		Currency: info.Currency,
	}
	if info.Token == "" {
		failed.Error = "payment has no payment intent to confirm"
		return failed
	}

	intent, err := g.client.RetrieveIntent(ctx, g.config.SecretAPIKey, info.Token)
	if err != nil {
		g.logGatewayError(ctx, "confirm", err)
		failed.Error = gateway.AsError(err).Message
		return failed
	}

	kind, actionRequired, ok := MapIntentStatus(intent.Status)
	if !ok {
		g.log(ctx).WarnContext(ctx, "unexpected payment intent status",
			slog.String("payment_id", info.PaymentID),
			slog.String("status", intent.Status),
		)
		failed.TransactionID = intent.ID
		failed.RawResponse = intent.LastResponse
		failed.Error = fmt.Sprintf("payment intent %s has unexpected status %q", intent.ID, intent.Status)
		return failed
	}

	currency := strings.ToUpper(intent.Currency)
	resp := &domain.GatewayResponse{
		Kind:           kind,
		IsSuccess:      true,
		ActionRequired: actionRequired,
		TransactionID:  intent.ID,
		Amount:         money.FromMinorUnit(intent.Amount, currency),
		Currency:       currency,
		RawResponse:    intent.LastResponse,
	}
	if kind == domain.KindActionToConfirm {
		resp.ActionRequiredData = map[string]any{"client_secret": intent.ClientSecret}
	}
	return resp
}

// Capture captures the payment's authorized intent.
func (g *Gateway) Capture(ctx context.Context, info domain.PaymentInformation, meta domain.RequestMeta) (resp *domain.GatewayResponse, err error) {
	return g.settle(ctx, "capture", domain.KindCapture, info, func(ctx context.Context, amount int64) (string, map[string]any, error) {
		intent, err := g.client.CaptureIntent(ctx, g.config.SecretAPIKey, info.Token, gateway.CaptureIntentParams{
			AmountToCapture: amount,
			IdempotencyKey:  meta.IdempotencyKey,
		})
		if err != nil {
			return "", nil, err
		}
		return intent.ID, intent.LastResponse, nil
	})
}

// Refund refunds the payment's captured intent.
func (g *Gateway) Refund(ctx context.Context, info domain.PaymentInformation, meta domain.RequestMeta) (resp *domain.GatewayResponse, err error) {
	return g.settle(ctx, "refund", domain.KindRefund, info, func(ctx context.Context, amount int64) (string, map[string]any, error) {
		refund, err := g.client.CreateRefund(ctx, g.config.SecretAPIKey, gateway.CreateRefundParams{
			PaymentIntent:  info.Token,
			Amount:         amount,
			IdempotencyKey: meta.IdempotencyKey,
		})
		if err != nil {
			return "", nil, err
		}
		return refund.ID, refund.LastResponse, nil
	})
}

// Void cancels the payment's authorized intent.
func (g *Gateway) Void(ctx context.Context, info domain.PaymentInformation, meta domain.RequestMeta) (resp *domain.GatewayResponse, err error) {
	return g.settle(ctx, "void", domain.KindVoid, info, func(ctx context.Context, _ int64) (string, map[string]any, error) {
		intent, err := g.client.CancelIntent(ctx, g.config.SecretAPIKey, info.Token, gateway.CancelIntentParams{
			IdempotencyKey: meta.IdempotencyKey,
		})
		if err != nil {
			return "", nil, err
		}
		return intent.ID, intent.LastResponse, nil
	})
}

// settle runs a capture, refund or void call. The response always carries
// the payment's own amount and currency.
func (g *Gateway) settle(
	ctx context.Context,
	operation string,
	kind domain.TransactionKind,
	info domain.PaymentInformation,
	call func(ctx context.Context, amount int64) (string, map[string]any, error),
) (resp *domain.GatewayResponse, err error) {
	amount, err := g.validate(info)
	if err != nil {
		return nil, err
	}
	ctx = logger.WithPaymentID(ctx, info.PaymentID)
	ctx, end := instrument(ctx, operation, info.PaymentID)
	defer func() { end(resp, err) }()

	resp = &domain.GatewayResponse{
		Kind:     kind,
		Amount:   info.Amount,
		Currency: info.Currency,
	}

	id, raw, gwErr := call(ctx, amount)
	if gwErr != nil {
		g.logGatewayError(ctx, operation, gwErr)
		resp.TransactionID = info.Token
		resp.Error = gateway.AsError(gwErr).Message
	} else {
		resp.IsSuccess = true
		resp.TransactionID = id
		resp.RawResponse = raw
	}

	if err := g.record(ctx, info, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// validate checks info and returns its amount in minor units.
func (g *Gateway) validate(info domain.PaymentInformation) (int64, error) {
	if err := info.Validate(); err != nil {
		return 0, apperrors.Wrap(apperrors.InvalidInput(err.Error()), "invalid payment information")
	}
	return info.MinorUnitAmount()
}

// record appends the transaction for resp and then announces it. A failed
// announcement is logged and otherwise ignored.
func (g *Gateway) record(ctx context.Context, info domain.PaymentInformation, resp *domain.GatewayResponse) error {
	txn := domain.NewTransaction(info.PaymentID, resp)
	if err := g.transactions.Append(ctx, txn); err != nil {
		g.log(ctx).ErrorContext(ctx, "failed to record payment transaction",
			slog.String("payment_id", info.PaymentID),
			slog.String("kind", string(resp.Kind)),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("record %s transaction: %w", resp.Kind, err)
	}

	g.log(ctx).InfoContext(ctx, "payment transaction recorded",
		slog.String("payment_id", info.PaymentID),
		slog.String("transaction_id", txn.ID),
		slog.String("kind", string(txn.Kind)),
		slog.Bool("is_success", txn.IsSuccess),
	)

	if g.events != nil {
		if err := g.events.PublishTransactionRecorded(ctx, txn); err != nil {
			g.log(ctx).ErrorContext(ctx, "failed to publish transaction recorded event",
				slog.String("payment_id", info.PaymentID),
				slog.String("transaction_id", txn.ID),
				slog.String("error", err.Error()),
			)
		}
	}
	return nil
}

func (g *Gateway) logGatewayError(ctx context.Context, operation string, err error) {
	gwErr := gateway.AsError(err)
	g.log(ctx).WarnContext(ctx, "payment gateway call failed",
		slog.String("operation", operation),
		slog.String("error_type", gwErr.Type),
		slog.String("error_code", gwErr.Code),
		slog.Int("http_status", gwErr.HTTPStatus),
		slog.String("error", gwErr.Message),
	)
}

func (g *Gateway) log(ctx context.Context) *slog.Logger {
	return logger.WithContext(ctx, g.logger)
}

func intentMetadata(info domain.PaymentInformation) map[string]string {
	md := map[string]string{"payment_id": info.PaymentID}
	if info.CheckoutID != "" {
		md["checkout_id"] = info.CheckoutID
	}
	if info.OrderID != "" {
		md["order_id"] = info.OrderID
	}
	return md
}
