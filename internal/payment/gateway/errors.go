package gateway

import (
	"errors"
	"fmt"
	"net/url"

	stripe "github.com/stripe/stripe-go/v76"

	"github.com/utafrali/checkout-core/pkg/httpclient"
)

// Error types reported by the gateway.
const (
	ErrTypeAPIConnection  = "api_connection_error"
	ErrTypeAPI            = "api_error"
	ErrTypeAuthentication = "authentication_error"
	ErrTypeCard           = "card_error"
	ErrTypeIdempotency    = "idempotency_error"
	ErrTypeInvalidRequest = "invalid_request_error"
	ErrTypeRateLimit      = "rate_limit_error"
)

// Error is a failure reported by, or while reaching, the gateway.
type Error struct {
	Message    string
	Type       string
	Code       string
	HTTPStatus int
}

func (e *Error) Error() string {
	return e.Message
}

// AsError returns err as *Error, wrapping foreign errors as connection errors.
func AsError(err error) *Error {
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr
	}
	return &Error{Message: err.Error(), Type: ErrTypeAPIConnection}
}

// fromStripe converts an error returned by stripe-go into an *Error.
func fromStripe(err error) *Error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		gwErr := &Error{
			Message:    stripeErr.Msg,
			Type:       string(stripeErr.Type),
			Code:       string(stripeErr.Code),
			HTTPStatus: stripeErr.HTTPStatusCode,
		}
		if gwErr.Type == "" {
			gwErr.Type = ErrTypeAPI
		}
		if gwErr.Message == "" {
			gwErr.Message = fmt.Sprintf("unexpected gateway response status %d", stripeErr.HTTPStatusCode)
		}
		return gwErr
	}

	if errors.Is(err, httpclient.ErrCircuitOpen) {
		return &Error{Message: "payment gateway unavailable: circuit open", Type: ErrTypeAPIConnection}
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return &Error{Message: fmt.Sprintf("payment gateway unreachable: %v", urlErr.Err), Type: ErrTypeAPIConnection}
	}
	return &Error{Message: err.Error(), Type: ErrTypeAPI}
}
