package httpclient

import (
	"fmt"
	"io"
	"net/http"
)

const maxErrorBody = 1 << 20

// StatusError is returned by CircuitBreakerClient for 5xx responses. The body
// has already been read and closed.
type StatusError struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server error %d: %s", e.StatusCode, string(e.Body))
}

// ReadBody reads up to 1 MB of resp.Body and closes it.
func ReadBody(resp *http.Response) ([]byte, error) {
	defer func() { _ = resp.Body.Close() }()
	return io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
}

// IsClientError returns true if the HTTP status code is a 4xx client error.
func IsClientError(status int) bool {
	return status >= 400 && status < 500
}
