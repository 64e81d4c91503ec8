package httpclient

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// Transport adapts a Doer to http.RoundTripper, so SDKs that only accept an
// *http.Client still go through the Doer's retries and circuit breaker.
// A *StatusError from the Doer is turned back into the response it came from.
type Transport struct {
	Doer Doer
}

// NewStdClient returns an *http.Client that sends every request through doer.
// Timeouts are left to the Doer.
func NewStdClient(doer Doer) *http.Client {
	return &http.Client{Transport: &Transport{Doer: doer}}
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.Doer.Do(req.Context(), req)
	if err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) {
			return statusErr.Response(req), nil
		}
		return nil, err
	}
	return resp, nil
}

// Response rebuilds the HTTP response the error was created from.
func (e *StatusError) Response(req *http.Request) *http.Response {
	header := e.Header
	if header == nil {
		header = make(http.Header)
	}
	return &http.Response{
		Status:        fmt.Sprintf("%d %s", e.StatusCode, http.StatusText(e.StatusCode)),
		StatusCode:    e.StatusCode,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(e.Body)),
		ContentLength: int64(len(e.Body)),
		Request:       req,
	}
}
