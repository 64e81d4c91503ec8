package httpclient

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadBody_ReadsAndCloses(t *testing.T) {
	body := io.NopCloser(strings.NewReader(`{"error":{"message":"No such payment_intent"}}`))
	resp := &http.Response{StatusCode: http.StatusNotFound, Body: body}

	b, err := ReadBody(resp)
	require.NoError(t, err)
	assert.Contains(t, string(b), "No such payment_intent")
}

func TestReadBody_LimitsSize(t *testing.T) {
	resp := &http.Response{Body: io.NopCloser(strings.NewReader(strings.Repeat("x", maxErrorBody+10)))}

	b, err := ReadBody(resp)
	require.NoError(t, err)
	assert.Len(t, b, maxErrorBody)
}

func TestStatusError_Error(t *testing.T) {
	err := &StatusError{StatusCode: 503, Body: []byte("unavailable")}
	assert.Equal(t, "server error 503: unavailable", err.Error())
}

func TestIsClientError(t *testing.T) {
	assert.True(t, IsClientError(400))
	assert.True(t, IsClientError(402))
	assert.False(t, IsClientError(500))
	assert.False(t, IsClientError(200))
}
