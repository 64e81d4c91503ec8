package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func up(context.Context) error   { return nil }
func down(context.Context) error { return errors.New("connection refused") }

func serveReadiness(t *testing.T, h *Handler) (int, Response) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ReadinessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	var resp Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return rec.Code, resp
}

func TestLivenessHandler_AlwaysReturns200(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHandler().LivenessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, StatusUp, resp.Status)
	assert.False(t, resp.Timestamp.IsZero())
}

func TestReadinessHandler_AllHealthy(t *testing.T) {
	h := NewHandler()
	h.RegisterCritical("postgres", up)
	h.RegisterNonCritical("redis", up)

	code, resp := serveReadiness(t, h)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, StatusUp, resp.Status)
	assert.True(t, resp.Checks["postgres"].Critical)
	assert.False(t, resp.Checks["redis"].Critical)
}

func TestReadinessHandler_CriticalDown(t *testing.T) {
	h := NewHandler()
	h.RegisterCritical("postgres", down)
	h.RegisterNonCritical("redis", up)

	code, resp := serveReadiness(t, h)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, StatusDown, resp.Status)
	assert.Equal(t, "connection refused", resp.Checks["postgres"].Error)
}

func TestReadinessHandler_NonCriticalDownIsDegraded(t *testing.T) {
	h := NewHandler()
	h.RegisterCritical("postgres", up)
	h.RegisterNonCritical("kafka", down)

	code, resp := serveReadiness(t, h)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, StatusDegraded, resp.Status)
	assert.Equal(t, StatusDown, resp.Checks["kafka"].Status)
}

func TestReadinessHandler_NoChecks(t *testing.T) {
	code, resp := serveReadiness(t, NewHandler())
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, StatusUp, resp.Status)
}
