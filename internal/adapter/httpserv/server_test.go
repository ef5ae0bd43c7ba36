package httpserv_test

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/rainfall-exposure-etl/internal/adapter/httpserv"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

func newTestServer(readyErr error, progress httpserv.ProgressFunc) *httpserv.Server {
	return httpserv.NewServer(":0", &mockReadiness{err: readyErr}, progress, slog.Default())
}

func get(t *testing.T, srv *httpserv.Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthzReturns200(t *testing.T) {
	rec := get(t, newTestServer(nil, nil), "/healthz")

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	rec := get(t, newTestServer(nil, nil), "/readyz")

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ready", body["status"])
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	rec := get(t, newTestServer(fmt.Errorf("no file has completed yet"), nil), "/readyz")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "no file has completed yet", body["error"])
}

func TestProgressEndpoint(t *testing.T) {
	progress := func() map[string]httpserv.ProgressSnapshot {
		return map[string]httpserv.ProgressSnapshot{
			"extreme": {Total: 10, Done: 4, Failed: 1},
		}
	}
	rec := get(t, newTestServer(nil, progress), "/progress")

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]httpserv.ProgressSnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 10, body["extreme"].Total)
	assert.Equal(t, 4, body["extreme"].Done)
	assert.Equal(t, 1, body["extreme"].Failed)
}

func TestProgressEndpoint_NilFunc(t *testing.T) {
	rec := get(t, newTestServer(nil, nil), "/progress")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "{}", rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	rec := get(t, newTestServer(nil, nil), "/metrics")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
