package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockHealthCheck struct {
	name string
	err  error
}

func (m *mockHealthCheck) Name() string {
	return m.name
}

func (m *mockHealthCheck) Check(ctx context.Context) error {
	return m.err
}

func TestHealthHandler_HandleHealth(t *testing.T) {
	handler := NewHealthHandler(zap.NewNop())

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/health", nil)

	handler.HandleHealth(w, r)

	assert.Equal(t, http.StatusOK, w.Code)

	var status HealthStatus
	require.NoError(t, json.NewDecoder(w.Body).Decode(&status))
	assert.Equal(t, "healthy", status.Status)
	assert.False(t, status.Timestamp.IsZero())
}

func TestHealthHandler_HandleReady_AllPass(t *testing.T) {
	handler := NewHealthHandler(zap.NewNop())
	handler.RegisterCheck(&mockHealthCheck{name: "ledger"})
	handler.RegisterCheck(&mockHealthCheck{name: "store"})

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/ready", nil)

	handler.HandleReady(w, r)

	assert.Equal(t, http.StatusOK, w.Code)

	var status HealthStatus
	require.NoError(t, json.NewDecoder(w.Body).Decode(&status))
	assert.Equal(t, "healthy", status.Status)
	assert.Len(t, status.Checks, 2)
	assert.Equal(t, "pass", status.Checks["ledger"].Status)
}

func TestHealthHandler_HandleReady_OneFails(t *testing.T) {
	handler := NewHealthHandler(zap.NewNop())
	handler.RegisterCheck(&mockHealthCheck{name: "ledger"})
	handler.RegisterCheck(&mockHealthCheck{name: "redis", err: errors.New("connection refused")})

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/ready", nil)

	handler.HandleReady(w, r)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var status HealthStatus
	require.NoError(t, json.NewDecoder(w.Body).Decode(&status))
	assert.Equal(t, "unhealthy", status.Status)
	assert.Equal(t, "fail", status.Checks["redis"].Status)
	assert.Contains(t, status.Checks["redis"].Message, "connection refused")
}

func TestHealthHandler_HandleVersion(t *testing.T) {
	handler := NewHealthHandler(zap.NewNop())

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/version", nil)

	handler.HandleVersion("1.2.3", "2026-01-01", "deadbeef")(w, r)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp Response
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.True(t, resp.Success)

	info, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "1.2.3", info["version"])
}

func TestPingHealthCheck(t *testing.T) {
	check := NewPingHealthCheck("store", func(ctx context.Context) error {
		return nil
	})
	assert.Equal(t, "store", check.Name())
	assert.NoError(t, check.Check(context.Background()))

	failing := NewPingHealthCheck("redis", func(ctx context.Context) error {
		return errors.New("down")
	})
	assert.Error(t, failing.Check(context.Background()))
}
