package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ok(context.Context) error   { return nil }
func down(context.Context) error { return errors.New("connection refused") }

func serve(t *testing.T, c *Checker, path string) (int, Response) {
	t.Helper()
	e := echo.New()
	c.RegisterRoutes(e)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var body Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestHealth_Statuses(t *testing.T) {
	tests := []struct {
		name     string
		checker  *Checker
		wantCode int
		want     Status
	}{
		{"all healthy", NewChecker("test").Require("database", ok).Optional("redis", ok), http.StatusOK, StatusHealthy},
		{"optional down", NewChecker("test").Require("database", ok).Optional("redis", down), http.StatusOK, StatusDegraded},
		{"required down", NewChecker("test").Require("database", down).Optional("redis", ok), http.StatusServiceUnavailable, StatusUnhealthy},
		{"required missing", NewChecker("test").Require("database", nil), http.StatusServiceUnavailable, StatusUnhealthy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := serve(t, tt.checker, "/health")
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.want, body.Status)
		})
	}
}

func TestHealth_ReportsFailureMessage(t *testing.T) {
	_, body := serve(t, NewChecker("test").Require("database", ok).Optional("redis", down), "/health")
	assert.Equal(t, StatusHealthy, body.Checks["database"].Status)
	assert.Equal(t, "connection refused", body.Checks["redis"].Message)
}

func TestReadiness_WaitsForStartup(t *testing.T) {
	c := NewChecker("test").Require("database", ok)

	code, body := serve(t, c, "/health/ready")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Contains(t, body.Checks, "startup")

	c.SetReady(true)
	code, body = serve(t, c, "/health/ready")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, StatusHealthy, body.Status)
}

func TestLiveness_IgnoresDependencies(t *testing.T) {
	code, body := serve(t, NewChecker("test").Require("database", down), "/health/live")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, StatusHealthy, body.Status)
}

func TestHealth_ReportsMaintenance(t *testing.T) {
	c := NewChecker("test").WithMaintenance(func() bool { return true })
	_, body := serve(t, c, "/health")
	assert.True(t, body.Maintenance)
}
