package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appctx "github.com/Ramsey-B/fern/pkg/context"
	pipelineerrors "github.com/Ramsey-B/fern/pkg/errors"
)

func silentLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(ectologger.EctoLogMessage) {})
}

func newServer(handler echo.HandlerFunc, mw ...echo.MiddlewareFunc) *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = Error(silentLogger())
	e.Use(Context())
	e.Use(Logger(silentLogger()))
	e.GET("/v0/test", handler, mw...)
	return e
}

func do(t *testing.T, e *echo.Echo, req *http.Request) (*httptest.ResponseRecorder, ErrorResponse) {
	t.Helper()
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	var body ErrorResponse
	if rec.Code >= 400 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func TestError_PipelineErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantMsg  string
	}{
		{"missing key", pipelineerrors.MissingCredential(), http.StatusBadRequest, "Please provide an API key"},
		{"rejected key", pipelineerrors.RejectedCredential("/v0/voyage"), http.StatusForbidden, ""},
		{"maintenance", pipelineerrors.MaintenanceMode(), http.StatusServiceUnavailable, ""},
		{"incomplete", pipelineerrors.IncompleteDataset("stale"), http.StatusNotFound, ""},
		{"echo error", echo.NewHTTPError(http.StatusUnauthorized, "missing bearer"), http.StatusUnauthorized, "missing bearer"},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, "Internal Server Error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newServer(func(echo.Context) error { return tt.err })
			rec, body := do(t, e, httptest.NewRequest(http.MethodGet, "/v0/test", nil))
			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, body.Message)
			}
			assert.NotEmpty(t, body.RequestID)
		})
	}
}

func TestContext_RequestID(t *testing.T) {
	var seen string
	e := newServer(func(c echo.Context) error {
		seen = appctx.GetRequestID(c.Request().Context())
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/v0/test", nil)
	req.Header.Set(echo.HeaderXRequestID, "req-1")
	rec, _ := do(t, e, req)
	assert.Equal(t, "req-1", seen)
	assert.Equal(t, "req-1", rec.Header().Get(echo.HeaderXRequestID))

	rec, _ = do(t, e, httptest.NewRequest(http.MethodGet, "/v0/test", nil))
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
	assert.NotEqual(t, "req-1", seen)
}

type fakeVerifier map[string]string

func (f fakeVerifier) Verify(_ context.Context, raw string) (string, error) {
	if subject, ok := f[raw]; ok {
		return subject, nil
	}
	return "", errors.New("bad signature")
}

func TestAuthentication(t *testing.T) {
	var subject string
	e := newServer(func(c echo.Context) error {
		subject = appctx.GetSubject(c.Request().Context())
		return c.NoContent(http.StatusOK)
	}, Authentication(silentLogger(), fakeVerifier{"good": "ops@example.org"}))

	rec, body := do(t, e, httptest.NewRequest(http.MethodGet, "/v0/test", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "missing bearer", body.Message)

	req := httptest.NewRequest(http.MethodGet, "/v0/test", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer bad")
	rec, body = do(t, e, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid token", body.Message)

	req = httptest.NewRequest(http.MethodGet, "/v0/test", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer good")
	rec, _ = do(t, e, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ops@example.org", subject)
}
