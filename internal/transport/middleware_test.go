package transport

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/latmedia/dealdesk/internal/observability"
)

func TestRequestLogging_contextLoggerCarriesCorrelationID(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		observability.LoggerFrom(r.Context(), zap.NewNop()).Info("section loaded")
		w.WriteHeader(http.StatusOK)
	})
	h := RequestID(RequestLogging(logger)(inner))

	req := httptest.NewRequest(http.MethodGet, "/api/deals/42/basic-info", nil)
	req.Header.Set("X-Correlation-Id", "corr-123")
	h.ServeHTTP(httptest.NewRecorder(), req)

	entries := logs.FilterMessage("section loaded").All()
	require.Len(t, entries, 1, "handler must log through the stashed request logger")
	assert.Equal(t, "corr-123", entries[0].ContextMap()["correlation_id"])

	requestLine := logs.FilterMessage("request").All()
	require.Len(t, requestLine, 1)
	assert.Equal(t, "corr-123", requestLine[0].ContextMap()["correlation_id"])
}

func TestRequestLogging_loggerFromFallsBackWithoutMiddleware(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	fallback := zap.New(core)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	observability.LoggerFrom(req.Context(), fallback).Info("no middleware")

	assert.Len(t, logs.FilterMessage("no middleware").All(), 1)
}
