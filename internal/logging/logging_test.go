package logging

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewRejectsUnknownInputs(t *testing.T) {
	_, err := New("loud", "json")
	assert.Error(t, err)

	_, err = New("info", "xml")
	assert.Error(t, err)
}

func TestNewBuildsLoggerAtLevel(t *testing.T) {
	logger, err := New("warn", "console")
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))
}

func TestRequestLoggerRecordsStatus(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	handler := RequestLogger(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/cases/missing", nil)
	req.Header.Set(RequestIDHeader, "req-1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "req-1", rec.Header().Get(RequestIDHeader))
	entries := logs.FilterMessage("HTTP request").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	fields := entries[0].ContextMap()
	assert.Equal(t, int64(http.StatusNotFound), fields["status"])
	assert.Equal(t, "/api/cases/missing", fields["path"])
}

func TestRequestLoggerAssignsRequestID(t *testing.T) {
	handler := RequestLogger(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
}

func TestSanitizeConnectionString(t *testing.T) {
	tests := map[string]string{
		"":                                           "",
		"postgres://costlaw:hunter2@db:5432/costlaw": "postgres://[REDACTED]@db:5432/costlaw",
		"host=db user=costlaw password=hunter2":      "host=db user=costlaw password=[REDACTED]",
		"file:./data/costlaw.db":                     "file:./data/costlaw.db",
	}
	for input, want := range tests {
		assert.Equal(t, want, SanitizeConnectionString(input), input)
	}
}
