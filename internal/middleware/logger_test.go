package middleware

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

func TestLogger(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantLevel zapcore.Level
	}{
		{name: "ok", status: http.StatusOK, body: `{"orders":[]}`, wantLevel: zapcore.InfoLevel},
		{name: "conflict", status: http.StatusConflict, body: "Conflict", wantLevel: zapcore.InfoLevel},
		{name: "server error", status: http.StatusInternalServerError, body: "Internal Server Error", wantLevel: zapcore.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.InfoLevel)

			h := Logger(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))

			r := httptest.NewRequest(http.MethodPatch, "/api/orders/42/status", nil)
			h.ServeHTTP(httptest.NewRecorder(), r)

			entries := logs.All()
			require.Len(t, entries, 1)
			assert.Equal(t, tt.wantLevel, entries[0].Level)

			fields := entries[0].ContextMap()
			assert.Equal(t, http.MethodPatch, fields["method"])
			assert.Equal(t, "/api/orders/42/status", fields["path"])
			assert.Equal(t, int64(tt.status), fields["status"])
			assert.Equal(t, int64(len(tt.body)), fields["size"])
		})
	}
}

func TestLoggerWithOperator(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	auth := NewAuthMiddleware("secret")

	h := auth.Middleware(Logger(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})))

	r := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	r.Header.Set("Authorization", "Bearer "+auth.IssueToken("op-3"))
	h.ServeHTTP(httptest.NewRecorder(), r)

	require.Len(t, logs.All(), 1)
	assert.Equal(t, "op-3", logs.All()[0].ContextMap()["operator"])
}
