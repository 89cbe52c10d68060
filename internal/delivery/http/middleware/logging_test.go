package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lastRecord keeps the most recent log record.
type lastRecord struct {
	rec slog.Record
	n   int
}

func (h *lastRecord) Enabled(context.Context, slog.Level) bool { return true }

func (h *lastRecord) Handle(_ context.Context, r slog.Record) error {
	h.rec, h.n = r.Clone(), h.n+1
	return nil
}

func (h *lastRecord) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *lastRecord) WithGroup(string) slog.Handler      { return h }

func (h *lastRecord) attrs() map[string]slog.Value {
	out := make(map[string]slog.Value)
	h.rec.Attrs(func(a slog.Attr) bool {
		out[a.Key] = a.Value
		return true
	})
	return out
}

func TestLoggingMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		path       string
		handler    http.HandlerFunc
		wantStatus int64
		wantBytes  int64
		wantLevel  slog.Level
	}{
		{
			name:   "month view",
			method: http.MethodGet,
			path:   "/calendar/2024/2",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"data":{}}`))
			},
			wantStatus: http.StatusOK,
			wantBytes:  11,
			wantLevel:  slog.LevelInfo,
		},
		{
			name:   "enrollment conflict keeps first status",
			method: http.MethodPost,
			path:   "/programs/p/enrollments",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusConflict)
				w.WriteHeader(http.StatusOK)
			},
			wantStatus: http.StatusConflict,
			wantLevel:  slog.LevelInfo,
		},
		{
			name:   "server error",
			method: http.MethodPost,
			path:   "/events",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			wantStatus: http.StatusInternalServerError,
			wantLevel:  slog.LevelWarn,
		},
		{
			name:       "swagger asset",
			method:     http.MethodGet,
			path:       "/swagger/index.html",
			handler:    func(w http.ResponseWriter, r *http.Request) {},
			wantStatus: http.StatusOK,
			wantLevel:  slog.LevelDebug,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &lastRecord{}
			rr := httptest.NewRecorder()
			LoggingMiddleware(slog.New(h), tt.handler).ServeHTTP(rr, httptest.NewRequest(tt.method, tt.path, nil))

			require.Equal(t, 1, h.n)
			assert.Equal(t, "request", h.rec.Message)
			assert.Equal(t, tt.wantLevel, h.rec.Level)
			attrs := h.attrs()
			assert.Equal(t, tt.method, attrs["method"].String())
			assert.Equal(t, tt.path, attrs["path"].String())
			assert.Equal(t, tt.wantStatus, attrs["status"].Int64())
			assert.Equal(t, tt.wantBytes, attrs["bytes"].Int64())
		})
	}
}

func TestStatusRecorder_Unwrap(t *testing.T) {
	rr := httptest.NewRecorder()
	rec := &statusRecorder{ResponseWriter: rr}
	assert.Same(t, rr, rec.Unwrap())
}
