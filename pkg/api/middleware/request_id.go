package middleware

import (
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/dskvich/chatgpt-slack-bridge/pkg/logger"
)

var requestCounter int64

// RequestLogger assigns each request an ID carried in the context and logs
// request start and completion.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := atomic.AddInt64(&requestCounter, 1)
		ctx := logger.ContextWithRequestID(r.Context(), requestID)

		start := time.Now()
		slog.InfoContext(ctx, "request started", "method", r.Method, "path", r.URL.Path)

		next.ServeHTTP(w, r.WithContext(ctx))

		slog.InfoContext(ctx, "request completed", "duration", time.Since(start).String())
	})
}
