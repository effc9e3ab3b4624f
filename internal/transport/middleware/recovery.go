package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/Keith994/everyone-can-use-english/pkg/ctxutil"
)

// Recovery returns middleware that recovers from panics, logs the panic
// value with a stack trace and the request ID, and responds with
// 500 Internal Server Error. It sits just inside RequestID in the chain so
// the correlation ID is already on the context when a panic is logged.
func Recovery(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if v := recover(); v != nil {
					logger.ErrorContext(r.Context(), "panic recovered",
						slog.Any("error", v),
						slog.String("stack", string(debug.Stack())),
						slog.String("method", r.Method),
						slog.String("path", r.URL.Path),
						slog.String("request_id", ctxutil.RequestIDFromCtx(r.Context())),
					)
					http.Error(w, "internal server error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
