package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"runtime/debug"

	apperrors "github.com/utafrali/checkout-core/pkg/errors"
)

// Recovery turns a panic into a 500 response with the INTERNAL_ERROR body.
func Recovery(l *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				l.ErrorContext(r.Context(), "panic recovered",
					slog.Any("panic", rec),
					slog.String("stack", string(debug.Stack())),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
				)

				appErr := apperrors.Internal(nil)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(appErr.Status)
				_ = json.NewEncoder(w).Encode(appErr)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
