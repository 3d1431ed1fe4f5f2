package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/frahmantamala/course-payments/pkg/logger"
)

const panicBody = `{"success":false,"message":"internal server error"}`

// RecoveryMiddleware turns a panic into a 500. The panic value is logged, never returned to the client.
func RecoveryMiddleware(fallback *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					if err == http.ErrAbortHandler {
						panic(err)
					}

					lg := fallback
					if lg == nil {
						lg = logger.From(r.Context())
					}
					lg.Error("panic recovered",
						"error", err,
						"method", r.Method,
						"path", r.URL.Path,
						"stack", string(debug.Stack()))

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_, _ = w.Write([]byte(panicBody))
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
