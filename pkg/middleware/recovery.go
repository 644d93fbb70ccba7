package middleware

import (
	apperrors "busbook/pkg/errors"
	httputil "busbook/pkg/http"
	"busbook/pkg/logger"
	"fmt"
	"net/http"
	"runtime/debug"
)

func Recovery(log *logger.Logger) func(http.Handler) http.Handler {
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

				log.Error("Panic recovered",
					"request_id", RequestIDFrom(r.Context()),
					"error", rec,
					"method", r.Method,
					"path", r.URL.Path,
					"stack", string(debug.Stack()),
				)

				err := apperrors.Internal("panic in handler", fmt.Errorf("%v", rec))
				if writeErr := httputil.WriteError(w, err); writeErr != nil {
					log.Error("failed to write error response", "middleware", "Recovery", "error", writeErr)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
