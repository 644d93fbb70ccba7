package middleware

import (
	apperrors "busbook/pkg/errors"
	httputil "busbook/pkg/http"
	"busbook/pkg/logger"
	"mime"
	"net/http"
)

// ContentTypeValidation requires application/json on write requests that
// carry a body. Bodyless POST and PATCH calls such as releasing expired
// locks pass through.
func ContentTypeValidation(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !hasBody(r) {
				next.ServeHTTP(w, r)
				return
			}

			mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
			if err != nil || mediaType != "application/json" {
				log.Warn("Invalid Content-Type header",
					"request_id", RequestIDFrom(r.Context()),
					"content_type", r.Header.Get("Content-Type"),
					"path", r.URL.Path,
					"method", r.Method,
				)
				appErr := apperrors.New(apperrors.CodeBadRequest, "Content-Type must be application/json", http.StatusUnsupportedMediaType)
				if writeErr := httputil.WriteError(w, appErr); writeErr != nil {
					log.Error("failed to write error response", "middleware", "ContentTypeValidation", "error", writeErr)
				}
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func hasBody(r *http.Request) bool {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
	default:
		return false
	}
	if r.ContentLength > 0 {
		return true
	}
	// chunked requests report -1
	return r.ContentLength < 0 && r.Body != nil && r.Body != http.NoBody
}
