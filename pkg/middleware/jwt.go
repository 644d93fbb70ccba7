package middleware

import (
	"busbook/pkg/config"
	apperrors "busbook/pkg/errors"
	httputil "busbook/pkg/http"
	"busbook/pkg/logger"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/julienschmidt/httprouter"
)

var errMissingToken = errors.New("missing bearer token")

// RouteGuard wraps a single route. Handlers apply it to admin routes.
type RouteGuard func(httprouter.Handle) httprouter.Handle

func AllowAll(next httprouter.Handle) httprouter.Handle {
	return next
}

type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// RequireAdmin accepts HS256 bearer tokens whose role claim is admin. With an
// empty secret admin routes are left open, which suits local development.
func RequireAdmin(secret string, log *logger.Logger) RouteGuard {
	if secret == "" {
		log.Warn("JWT secret not set, admin routes are unauthenticated")
		return AllowAll
	}
	key := []byte(secret)

	return func(next httprouter.Handle) httprouter.Handle {
		return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
			claims, err := parseBearer(r, key)
			if err != nil {
				rejectAuth(w, log, r, apperrors.Unauthorized("Invalid or missing bearer token"), err)
				return
			}
			if claims.Role != config.RoleAdmin {
				rejectAuth(w, log, r, apperrors.Forbidden("Admin role required"), nil)
				return
			}
			next(w, r, ps)
		}
	}
}

func parseBearer(r *http.Request, key []byte) (*Claims, error) {
	raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || strings.TrimSpace(raw) == "" {
		return nil, errMissingToken
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(strings.TrimSpace(raw), claims, func(*jwt.Token) (any, error) {
		return key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	return claims, nil
}

func rejectAuth(w http.ResponseWriter, log *logger.Logger, r *http.Request, appErr *apperrors.AppError, cause error) {
	log.Warn("Admin route rejected",
		"request_id", RequestIDFrom(r.Context()),
		"path", r.URL.Path,
		"code", appErr.Code,
		"error", cause,
	)
	if writeErr := httputil.WriteError(w, appErr); writeErr != nil {
		log.Error("failed to write error response", "middleware", "RequireAdmin", "error", writeErr)
	}
}
