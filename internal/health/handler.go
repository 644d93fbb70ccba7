package health

import (
	httputil "busbook/pkg/http"
	"busbook/pkg/logger"
	"context"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/redis/go-redis/v9"
)

type Response struct {
	Status   string `json:"status"`
	Database string `json:"database,omitempty"`
	Cache    string `json:"cache,omitempty"`
}

// Pinger checks that a storage dependency answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

type PingerFunc func(ctx context.Context) error

func (f PingerFunc) Ping(ctx context.Context) error { return f(ctx) }

type Handler struct {
	database Pinger
	cache    *redis.Client
	log      *logger.Logger
}

// NewHandler builds the liveness and readiness endpoints. cache may be nil
// when Redis is not configured.
func NewHandler(database Pinger, cache *redis.Client, log *logger.Logger) *Handler {
	return &Handler{
		database: database,
		cache:    cache,
		log:      log,
	}
}

func (h *Handler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/health", h.Health)
	router.GET("/ready", h.Ready)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.write(w, "Health", http.StatusOK, Response{Status: "ok"})
}

func (h *Handler) Ready(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := Response{Status: "ready", Database: "ok"}
	status := http.StatusOK

	if err := h.database.Ping(ctx); err != nil {
		h.log.Error("Database health check failed",
			"error", err,
			"path", r.URL.Path,
		)
		resp.Status, resp.Database = "unavailable", "error"
		status = http.StatusServiceUnavailable
	}

	// Redis only backs the idempotency cache, which fails open.
	if h.cache != nil {
		resp.Cache = "ok"
		if err := h.cache.Ping(ctx).Err(); err != nil {
			h.log.Warn("Cache health check failed", "error", err)
			resp.Cache = "degraded"
		}
	}

	h.write(w, "Ready", status, resp)
}

func (h *Handler) write(w http.ResponseWriter, handler string, status int, resp Response) {
	if err := httputil.WriteJSON(w, status, resp); err != nil {
		h.log.Error("failed to write JSON response", "handler", handler, "operation", "WriteJSON", "error", err)
	}
}
