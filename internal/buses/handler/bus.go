package handler

import (
	"busbook/internal/buses/service"
	httputil "busbook/pkg/http"
	"busbook/pkg/logger"
	"busbook/pkg/middleware"
	"busbook/pkg/model"
	"net/http"

	"github.com/julienschmidt/httprouter"
)

type BusHandler struct {
	service service.BusService
	log     *logger.Logger
	admin   middleware.RouteGuard
}

func NewBusHandler(service service.BusService, log *logger.Logger, admin middleware.RouteGuard) *BusHandler {
	if admin == nil {
		admin = middleware.AllowAll
	}
	return &BusHandler{
		service: service,
		log:     log,
		admin:   admin,
	}
}

func (h *BusHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/buses", h.Search)
	router.POST("/api/v1/buses", h.admin(h.Create))
	router.GET("/api/v1/buses/:id", h.GetByID)
	router.POST("/api/v1/buses/lock/:id", h.LockSeats)
	router.POST("/api/v1/buses/unlock/:id", h.UnlockSeats)
	router.POST("/api/v1/buses/confirm/:id", h.ConfirmBooking)
	router.PATCH("/api/v1/buses/release-locks/:id", h.ReleaseExpiredLocks)
	router.DELETE("/api/v1/buses/cleanup/expired", h.admin(h.CleanupExpired))
}

func (h *BusHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *BusHandler) writeJSON(w http.ResponseWriter, handler string, status int, body any) {
	if err := httputil.WriteJSON(w, status, body); err != nil {
		h.log.Error("failed to write JSON response", "handler", handler, "operation", "WriteJSON", "error", err)
	}
}

func (h *BusHandler) Search(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query := r.URL.Query()
	filter := model.BusSearchFilter{
		Source:      query.Get("source"),
		Destination: query.Get("destination"),
		Date:        query.Get("date"),
	}

	buses, err := h.service.Search(r.Context(), filter)
	if err != nil {
		h.writeError(w, "Search", err)
		return
	}

	h.writeJSON(w, "Search", http.StatusOK, buses)
}

func (h *BusHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	bus, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	h.writeJSON(w, "GetByID", http.StatusOK, bus)
}

func (h *BusHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var bus model.Bus
	if err := httputil.DecodeJSON(r, &bus); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := h.service.Create(r.Context(), &bus); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	h.writeJSON(w, "Create", http.StatusCreated, bus)
}

func (h *BusHandler) LockSeats(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req model.LockSeatsRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "LockSeats", err)
		return
	}

	resp, err := h.service.LockSeats(r.Context(), ps.ByName("id"), &req)
	if err != nil {
		h.writeError(w, "LockSeats", err)
		return
	}

	h.writeJSON(w, "LockSeats", http.StatusOK, resp)
}

func (h *BusHandler) UnlockSeats(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req model.UnlockSeatsRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "UnlockSeats", err)
		return
	}

	resp, err := h.service.UnlockSeats(r.Context(), ps.ByName("id"), &req)
	if err != nil {
		h.writeError(w, "UnlockSeats", err)
		return
	}

	h.writeJSON(w, "UnlockSeats", http.StatusOK, resp)
}

func (h *BusHandler) ConfirmBooking(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req model.ConfirmBookingRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "ConfirmBooking", err)
		return
	}
	if req.TransactionID == "" {
		req.TransactionID = r.Header.Get(middleware.IdempotencyHeader)
	}

	resp, err := h.service.ConfirmBooking(r.Context(), ps.ByName("id"), &req)
	if err != nil {
		h.writeError(w, "ConfirmBooking", err)
		return
	}

	h.writeJSON(w, "ConfirmBooking", http.StatusOK, resp)
}

func (h *BusHandler) ReleaseExpiredLocks(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	resp, err := h.service.ReleaseExpiredLocks(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "ReleaseExpiredLocks", err)
		return
	}

	h.writeJSON(w, "ReleaseExpiredLocks", http.StatusOK, resp)
}

func (h *BusHandler) CleanupExpired(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	resp, err := h.service.CleanupExpired(r.Context())
	if err != nil {
		h.writeError(w, "CleanupExpired", err)
		return
	}

	h.writeJSON(w, "CleanupExpired", http.StatusOK, resp)
}
