package handler

import (
	"busbook/internal/payments/service"
	httputil "busbook/pkg/http"
	"busbook/pkg/logger"
	"busbook/pkg/model"
	"net/http"

	"github.com/julienschmidt/httprouter"
)

type PaymentHandler struct {
	service service.PaymentService
	log     *logger.Logger
}

func NewPaymentHandler(service service.PaymentService, log *logger.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: service,
		log:     log,
	}
}

func (h *PaymentHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/payments/process", h.Process)
}

// Process answers with the gateway payload as-is rather than a data envelope.
func (h *PaymentHandler) Process(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.PaymentRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Process", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	resp, err := h.service.Process(r.Context(), &req)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Process", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteJSON(w, http.StatusOK, resp); err != nil {
		h.log.Error("failed to write response", "handler", "Process", "operation", "WriteJSON", "error", err)
	}
}
