package handlers

import (
	maestro "busbook/internal/maestro/core"
	"busbook/pkg/client"
	apperrors "busbook/pkg/errors"
	httputil "busbook/pkg/http"
	"busbook/pkg/logger"
	"context"
	"errors"
	"net/http"

	"github.com/julienschmidt/httprouter"
)

type FlowService interface {
	ExecuteFlow(ctx context.Context, flowName string, input map[string]any) (map[string]any, error)
	GetAvailableFlows() []string
}

type FlowHandler struct {
	service FlowService
	log     *logger.Logger
}

func NewFlowHandler(service FlowService, log *logger.Logger) *FlowHandler {
	return &FlowHandler{
		service: service,
		log:     log,
	}
}

type ExecuteFlowRequest struct {
	Flow  string         `json:"flow"`
	Input map[string]any `json:"input"`
}

type ExecuteFlowResponse struct {
	Success bool           `json:"success"`
	Output  map[string]any `json:"output,omitempty"`
	Error   string         `json:"error,omitempty"`
	Code    string         `json:"code,omitempty"`
	Step    string         `json:"step,omitempty"`
}

type ListFlowsResponse struct {
	Flows []string `json:"flows"`
}

func (h *FlowHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/maestro/execute", h.ExecuteFlow)
	router.GET("/api/v1/maestro/flows", h.ListFlows)
}

func (h *FlowHandler) ExecuteFlow(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req ExecuteFlowRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.log.Warn("failed to decode request", "error", err)
		h.writeError(w, apperrors.AsAppError(err), "")
		return
	}

	if req.Flow == "" {
		h.writeError(w, apperrors.InvalidInput("flow name is required"), "")
		return
	}

	h.log.Info("executing flow", "flow", req.Flow)

	output, err := h.service.ExecuteFlow(r.Context(), req.Flow, req.Input)
	if err != nil {
		h.log.Error("flow execution failed", "flow", req.Flow, "error", err)
		var stepErr *maestro.StepError
		step := ""
		if errors.As(err, &stepErr) {
			step = stepErr.Step
		}
		h.writeError(w, flowError(err), step)
		return
	}

	h.writeJSON(w, http.StatusOK, ExecuteFlowResponse{
		Success: true,
		Output:  output,
	})
}

func (h *FlowHandler) ListFlows(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	h.writeJSON(w, http.StatusOK, ListFlowsResponse{
		Flows: h.service.GetAvailableFlows(),
	})
}

// flowError maps a flow failure to the status the caller sees. Upstream API
// errors keep their status and code; transport failures become 502.
func flowError(err error) *apperrors.AppError {
	if errors.Is(err, maestro.ErrUnknownFlow) || errors.Is(err, maestro.ErrInvalidInput) {
		return apperrors.InvalidInput(err.Error())
	}

	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.Code
		if code == "" {
			code = apperrors.CodeBadRequest
		}
		status := apiErr.StatusCode
		if status >= http.StatusInternalServerError {
			status = http.StatusBadGateway
			code = apperrors.CodeUnavailable
		}
		return apperrors.New(code, apiErr.Message, status)
	}

	return apperrors.Wrap(err, apperrors.CodeUnavailable, "upstream service unavailable", http.StatusBadGateway)
}

func (h *FlowHandler) writeJSON(w http.ResponseWriter, status int, data any) {
	if err := httputil.WriteJSON(w, status, data); err != nil {
		h.log.Error("failed to encode response", "error", err)
	}
}

func (h *FlowHandler) writeError(w http.ResponseWriter, appErr *apperrors.AppError, step string) {
	h.writeJSON(w, appErr.StatusCode(), ExecuteFlowResponse{
		Success: false,
		Error:   appErr.Message,
		Code:    appErr.Code,
		Step:    step,
	})
}
