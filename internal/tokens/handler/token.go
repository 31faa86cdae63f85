package handler

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"tablebook/internal/tokens/service"
	httputil "tablebook/pkg/http"
	"tablebook/pkg/logger"
)

type TokenHandler struct {
	service service.TokenService
	log     *logger.Logger
}

func NewTokenHandler(service service.TokenService, log *logger.Logger) *TokenHandler {
	return &TokenHandler{
		service: service,
		log:     log,
	}
}

type validateRequest struct {
	Token string `json:"token"`
}

type cancelRequest struct {
	Token  string `json:"token"`
	Reason string `json:"reason,omitempty"`
}

type cancelResponse struct {
	Success bool `json:"success"`
}

var statusByErrorType = map[string]int{
	service.ErrorTypeNotFound: http.StatusNotFound,
	service.ErrorTypeExpired:  http.StatusGone,
	service.ErrorTypeInvalid:  http.StatusConflict,
	service.ErrorTypeTooClose: http.StatusForbidden,
	service.ErrorTypeNetwork:  http.StatusServiceUnavailable,
}

func (h *TokenHandler) Validate(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req validateRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Validate", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	result, err := h.service.Validate(r.Context(), req.Token)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Validate", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	status := http.StatusOK
	if !result.Valid {
		status = statusByErrorType[result.ErrorType]
	}
	if err := httputil.WriteJSON(w, status, result); err != nil {
		h.log.Error("failed to write JSON response", "handler", "Validate", "operation", "WriteJSON", "error", err)
	}
}

func (h *TokenHandler) Cancel(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req cancelRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Cancel", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := h.service.Cancel(r.Context(), req.Token, req.Reason); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Cancel", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteJSON(w, http.StatusOK, cancelResponse{Success: true}); err != nil {
		h.log.Error("failed to write JSON response", "handler", "Cancel", "operation", "WriteJSON", "error", err)
	}
}

func (h *TokenHandler) Reissue(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	token, err := h.service.Reissue(r.Context(), ps.ByName("id"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Reissue", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteCreated(w, token); err != nil {
		h.log.Error("failed to write created response", "handler", "Reissue", "operation", "WriteCreated", "error", err)
	}
}

func (h *TokenHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/tokens/validate", h.Validate)
	router.POST("/api/v1/tokens/cancel", h.Cancel)
	router.POST("/api/v1/reservations/id/:id/token", h.Reissue)
}
