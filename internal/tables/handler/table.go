package handler

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"tablebook/internal/tables/service"
	httputil "tablebook/pkg/http"
	"tablebook/pkg/logger"
	"tablebook/pkg/model"
)

type TableHandler struct {
	service service.TableService
	log     *logger.Logger
}

func NewTableHandler(service service.TableService, log *logger.Logger) *TableHandler {
	return &TableHandler{
		service: service,
		log:     log,
	}
}

func (h *TableHandler) ListStatus(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	views, err := h.service.ListStatus(r.Context(), r.URL.Query().Get("zone"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "ListStatus", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, views); err != nil {
		h.log.Error("failed to write success response", "handler", "ListStatus", "operation", "WriteSuccess", "error", err)
	}
}

func (h *TableHandler) GetStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	view, err := h.service.GetStatus(r.Context(), ps.ByName("id"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetStatus", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, view); err != nil {
		h.log.Error("failed to write success response", "handler", "GetStatus", "operation", "WriteSuccess", "error", err)
	}
}

func (h *TableHandler) PatchStatus(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var patch model.TableStatusPatch
	if err := httputil.DecodeJSON(r, &patch); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "PatchStatus", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	view, err := h.service.PatchStatus(r.Context(), &patch)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "PatchStatus", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, view); err != nil {
		h.log.Error("failed to write success response", "handler", "PatchStatus", "operation", "WriteSuccess", "error", err)
	}
}

func (h *TableHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.Delete(r.Context(), ps.ByName("id")); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Delete", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	httputil.WriteNoContent(w)
}

func (h *TableHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/tables/status", h.ListStatus)
	router.GET("/api/v1/tables/id/:id/status", h.GetStatus)
	router.PATCH("/api/v1/tables/status", h.PatchStatus)
	router.DELETE("/api/v1/tables/id/:id", h.Delete)
}
