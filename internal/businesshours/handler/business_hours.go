package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"

	"tablebook/internal/businesshours/service"
	"tablebook/internal/slots"
	apperrors "tablebook/pkg/errors"
	httputil "tablebook/pkg/http"
	"tablebook/pkg/logger"
	"tablebook/pkg/model"
)

type BusinessHoursHandler struct {
	service service.BusinessHoursService
	log     *logger.Logger
}

func NewBusinessHoursHandler(service service.BusinessHoursService, log *logger.Logger) *BusinessHoursHandler {
	return &BusinessHoursHandler{
		service: service,
		log:     log,
	}
}

// SlotsResponse lists a day's slots with the first one still bookable.
type SlotsResponse struct {
	Date           string       `json:"date"`
	Closed         bool         `json:"closed"`
	FirstAvailable string       `json:"firstAvailable,omitempty"`
	Slots          []slots.Slot `json:"slots"`
}

func (h *BusinessHoursHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	week, err := h.service.List(r.Context())
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "List", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, week); err != nil {
		h.log.Error("failed to write success response", "handler", "List", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BusinessHoursHandler) GetByDay(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	day, err := parseWeekday(ps.ByName("day"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetByDay", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	hours, err := h.service.ForWeekday(r.Context(), day)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetByDay", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, hours); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByDay", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BusinessHoursHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	day, err := parseWeekday(ps.ByName("day"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Update", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	var hours model.BusinessHours
	if err := httputil.DecodeJSON(r, &hours); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Update", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := h.service.Update(r.Context(), day, &hours); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Update", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, hours); err != nil {
		h.log.Error("failed to write success response", "handler", "Update", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BusinessHoursHandler) Slots(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	date, err := httputil.RequiredQuery(r, "date")
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Slots", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	out, err := h.service.Slots(r.Context(), date)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Slots", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	resp := SlotsResponse{Date: date, Slots: out}
	if len(out) == 1 && out[0].IsClosedMarker() {
		resp.Closed = true
	}
	if first, ok := slots.FirstAvailable(out); ok {
		resp.FirstAvailable = first.Time
	}

	if err := httputil.WriteSuccess(w, resp); err != nil {
		h.log.Error("failed to write success response", "handler", "Slots", "operation", "WriteSuccess", "error", err)
	}
}

// parseWeekday accepts 0 (Sunday) to 6 or an English day name.
func parseWeekday(s string) (time.Weekday, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if n, err := strconv.Atoi(s); err == nil {
		if n >= 0 && n <= 6 {
			return time.Weekday(n), nil
		}
	} else {
		for d := time.Sunday; d <= time.Saturday; d++ {
			if strings.ToLower(d.String()) == s {
				return d, nil
			}
		}
	}
	return 0, apperrors.InvalidInput(fmt.Sprintf("invalid day parameter: %s", s))
}

func (h *BusinessHoursHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/business-hours", h.List)
	router.GET("/api/v1/business-hours/:day", h.GetByDay)
	router.PUT("/api/v1/business-hours/:day", h.Update)
	router.GET("/api/v1/slots", h.Slots)
}
