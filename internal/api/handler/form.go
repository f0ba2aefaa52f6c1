// Package handler provides HTTP handlers for the weatherdesk server.
package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/weatherdesk/weatherdesk/internal/api/middleware"
	"github.com/weatherdesk/weatherdesk/internal/render"
	"github.com/weatherdesk/weatherdesk/internal/weather"
)

// maxFormBytes caps the size of a form submission body.
const maxFormBytes = 64 << 10

// WeatherService performs a weather lookup and renders the result.
type WeatherService interface {
	Lookup(ctx context.Context, q weather.Query) (weather.DisplayResult, error)
}

// DisplaySource exposes the current rendered containers.
type DisplaySource interface {
	Snapshot() render.Snapshot
}

// FormHandler serves the weather form page and its submissions.
type FormHandler struct {
	service WeatherService
	display DisplaySource
	logger  zerolog.Logger
}

// NewFormHandler creates a new FormHandler.
func NewFormHandler(service WeatherService, display DisplaySource, logger zerolog.Logger) *FormHandler {
	return &FormHandler{
		service: service,
		display: display,
		logger:  logger,
	}
}

// Page handles GET / - the form and the current weather containers.
func (h *FormHandler) Page(w http.ResponseWriter, r *http.Request) {
	h.writePage(w, r, http.StatusOK, render.PageData{})
}

// Submit handles POST /weather - a form submission.
//
// Blank locations re-render the page with a blocking alert. Everything else
// redirects back to the page, whether or not the lookup succeeded; failed
// lookups leave the containers as they were.
func (h *FormHandler) Submit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)

	q := weather.Query{
		City: r.PostFormValue("location"),
		AQI:  weather.AqiChoice(r.PostFormValue("aqiChoice")),
	}

	_, err := h.service.Lookup(r.Context(), q)
	if errors.Is(err, weather.ErrValidation) {
		h.writePage(w, r, http.StatusUnprocessableEntity, render.PageData{
			Location:   q.City,
			IncludeAQI: q.AQI.Includes(),
			Alert:      weather.ValidationMessage,
		})
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *FormHandler) writePage(w http.ResponseWriter, r *http.Request, status int, data render.PageData) {
	data.Display = h.display.Snapshot()

	if requestID := middleware.GetRequestID(r.Context()); requestID != "" {
		w.Header().Set("X-Request-Id", requestID)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)

	if err := render.WritePage(w, data); err != nil {
		h.logger.Error().
			Err(err).
			Str("request_id", middleware.GetRequestID(r.Context())).
			Msg("failed to write page")
	}
}
