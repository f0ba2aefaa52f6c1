package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/weatherdesk/weatherdesk/internal/api/models"
	"github.com/weatherdesk/weatherdesk/internal/api/response"
	"github.com/weatherdesk/weatherdesk/internal/weather"
)

// WeatherHandler handles the JSON weather endpoint.
type WeatherHandler struct {
	service WeatherService
}

// NewWeatherHandler creates a new WeatherHandler.
func NewWeatherHandler(service WeatherService) *WeatherHandler {
	return &WeatherHandler{service: service}
}

// GetWeather handles GET /v1/weather?q=&aqi= - current conditions as JSON.
func (h *WeatherHandler) GetWeather(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	aqi := weather.AqiChoice(query.Get("aqi"))
	if aqi == "" {
		aqi = weather.AqiNo
	}

	result, err := h.service.Lookup(r.Context(), weather.Query{City: query.Get("q"), AQI: aqi})
	if err != nil {
		var fetchErr *weather.FetchError
		var parseErr *weather.ParseError
		switch {
		case errors.Is(err, weather.ErrValidation):
			response.Invalid(w, r, weather.ValidationMessage,
				models.FieldError{Field: "q", Message: weather.ValidationMessage, Code: "REQUIRED"})
		case errors.As(err, &fetchErr):
			response.Problem(w, r, http.StatusBadGateway, upstreamDetail(fetchErr))
		case errors.As(err, &parseErr):
			response.Problem(w, r, http.StatusBadGateway, "weather provider returned an unreadable response")
		default:
			response.Problem(w, r, http.StatusInternalServerError, "an unexpected error occurred")
		}
		return
	}

	response.JSON(w, r, http.StatusOK, result)
}

// upstreamDetail describes a failed fetch without echoing the underlying
// error, which may carry request details.
func upstreamDetail(err *weather.FetchError) string {
	if err.StatusCode != 0 {
		return fmt.Sprintf("weather provider unavailable (status %d)", err.StatusCode)
	}
	return "weather provider unavailable"
}
