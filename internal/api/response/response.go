// Package response writes JSON and problem+json bodies for the /v1 API.
package response

import (
	"encoding/json"
	"net/http"

	"github.com/weatherdesk/weatherdesk/internal/api/middleware"
	"github.com/weatherdesk/weatherdesk/internal/api/models"
)

// JSON writes data as JSON with the given status, echoing the request ID.
// A nil data writes headers only.
func JSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	if requestID := middleware.GetRequestID(r.Context()); requestID != "" {
		w.Header().Set("X-Request-Id", requestID)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// Problem writes an RFC 7807 problem for status whose instance is the
// request path.
func Problem(w http.ResponseWriter, r *http.Request, status int, detail string) {
	write(w, r, models.NewProblem(status, middleware.GetRequestID(r.Context()), detail))
}

// Invalid writes a 400 problem listing the offending parameters.
func Invalid(w http.ResponseWriter, r *http.Request, detail string, fields ...models.FieldError) {
	p := models.NewProblem(http.StatusBadRequest, middleware.GetRequestID(r.Context()), detail)
	p.Errors = fields
	write(w, r, p)
}

func write(w http.ResponseWriter, r *http.Request, p *models.Problem) {
	p.Instance = r.URL.Path
	p.Write(w)
}
