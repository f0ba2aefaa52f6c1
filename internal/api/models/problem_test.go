package models_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weatherdesk/weatherdesk/internal/api/models"
)

func TestNewProblem_KnownStatuses(t *testing.T) {
	tests := []struct {
		status int
		typ    string
		title  string
	}{
		{http.StatusBadRequest, models.ProblemTypeValidation, "Validation error"},
		{http.StatusUnauthorized, models.ProblemTypeUnauthorized, "Unauthorized"},
		{http.StatusForbidden, models.ProblemTypeTLSRequired, "TLS required"},
		{http.StatusNotFound, models.ProblemTypeNotFound, "Not found"},
		{http.StatusTooManyRequests, models.ProblemTypeTooManyRequests, "Too many requests"},
		{http.StatusInternalServerError, models.ProblemTypeInternal, "Internal server error"},
		{http.StatusBadGateway, models.ProblemTypeUpstream, "Upstream error"},
		{http.StatusServiceUnavailable, models.ProblemTypeUnavailable, "Service unavailable"},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			p := models.NewProblem(tt.status, "req_1", "detail")
			assert.Equal(t, tt.typ, p.Type)
			assert.Equal(t, tt.title, p.Title)
			assert.Equal(t, tt.status, p.Status)
			assert.Equal(t, "detail", p.Detail)
			assert.Equal(t, "req_1", p.TraceID)
		})
	}
}

func TestNewProblem_UnknownStatusIsBlank(t *testing.T) {
	p := models.NewProblem(http.StatusTeapot, "req_1", "")

	assert.Equal(t, models.ProblemTypeBlank, p.Type)
	assert.Equal(t, "I'm a teapot", p.Title)
}

func TestProblem_Write(t *testing.T) {
	p := models.NewProblem(http.StatusBadRequest, "req_abc", "Please enter a location")
	p.Instance = "/v1/weather"
	p.Errors = []models.FieldError{{Field: "q", Message: "Please enter a location", Code: "REQUIRED"}}

	rec := httptest.NewRecorder()
	p.Write(rec)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "req_abc", rec.Header().Get("X-Request-Id"))

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	assert.Equal(t, models.ProblemTypeValidation, decoded["type"])
	assert.Equal(t, "/v1/weather", decoded["instance"])
	assert.Equal(t, "req_abc", decoded["traceId"])

	errs, ok := decoded["errors"].([]interface{})
	require.True(t, ok)
	require.Len(t, errs, 1)
	assert.Equal(t, "q", errs[0].(map[string]interface{})["field"])
}

func TestProblem_WriteOmitsEmptyFields(t *testing.T) {
	rec := httptest.NewRecorder()
	models.NewProblem(http.StatusNotFound, "", "").Write(rec)

	assert.Empty(t, rec.Header().Get("X-Request-Id"))

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	assert.NotContains(t, decoded, "detail")
	assert.NotContains(t, decoded, "instance")
	assert.NotContains(t, decoded, "errors")
	assert.Contains(t, decoded, "traceId")
}
