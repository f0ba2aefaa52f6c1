package models

import (
	"encoding/json"
	"net/http"
)

// Problem is an RFC 7807 problem document. Every /v1 error is served as
// application/problem+json.
type Problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`

	// TraceID echoes the request ID so a report can be matched to logs.
	TraceID string `json:"traceId"`

	Errors []FieldError `json:"errors,omitempty"`
}

// FieldError describes one invalid request parameter.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Problem type URIs.
const (
	ProblemTypeValidation      = "https://weatherdesk.dev/problems/validation-error"
	ProblemTypeUnauthorized    = "https://weatherdesk.dev/problems/unauthorized"
	ProblemTypeTLSRequired     = "https://weatherdesk.dev/problems/tls-required"
	ProblemTypeNotFound        = "https://weatherdesk.dev/problems/not-found"
	ProblemTypeTooManyRequests = "https://weatherdesk.dev/problems/too-many-requests"
	ProblemTypeInternal        = "https://weatherdesk.dev/problems/internal-error"
	ProblemTypeUpstream        = "https://weatherdesk.dev/problems/upstream-error"
	ProblemTypeUnavailable     = "https://weatherdesk.dev/problems/service-unavailable"

	// ProblemTypeBlank is the RFC 7807 default for statuses without a
	// dedicated type.
	ProblemTypeBlank = "about:blank"
)

type problemKind struct {
	typ   string
	title string
}

var problemKinds = map[int]problemKind{
	http.StatusBadRequest:          {ProblemTypeValidation, "Validation error"},
	http.StatusUnauthorized:        {ProblemTypeUnauthorized, "Unauthorized"},
	http.StatusForbidden:           {ProblemTypeTLSRequired, "TLS required"},
	http.StatusNotFound:            {ProblemTypeNotFound, "Not found"},
	http.StatusTooManyRequests:     {ProblemTypeTooManyRequests, "Too many requests"},
	http.StatusInternalServerError: {ProblemTypeInternal, "Internal server error"},
	http.StatusBadGateway:          {ProblemTypeUpstream, "Upstream error"},
	http.StatusServiceUnavailable:  {ProblemTypeUnavailable, "Service unavailable"},
}

// NewProblem returns the problem for status. Statuses without a dedicated
// type get about:blank and the standard status text as title.
func NewProblem(status int, traceID, detail string) *Problem {
	kind, ok := problemKinds[status]
	if !ok {
		kind = problemKind{typ: ProblemTypeBlank, title: http.StatusText(status)}
	}
	return &Problem{
		Type:    kind.typ,
		Title:   kind.title,
		Status:  status,
		Detail:  detail,
		TraceID: traceID,
	}
}

// Write sends the problem with its status code.
func (p *Problem) Write(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/problem+json")
	if p.TraceID != "" {
		w.Header().Set("X-Request-Id", p.TraceID)
	}
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}
