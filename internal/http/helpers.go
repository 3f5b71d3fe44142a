package http

import (
	"errors"
	"net/http"
	"strings"

	"spendlog/internal/core"
	applog "spendlog/internal/log"
)

// sanitizeInput removes control characters other than tab and newlines.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}

// writeServiceError maps a service error to its response. Validation and
// not-found errors are the client's; anything else is logged once here and
// answered with a generic 500.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var verr *core.ValidationError
	switch {
	case errors.As(err, &verr):
		ValidationFailed(verr).Write(w)
	case errors.Is(err, core.ErrNotFound):
		NotFoundError("expense not found").Write(w)
	default:
		applog.NewStructuredLogger(applog.FromContext(r.Context())).
			LogError(r.Context(), "Request failed", err, applog.ErrorTypeDatabase, op,
				applog.NewFields().WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.UserAgent()))
		InternalServerError("internal server error").Write(w)
	}
}

// writeBodyError answers a body that could not be read or decoded.
func writeBodyError(w http.ResponseWriter, err error) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		ErrorResponse(http.StatusRequestEntityTooLarge, "request body too large").Write(w)
		return
	}
	if errors.Is(err, errBodyNotObject) {
		BadRequestError(err.Error()).Write(w)
		return
	}
	BadRequestError("invalid request body").Write(w)
}
