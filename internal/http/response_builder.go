package http

import (
	"encoding/json"
	"io"
	"net/http"

	"spendlog/internal/core"
)

// ResponseBuilder assembles a response: status, headers and a JSON or raw
// body. Nothing is sent until Write.
type ResponseBuilder struct {
	statusCode  int
	headers     map[string]string
	payload     any
	raw         []byte
	contentType string
}

func NewResponse() *ResponseBuilder {
	return &ResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *ResponseBuilder) Status(code int) *ResponseBuilder {
	b.statusCode = code
	return b
}

func (b *ResponseBuilder) Header(name, value string) *ResponseBuilder {
	b.headers[name] = value
	return b
}

// JSON sets v as the body.
func (b *ResponseBuilder) JSON(v any) *ResponseBuilder {
	b.payload = v
	b.raw = nil
	return b
}

// Text sets a plain-text body.
func (b *ResponseBuilder) Text(s string) *ResponseBuilder {
	b.raw = []byte(s)
	b.payload = nil
	b.contentType = "text/plain; charset=utf-8"
	return b
}

func (b *ResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}

	switch {
	case b.payload != nil:
		body, err := json.Marshal(b.payload)
		if err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = io.WriteString(w, `{"error":"failed to encode response"}`)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(b.statusCode)
		_, _ = w.Write(append(body, '\n'))
	case b.raw != nil:
		w.Header().Set("Content-Type", b.contentType)
		w.WriteHeader(b.statusCode)
		_, _ = w.Write(b.raw)
	default:
		w.WriteHeader(b.statusCode)
	}
}

type errorBody struct {
	Error   string            `json:"error"`
	Details []core.FieldError `json:"details,omitempty"`
}

// ErrorResponse creates a JSON error response {error, details}.
func ErrorResponse(statusCode int, message string, details ...core.FieldError) *ResponseBuilder {
	return NewResponse().Status(statusCode).JSON(errorBody{Error: message, Details: details})
}

func BadRequestError(message string, details ...core.FieldError) *ResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message, details...)
}

func NotFoundError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

func InternalServerError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

func TooManyRequestsError() *ResponseBuilder {
	return ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, please try again later")
}

// ValidationFailed lists every violated field.
func ValidationFailed(verr *core.ValidationError) *ResponseBuilder {
	return BadRequestError("validation failed", verr.Details...)
}
