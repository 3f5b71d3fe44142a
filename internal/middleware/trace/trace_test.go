package trace

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	applog "spendlog/internal/log"
)

func TestMiddlewareAssignsRequestID(t *testing.T) {
	var buf bytes.Buffer
	m := NewMiddleware(nil, applog.New(applog.Config{Format: "json", Output: &buf}))

	var seen string
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFrom(r)
		w.WriteHeader(http.StatusNotFound)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/expenses/x", nil))

	if !strings.HasPrefix(seen, "req_") {
		t.Fatalf("request id %q was not generated", seen)
	}
	if rr.Header().Get(HeaderRequestID) != seen {
		t.Errorf("response header %q, want %q", rr.Header().Get(HeaderRequestID), seen)
	}
	if !strings.Contains(buf.String(), `"status_code":404`) {
		t.Errorf("completion log missing status: %s", buf.String())
	}

	got := m.GetMetrics()
	if got.TotalRequests != 1 || got.ClientErrors != 1 || got.ServerErrors != 0 {
		t.Errorf("unexpected metrics %+v", got)
	}
}

func TestMiddlewareKeepsValidIncomingID(t *testing.T) {
	m := NewMiddleware(nil, applog.New(applog.Config{Output: &bytes.Buffer{}}))
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	for id, keep := range map[string]bool{
		"abc-123":                true,
		"has spaces":             false,
		strings.Repeat("x", 100): false,
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(HeaderRequestID, id)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if got := rr.Header().Get(HeaderRequestID) == id; got != keep {
			t.Errorf("id %q kept=%v, want %v", id, got, keep)
		}
	}
}
