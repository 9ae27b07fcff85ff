package httpmw

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWithRequestID_RoundTrip(t *testing.T) {
	if got := RequestIDFromContext(WithRequestID(context.Background(), "id-123")); got != "id-123" {
		t.Fatalf("RequestIDFromContext = %q", got)
	}
	if got := RequestIDFromContext(WithRequestID(context.Background(), "")); got != "" {
		t.Fatalf("empty id stored: %q", got)
	}
	if got := RequestIDFromContext(context.Background()); got != "" {
		t.Fatalf("bare context = %q", got)
	}
}

func serveRequestID(header, incoming string) (ctxID, respID string) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctxID = RequestIDFromContext(r.Context())
	})
	name := header
	if name == "" {
		name = "X-Request-Id"
	}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	if incoming != "" {
		req.Header.Set(name, incoming)
	}
	RequestID(header)(handler).ServeHTTP(rec, req)
	return ctxID, rec.Header().Get(name)
}

func TestRequestID_Propagates(t *testing.T) {
	tests := []struct {
		header string
		id     string
	}{
		{"X-Request-Id", "upstream-id-abc"},
		{"X-Correlation-Id", "corr.999_A"},
		{"", "default-header-test"},
		{"X-Request-Id", strings.Repeat("a", maxRequestIDLen)},
	}
	for _, tt := range tests {
		ctxID, respID := serveRequestID(tt.header, tt.id)
		if ctxID != tt.id || respID != tt.id {
			t.Errorf("header %q id %q: ctx = %q resp = %q", tt.header, tt.id, ctxID, respID)
		}
	}
}

func TestRequestID_ReplacesInvalid(t *testing.T) {
	for _, id := range []string{
		"",
		"has space",
		"evil\r\nX-Injected: 1",
		"<script>",
		strings.Repeat("a", maxRequestIDLen+1),
	} {
		ctxID, respID := serveRequestID("X-Request-Id", id)
		if ctxID == id || len(ctxID) != 32 || respID != ctxID {
			t.Errorf("incoming %q: ctx = %q resp = %q", id, ctxID, respID)
		}
	}
}

func TestRequestID_UniquePerRequest(t *testing.T) {
	ids := make(map[string]bool)
	for i := 0; i < 100; i++ {
		_, id := serveRequestID("", "")
		if ids[id] {
			t.Fatalf("duplicate request ID generated: %q on iteration %d", id, i)
		}
		ids[id] = true
	}
}
