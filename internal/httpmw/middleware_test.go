package httpmw

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/trace"
)

func noop() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
}

// ---------------------------------------------------------------------------
// Chain
// ---------------------------------------------------------------------------

func TestChain_OrderOuterToInner(t *testing.T) {
	var order []string
	mw := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name+"-before")
				next.ServeHTTP(w, r)
				order = append(order, name+"-after")
			})
		}
	}
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	})

	Chain(handler, mw("A"), nil, mw("B")).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", http.NoBody))

	want := []string{"A-before", "B-before", "handler", "B-after", "A-after"}
	if !slices.Equal(order, want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
}

func TestChain_NoMiddleware(t *testing.T) {
	called := false
	Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })).
		ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", http.NoBody))
	if !called {
		t.Fatal("handler not called")
	}
}

// ---------------------------------------------------------------------------
// SecurityHeaders
// ---------------------------------------------------------------------------

func TestSecurityHeaders(t *testing.T) {
	var seenInHandler string
	h := SecurityHeaders(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenInHandler = w.Header().Get("X-Frame-Options")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", http.NoBody))

	if seenInHandler != "DENY" {
		t.Fatal("headers should be set before the handler runs")
	}
	for _, kv := range securityHeaders {
		if got := rec.Header().Get(kv[0]); got != kv[1] {
			t.Errorf("%s = %q, want %q", kv[0], got, kv[1])
		}
	}

	csp := rec.Header().Get("Content-Security-Policy")
	for _, d := range []string{
		"default-src 'self'", "script-src 'none'", "style-src 'self'", "img-src 'self'",
		"frame-ancestors 'none'", "object-src 'none'", "base-uri 'self'",
	} {
		if !strings.Contains(csp, d) {
			t.Errorf("CSP missing %q: %s", d, csp)
		}
	}
	if strings.Contains(csp, "unsafe-inline") || strings.Contains(csp, "unsafe-eval") {
		t.Errorf("CSP allows unsafe sources: %s", csp)
	}
}

// ---------------------------------------------------------------------------
// TraceResponseHeaders
// ---------------------------------------------------------------------------

func validSpanContext() context.Context {
	return spanContextWith(trace.FlagsSampled, false)
}

func spanContextWith(flags trace.TraceFlags, remote bool) context.Context {
	traceID, _ := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	spanID, _ := trace.SpanIDFromHex("0102030405060708")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: flags, Remote: remote})
	return trace.ContextWithSpanContext(context.Background(), sc)
}

func TestTraceResponseHeaders(t *testing.T) {
	tests := []struct {
		name                 string
		ctx                  context.Context
		traceHdr, spanHdr    string
		wantTrace, wantSpan  string
		headerTrace, hdrSpan string
	}{
		{"valid span default names", validSpanContext(), "", "", "0102030405060708090a0b0c0d0e0f10", "0102030405060708", "X-Trace-Id", "X-Span-Id"},
		{"valid span custom names", validSpanContext(), "X-T", "X-S", "0102030405060708090a0b0c0d0e0f10", "0102030405060708", "X-T", "X-S"},
		{"no span", context.Background(), "", "", "", "", "X-Trace-Id", "X-Span-Id"},
		{"unsampled span", spanContextWith(0, false), "", "", "", "", "X-Trace-Id", "X-Span-Id"},
		{"remote parent only", spanContextWith(trace.FlagsSampled, true), "", "", "", "", "X-Trace-Id", "X-Span-Id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/", http.NoBody).WithContext(tt.ctx)
			TraceResponseHeaders(tt.traceHdr, tt.spanHdr)(noop()).ServeHTTP(rec, req)
			if got := rec.Header().Get(tt.headerTrace); got != tt.wantTrace {
				t.Errorf("%s = %q, want %q", tt.headerTrace, got, tt.wantTrace)
			}
			if got := rec.Header().Get(tt.hdrSpan); got != tt.wantSpan {
				t.Errorf("%s = %q, want %q", tt.hdrSpan, got, tt.wantSpan)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// MaxBody
// ---------------------------------------------------------------------------

func TestMaxBody(t *testing.T) {
	const limit = 16
	handler := MaxBody(limit)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			var maxErr *http.MaxBytesError
			if !errors.As(err, &maxErr) {
				t.Errorf("error type = %T, want *http.MaxBytesError", err)
			}
			http.Error(w, "too large", http.StatusRequestEntityTooLarge)
			return
		}
		_, _ = w.Write(body)
	}))

	tests := []struct {
		name string
		body string
		want int
	}{
		{"empty", "", http.StatusOK},
		{"under", "short", http.StatusOK},
		{"exactly at limit", strings.Repeat("x", limit), http.StatusOK},
		{"over", strings.Repeat("x", limit+1), http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body)))
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}
