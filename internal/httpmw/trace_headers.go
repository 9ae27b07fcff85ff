package httpmw

import (
	"net/http"

	"go.opentelemetry.io/otel/trace"
)

// TraceResponseHeaders puts the trace and span ids on the response so a
// visitor's page can be found in the trace backend. Empty names default to
// X-Trace-Id and X-Span-Id.
func TraceResponseHeaders(traceHeader, spanHeader string) func(http.Handler) http.Handler {
	if traceHeader == "" {
		traceHeader = "X-Trace-Id"
	}
	if spanHeader == "" {
		spanHeader = "X-Span-Id"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if sc, ok := exportedSpan(r); ok {
				w.Header().Set(traceHeader, sc.TraceID().String())
				w.Header().Set(spanHeader, sc.SpanID().String())
			}
			next.ServeHTTP(w, r)
		})
	}
}

// exportedSpan returns the server span of r when it will reach the exporter:
// started locally and sampled. Untraced paths carry at most a remote parent
// and a disabled tracer never samples, so neither is echoed.
func exportedSpan(r *http.Request) (trace.SpanContext, bool) {
	sc := trace.SpanContextFromContext(r.Context())
	if !sc.IsValid() || sc.IsRemote() || !sc.IsSampled() {
		return trace.SpanContext{}, false
	}
	return sc, true
}
