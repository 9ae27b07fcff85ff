package httpmw

import (
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// AnnotateHTTPRoute sets http.route and renames the request span to
// "<METHOD> <pattern>" once chi has matched the route.
func AnnotateHTTPRoute(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r)

		span := trace.SpanFromContext(r.Context())
		if !span.IsRecording() {
			return
		}
		pattern := routePattern(r)
		span.SetAttributes(attribute.String("http.route", pattern))
		span.SetName(r.Method + " " + pattern)
	})
}
