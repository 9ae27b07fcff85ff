package httpmw

import (
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ContentInfo describes the content snapshot being served.
type ContentInfo interface {
	ContentVersion() string
	ContentHash() string
	ContentSource() string
}

const shortHashLen = 12

// ContentHeaders adds X-Content-Bundle-Version, X-Content-Hash (short form)
// and X-Content-Source to every response and the same values to the span.
// Values are read per request so hot swaps show up immediately.
func ContentHeaders(info ContentInfo) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if info == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			v, h, src := info.ContentVersion(), info.ContentHash(), info.ContentSource()

			hdr := w.Header()
			if v != "" {
				hdr.Set("X-Content-Bundle-Version", v)
			}
			if h != "" {
				short := h
				if len(short) > shortHashLen {
					short = short[:shortHashLen]
				}
				hdr.Set("X-Content-Hash", short)
			}
			if src != "" {
				hdr.Set("X-Content-Source", src)
			}

			if span := trace.SpanFromContext(r.Context()); span.IsRecording() {
				span.SetAttributes(
					attribute.String("content.version", v),
					attribute.String("content.hash", h),
					attribute.String("content.source", src),
				)
			}
			next.ServeHTTP(w, r)
		})
	}
}
