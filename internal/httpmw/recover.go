package httpmw

import (
	"net/http"
	"runtime/debug"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/keithlinneman/celestialexplorer-web/internal/log"
	"github.com/keithlinneman/celestialexplorer-web/internal/xerrors"
)

// Recover turns a handler panic into a logged error and a 500. onPanic, when
// set, is called after logging (metrics hook). http.ErrAbortHandler is
// re-panicked so net/http can abort the connection.
func Recover(base log.Logger, onPanic func()) func(http.Handler) http.Handler {
	if base == nil {
		base = log.Nop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				v := recover()
				if v == nil {
					return
				}
				if v == http.ErrAbortHandler {
					panic(v)
				}

				var err error
				if e, ok := v.(error); ok {
					err = xerrors.Wrap(e, "panic")
				} else {
					err = xerrors.Newf("panic: %v", v)
				}

				ctx := r.Context()
				if span := trace.SpanFromContext(ctx); span.IsRecording() {
					span.RecordError(err)
					span.SetStatus(codes.Error, "panic")
				}

				base.With(
					"http.request.method", r.Method,
					"url.path", r.URL.Path,
					"request_id", RequestIDFromContext(ctx),
				).Error(ctx, err, "httpserver panic recovered", "panic.stack", string(debug.Stack()))

				if onPanic != nil {
					onPanic()
				}

				// headers may already be on the wire; nothing better to do then
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			}()

			next.ServeHTTP(w, r)
		})
	}
}

