// Package httpserver builds and runs the public site listener.
package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/keithlinneman/celestialexplorer-web/internal/health"
	"github.com/keithlinneman/celestialexplorer-web/internal/httpmw"
	"github.com/keithlinneman/celestialexplorer-web/internal/xerrors"
)

// Server timeouts. Pages are small and rendered in memory.
const (
	DefaultReadHeaderTimeout = 5 * time.Second
	DefaultReadTimeout       = 10 * time.Second
	DefaultWriteTimeout      = 10 * time.Second
	DefaultIdleTimeout       = 60 * time.Second
	DefaultMaxHeaderBytes    = 1 << 20
	shutdownTimeout          = 5 * time.Second
)

// untracedExts are static asset extensions that never get a span.
var untracedExts = map[string]bool{
	".css": true, ".svg": true, ".ico": true, ".png": true, ".webp": true,
	".woff": true, ".woff2": true, ".txt": true, ".map": true,
}

func shouldTrace(p string) bool {
	if strings.HasPrefix(p, "/-/") {
		return false
	}
	return !untracedExts[strings.ToLower(path.Ext(p))]
}

// NewHandler builds the router and wraps it in the middleware chain,
// outermost first.
func NewHandler(opts Options) (http.Handler, error) {
	opts.setDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Compress(5, "text/html", "text/css", "text/plain", "image/svg+xml"),
		httpmw.AnnotateHTTPRoute,
		httpmw.AccessLog(),
		httpmw.MaxBody(opts.MaxBodyBytes),
	)

	if opts.Health != nil {
		r.Get("/-/healthy", health.HealthzHandler(opts.Health))
	}
	if opts.Readiness != nil {
		r.Get("/-/ready", health.ReadyzHandler(opts.Readiness))
	}
	for _, rr := range opts.Routes {
		rr.RegisterRoutes(r)
	}

	traced := otelhttp.NewMiddleware("http.server",
		otelhttp.WithFilter(func(r *http.Request) bool { return shouldTrace(r.URL.Path) }),
		// AnnotateHTTPRoute renames the span to the route pattern
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string { return r.Method }),
		otelhttp.WithPublicEndpointFn(func(*http.Request) bool { return true }),
	)

	var recoverMW func(http.Handler) http.Handler
	if opts.UseRecoverMW {
		recoverMW = httpmw.Recover(opts.Logger, opts.OnPanic)
	}
	var contentMW func(http.Handler) http.Handler
	if opts.ContentInfo != nil {
		contentMW = httpmw.ContentHeaders(opts.ContentInfo)
	}

	return httpmw.Chain(r,
		httpmw.SecurityHeaders,
		recoverMW,
		httpmw.RequestID("X-Request-Id"),
		httpmw.ClientIPWithOptions(opts.ClientIPOpts),
		opts.RateLimitMW,
		traced,
		httpmw.TraceResponseHeaders("X-Trace-Id", "X-Span-Id"),
		contentMW,
		opts.MetricsMW,
		httpmw.WithLogger(opts.Logger),
	), nil
}

func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: DefaultReadHeaderTimeout,
		ReadTimeout:       DefaultReadTimeout,
		WriteTimeout:      DefaultWriteTimeout,
		IdleTimeout:       DefaultIdleTimeout,
		MaxHeaderBytes:    DefaultMaxHeaderBytes,
	}
}

// Start listens and serves in the background. The returned stop drains
// in-flight requests and is safe to call more than once.
func Start(ctx context.Context, opts Options) (func(context.Context) error, error) {
	handler, err := NewHandler(opts)
	if err != nil {
		return nil, err
	}
	opts.setDefaults()
	L := opts.Logger
	addr := fmt.Sprintf(":%d", opts.Port)
	srv := NewServer(addr, handler)

	ln, err := (&net.ListenConfig{}).Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, xerrors.Wrapf(err, "listen on addr=%v", addr)
	}

	go func() {
		L.Info(ctx, "http server listening", "addr", addr)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			L.Error(ctx, err, "http server error")
		}
	}()

	var once sync.Once
	var stopErr error
	stop := func(sctx context.Context) error {
		once.Do(func() {
			L.Info(sctx, "http server shutting down")
			c, cancel := context.WithTimeout(sctx, shutdownTimeout)
			defer cancel()
			stopErr = srv.Shutdown(c)
		})
		return stopErr
	}
	return stop, nil
}
