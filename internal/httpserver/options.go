package httpserver

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/keithlinneman/celestialexplorer-web/internal/health"
	"github.com/keithlinneman/celestialexplorer-web/internal/httpmw"
	"github.com/keithlinneman/celestialexplorer-web/internal/log"
)

var ErrInvalidOptions = errors.New("invalid httpserver options")

const (
	DefaultPort = 8080

	// The site only answers GET and HEAD; any body is suspect.
	DefaultMaxBodyBytes = 1024
)

// RouteRegistrar mounts routes on the router. The site registrar goes last
// since it installs the NotFound fallback.
type RouteRegistrar interface {
	RegisterRoutes(r chi.Router)
}

type Options struct {
	Logger       log.Logger
	Port         int
	MaxBodyBytes int64

	UseRecoverMW bool
	OnPanic      func()

	MetricsMW   func(http.Handler) http.Handler
	RateLimitMW func(http.Handler) http.Handler

	ClientIPOpts httpmw.ClientIPOptions
	ContentInfo  httpmw.ContentInfo

	// Health and Readiness are also exposed on the site listener for load
	// balancer checks. nil skips the route.
	Health    health.Probe
	Readiness health.Probe

	Routes []RouteRegistrar
}

func (o *Options) setDefaults() {
	if o.Logger == nil {
		o.Logger = log.Nop()
	}
	if o.Port == 0 {
		o.Port = DefaultPort
	}
	if o.MaxBodyBytes == 0 {
		o.MaxBodyBytes = DefaultMaxBodyBytes
	}
}

func (o *Options) validate() error {
	if o.Port < 1 || o.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrInvalidOptions, o.Port)
	}
	if o.MaxBodyBytes < 0 {
		return fmt.Errorf("%w: MaxBodyBytes is negative", ErrInvalidOptions)
	}
	for i, rr := range o.Routes {
		if rr == nil {
			return fmt.Errorf("%w: Routes[%d] is nil", ErrInvalidOptions, i)
		}
	}
	return nil
}
