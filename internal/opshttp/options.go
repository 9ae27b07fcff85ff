package opshttp

import (
	"net/http"

	"github.com/keithlinneman/celestialexplorer-web/internal/health"
)

const DefaultPort = 9000

type Options struct {
	Port        int
	Metrics     http.Handler
	EnablePprof bool
	Health      health.Probe
	Readiness   health.Probe

	UseRecoverMW bool
	OnPanic      func() // e.g. metrics.IncHTTPPanic
}
