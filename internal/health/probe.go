package health

import (
	"context"
	"sync/atomic"

	"github.com/keithlinneman/celestialexplorer-web/internal/xerrors"
)

// Probe answers one health question when a health endpoint is hit.
// A nil error means healthy; the error text is shown as the reason.
type Probe interface{ Check(context.Context) error }

type CheckFunc func(context.Context) error

func (f CheckFunc) Check(ctx context.Context) error { return f(ctx) }

// Err adapts a context-free status func, such as content.Manager.ReadyErr.
func Err(fn func() error) CheckFunc {
	return func(context.Context) error { return fn() }
}

// Named prefixes failures with name so /readyz says which dependency is
// down. The cause stays in the chain for errors.Is.
func Named(name string, p Probe) CheckFunc {
	return func(ctx context.Context) error {
		if err := p.Check(ctx); err != nil {
			return xerrors.Wrap(err, name)
		}
		return nil
	}
}

// Fixed always passes, or always fails with reason ("unhealthy" if empty).
func Fixed(ok bool, reason string) CheckFunc {
	if ok {
		return func(context.Context) error { return nil }
	}
	if reason == "" {
		reason = "unhealthy"
	}
	err := xerrors.New(reason)
	return func(context.Context) error { return err }
}

// All reports the first failing probe. Probes after it are not evaluated
// and nil entries are skipped.
func All(ps ...Probe) CheckFunc {
	ps = compact(ps)
	return func(ctx context.Context) error {
		for _, p := range ps {
			if err := p.Check(ctx); err != nil {
				return err
			}
		}
		return nil
	}
}

// Any passes on the first healthy probe. When none pass it reports the
// last failure.
func Any(ps ...Probe) CheckFunc {
	ps = compact(ps)
	return func(ctx context.Context) error {
		if len(ps) == 0 {
			return xerrors.New("no healthy probes")
		}
		var err error
		for _, p := range ps {
			if err = p.Check(ctx); err == nil {
				return nil
			}
		}
		return err
	}
}

func compact(ps []Probe) []Probe {
	out := make([]Probe, 0, len(ps))
	for _, p := range ps {
		if p != nil {
			out = append(out, p)
		}
	}
	return out
}

// ShutdownGate fails readiness once shutdown starts so the load balancer
// stops routing new visitors here while in-flight pages finish.
type ShutdownGate struct {
	// nil while open, otherwise the reason readiness reports
	reason atomic.Pointer[string]
}

// Set closes the gate. An empty reason reads as "draining".
func (g *ShutdownGate) Set(reason string) {
	if reason == "" {
		reason = "draining"
	}
	g.reason.Store(&reason)
}

// Clear reopens the gate.
func (g *ShutdownGate) Clear() { g.reason.Store(nil) }

func (g *ShutdownGate) Probe() CheckFunc {
	return func(context.Context) error {
		if r := g.reason.Load(); r != nil {
			return xerrors.New(*r)
		}
		return nil
	}
}
