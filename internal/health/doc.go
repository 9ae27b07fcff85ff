// Package health holds the probes behind the liveness and readiness
// endpoints.
//
// Probes compose with [All] and [Any]. [ShutdownGate] fails readiness as
// soon as a drain starts so the load balancer stops routing before the
// listeners close.
package health
