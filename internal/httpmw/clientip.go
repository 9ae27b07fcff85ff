package httpmw

import (
	"context"
	"net"
	"net/http"
	"net/netip"
	"strings"
)

type clientIPKey struct{}

// ClientIPOptions configures client IP extraction behavior.
type ClientIPOptions struct {
	// TrustedHops is the number of reverse proxies between the client and
	// this server. 0 ignores X-Forwarded-For, 1 takes the rightmost entry
	// (single load balancer), 2 the second from the end (CDN + LB), etc.
	TrustedHops int
}

// ClientIP stores the client address on the context, trusting no proxies.
func ClientIP(next http.Handler) http.Handler {
	return ClientIPWithOptions(ClientIPOptions{})(next)
}

// ClientIPWithOptions stores the client address on the context.
func ClientIPWithOptions(opts ClientIPOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := extractRealClientAddr(r, opts.TrustedHops)
			next.ServeHTTP(w, r.WithContext(WithClientIP(r.Context(), ip)))
		})
	}
}

// extractRealClientAddr returns the client address for r. Forwarded headers
// are only honoured when the peer is a private address and trustedHops > 0;
// otherwise they are deleted so nothing downstream can trust them.
func extractRealClientAddr(r *http.Request, trustedHops int) string {
	if r.RemoteAddr == "" {
		return "0.0.0.0"
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	peer, err := netip.ParseAddr(host)
	if err != nil {
		return "0.0.0.0"
	}

	if !peer.IsPrivate() || trustedHops <= 0 {
		stripForwarded(r)
		return host
	}

	xf := r.Header.Get("X-Forwarded-For")
	if xf == "" {
		return host
	}
	parts := strings.Split(xf, ",")
	idx := len(parts) - trustedHops
	if idx < 0 {
		// fewer entries than proxies: misconfiguration or spoofing, fail closed
		stripForwarded(r)
		return host
	}
	candidate := strings.TrimSpace(parts[idx])
	if _, err := netip.ParseAddr(candidate); err != nil {
		return host
	}
	return candidate
}

func stripForwarded(r *http.Request) {
	r.Header.Del("X-Forwarded-For")
	r.Header.Del("X-Forwarded-Proto")
}

func ClientIPFromContext(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPKey{}).(string)
	return ip
}

func WithClientIP(ctx context.Context, ip string) context.Context {
	if ip == "" {
		return ctx
	}
	return context.WithValue(ctx, clientIPKey{}, ip)
}
