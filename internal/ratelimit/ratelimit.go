package ratelimit

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/keithlinneman/celestialexplorer-web/internal/httpmw"
)

const (
	defaultPerSecond   = 10
	defaultBurst       = 30
	defaultTTL         = 5 * time.Minute
	defaultMaxVisitors = 100000
	defaultRetryAfter  = 30 * time.Second
)

// visitor is one client IP's bucket.
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
	// logged is reset when the entry is evicted and re-created
	logged bool
}

// IPLimiter holds per-IP token buckets and evicts idle ones in the background.
type IPLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	// atCapacity is set on the first rejection of a full table and cleared
	// once eviction makes room.
	atCapacity bool

	perSecond   rate.Limit
	burst       int
	ttl         time.Duration
	maxVisitors int
	retryAfter  time.Duration

	onFirstDenied func(ip string)
	onDenied      func(ip string)
	onCapacity    func()
	denied        http.Handler
}

type Option func(*IPLimiter)

// WithRate sets the refill rate and bucket size. WithRate(10, 50) allows 50
// requests at once, then 10 per second.
func WithRate(perSecond float64, burst int) Option {
	return func(l *IPLimiter) {
		l.perSecond = rate.Limit(perSecond)
		l.burst = burst
	}
}

// WithTTL sets how long an idle IP stays in the table.
func WithTTL(d time.Duration) Option {
	return func(l *IPLimiter) { l.ttl = d }
}

// WithMaxVisitors caps the table. New IPs are rejected while it is full;
// known IPs keep their buckets. Zero disables the cap.
func WithMaxVisitors(n int) Option {
	return func(l *IPLimiter) { l.maxVisitors = n }
}

// WithOnFirstDenied runs once per visitor entry on its first denial (logging).
func WithOnFirstDenied(fn func(ip string)) Option {
	return func(l *IPLimiter) { l.onFirstDenied = fn }
}

// WithOnDenied runs on every denial (metrics).
func WithOnDenied(fn func(ip string)) Option {
	return func(l *IPLimiter) { l.onDenied = fn }
}

// WithOnCapacity runs when the table first fills up.
func WithOnCapacity(fn func()) Option {
	return func(l *IPLimiter) { l.onCapacity = fn }
}

// WithDeniedHandler renders rejected requests. Retry-After is already set
// when it runs. The default writes a short plain text body.
func WithDeniedHandler(h http.Handler) Option {
	return func(l *IPLimiter) { l.denied = h }
}

// WithRetryAfter sets the Retry-After sent with 429 responses.
func WithRetryAfter(d time.Duration) Option {
	return func(l *IPLimiter) { l.retryAfter = d }
}

// New creates an IPLimiter. Its cleanup goroutine exits when ctx is done.
func New(ctx context.Context, opts ...Option) *IPLimiter {
	l := &IPLimiter{
		visitors:    make(map[string]*visitor),
		perSecond:   defaultPerSecond,
		burst:       defaultBurst,
		ttl:         defaultTTL,
		maxVisitors: defaultMaxVisitors,
		retryAfter:  defaultRetryAfter,
	}
	for _, o := range opts {
		o(l)
	}
	if l.denied == nil {
		l.denied = http.HandlerFunc(plainDenied)
	}
	go l.cleanup(ctx)
	return l
}

// allow reports whether ip may proceed. Hooks run without the lock held.
func (l *IPLimiter) allow(ip string) bool {
	l.mu.Lock()
	v, ok := l.visitors[ip]
	if !ok {
		if l.maxVisitors > 0 && len(l.visitors) >= l.maxVisitors {
			first := !l.atCapacity
			l.atCapacity = true
			l.mu.Unlock()
			if first && l.onCapacity != nil {
				l.onCapacity()
			}
			if l.onDenied != nil {
				l.onDenied(ip)
			}
			return false
		}
		v = &visitor{limiter: rate.NewLimiter(l.perSecond, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = time.Now()
	if v.limiter.Allow() {
		l.mu.Unlock()
		return true
	}
	first := !v.logged
	v.logged = true
	l.mu.Unlock()

	if first && l.onFirstDenied != nil {
		l.onFirstDenied(ip)
	}
	if l.onDenied != nil {
		l.onDenied(ip)
	}
	return false
}

// cleanup evicts visitors idle for longer than ttl, checking every ttl/2.
func (l *IPLimiter) cleanup(ctx context.Context) {
	ticker := time.NewTicker(l.ttl / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			l.evict(now)
		}
	}
}

func (l *IPLimiter) evict(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for ip, v := range l.visitors {
		if now.Sub(v.lastSeen) > l.ttl {
			delete(l.visitors, ip)
		}
	}
	if l.maxVisitors <= 0 || len(l.visitors) < l.maxVisitors {
		l.atCapacity = false
	}
}

// Len is the number of tracked IPs.
func (l *IPLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.visitors)
}

// Middleware answers 429 for clients over their limit. It keys on the IP
// resolved by httpmw.ClientIPWithOptions, so it must run inside that.
func (l *IPLimiter) Middleware(next http.Handler) http.Handler {
	retryAfter := strconv.Itoa(int(l.retryAfter / time.Second))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.allow(httpmw.ClientIPFromContext(r.Context())) {
			w.Header().Set("Retry-After", retryAfter)
			l.denied.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// plainDenied gives no detail about limits or refill timing.
func plainDenied(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusTooManyRequests)
	_, _ = w.Write([]byte("too many requests\n"))
}
