// Package cfg holds the server configuration. Every field is a flag with its
// default inline; FillFromEnv lets the environment supply anything the command
// line did not.
package cfg

import (
	"errors"
	"flag"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/keithlinneman/celestialexplorer-web/internal/log"
)

// EnvPrefix is prepended to upper-cased flag names, e.g. CELESTIAL_HTTP_PORT.
const EnvPrefix = "CELESTIAL_"

type App struct {
	LogJSON           bool
	LogLevel          string
	StacktraceLevel   string
	IncludeErrorLinks bool
	MaxErrorLinks     int

	HTTPPort         int
	AdminPort        int
	TrustedProxyHops int
	DrainPeriod      time.Duration
	RateLimitRPS     float64
	RateLimitBurst   int

	EnablePprof     bool
	EnablePyroscope bool
	EnableTracing   bool
	PyroServer      string
	PyroTenantID    string
	OTLPEndpoint    string
	TraceSample     float64

	EnableContentUpdates bool
	ContentSSMParam      string
	ContentS3Bucket      string
	ContentS3Prefix      string
	ContentSigningKeyARN string
	ContentPollInterval  time.Duration
}

// Register binds all config fields to fs with defaults inline.
func Register(fs *flag.FlagSet, c *App) {
	fs.BoolVar(&c.LogJSON, "log-json", true, "JSON logs (true) or logfmt (false)")
	fs.StringVar(&c.LogLevel, "log-level", "info", "debug|info|warn|error")
	fs.StringVar(&c.StacktraceLevel, "stacktrace-level", "error", "debug|info|warn|error")
	fs.BoolVar(&c.IncludeErrorLinks, "include-error-links", true, "include error call sites in log records")
	fs.IntVar(&c.MaxErrorLinks, "max-error-links", 5, "max error chain depth (1..64)")

	fs.IntVar(&c.HTTPPort, "http-port", 8080, "site listen TCP port (1..65535)")
	fs.IntVar(&c.AdminPort, "admin-port", 9000, "admin listen TCP port (1..65535)")
	fs.IntVar(&c.TrustedProxyHops, "trusted-proxy-hops", 1, "X-Forwarded-For hops to trust when resolving the client IP (0..10)")
	fs.DurationVar(&c.DrainPeriod, "drain-period", 5*time.Second, "time between failing readiness and closing listeners on shutdown")
	fs.Float64Var(&c.RateLimitRPS, "rate-limit-rps", 20, "per client IP requests per second")
	fs.IntVar(&c.RateLimitBurst, "rate-limit-burst", 40, "per client IP burst")

	fs.BoolVar(&c.EnablePprof, "enable-pprof", true, "expose pprof on the admin port")
	fs.BoolVar(&c.EnablePyroscope, "enable-pyroscope", false, "push profiles to -pyro-server")
	fs.BoolVar(&c.EnableTracing, "enable-tracing", false, "push OTLP traces to -otlp-endpoint")
	fs.StringVar(&c.PyroServer, "pyro-server", "", "pyroscope server url")
	fs.StringVar(&c.PyroTenantID, "pyro-tenant", "", "tenant (x-scope-orgid) for -pyro-server")
	fs.StringVar(&c.OTLPEndpoint, "otlp-endpoint", "", "OTLP gRPC endpoint (host:port)")
	fs.Float64Var(&c.TraceSample, "trace-sample", 0.0, "trace sampling ratio (0..1)")

	fs.BoolVar(&c.EnableContentUpdates, "enable-content-updates", false, "replace the embedded fact sections with bundles published to S3")
	fs.StringVar(&c.ContentSSMParam, "content-ssm-param", "/app/celestialexplorer-web/content/stable/bundle-hash", "ssm parameter holding the active bundle sha256")
	fs.StringVar(&c.ContentS3Bucket, "content-s3-bucket", "", "s3 bucket holding content bundles")
	fs.StringVar(&c.ContentS3Prefix, "content-s3-prefix", "apps/celestialexplorer-web/content/bundles", "s3 key prefix of content bundles")
	fs.StringVar(&c.ContentSigningKeyARN, "content-signing-key-arn", "", "KMS key ARN that signs bundles; empty skips signature checks")
	fs.DurationVar(&c.ContentPollInterval, "content-poll-interval", time.Minute, "how often to check ssm for a new bundle")
}

// FillFromEnv sets every flag not passed on the command line from
// prefix+FLAG_NAME. Precedence: cli flag > env var > default.
func FillFromEnv(fs *flag.FlagSet, prefix string, logf func(string, ...any)) {
	explicit := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { explicit[f.Name] = true })

	fs.VisitAll(func(f *flag.Flag) {
		key := prefix + strings.ReplaceAll(strings.ToUpper(f.Name), "-", "_")
		envVal, ok := os.LookupEnv(key)
		if !ok {
			return
		}
		if explicit[f.Name] {
			if logf != nil {
				logf("flag -%s: cli value %q overrides env %s=%q", f.Name, f.Value.String(), key, envVal)
			}
			return
		}
		prev := f.Value.String()
		if err := fs.Set(f.Name, envVal); err != nil {
			_ = fs.Set(f.Name, prev)
			if logf != nil {
				logf("flag -%s: ignoring invalid env %s=%q: %v", f.Name, key, envVal, err)
			}
		}
	})
}

// Validate reports every invalid field at once.
func Validate(c App) error {
	var errs []error

	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid HTTP_PORT %d (must be 1..65535)", c.HTTPPort))
	}
	if c.AdminPort < 1 || c.AdminPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid ADMIN_PORT %d (must be 1..65535)", c.AdminPort))
	}
	if c.AdminPort == c.HTTPPort {
		errs = append(errs, fmt.Errorf("ADMIN_PORT and HTTP_PORT must differ (both %d)", c.HTTPPort))
	}
	if c.TrustedProxyHops < 0 || c.TrustedProxyHops > 10 {
		errs = append(errs, fmt.Errorf("invalid TRUSTED_PROXY_HOPS %d (must be 0..10)", c.TrustedProxyHops))
	}
	if c.DrainPeriod < 0 || c.DrainPeriod > 2*time.Minute {
		errs = append(errs, fmt.Errorf("invalid DRAIN_PERIOD %s (must be 0..2m)", c.DrainPeriod))
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst < 1 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_RPS must be > 0 and RATE_LIMIT_BURST >= 1 (got %.2f, %d)", c.RateLimitRPS, c.RateLimitBurst))
	}

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("invalid LOG_LEVEL %q: %w", c.LogLevel, err))
	}
	if c.StacktraceLevel != "" {
		if _, err := log.ParseLevel(c.StacktraceLevel); err != nil {
			errs = append(errs, fmt.Errorf("invalid STACKTRACE_LEVEL %q: %w", c.StacktraceLevel, err))
		}
	}
	if c.IncludeErrorLinks && (c.MaxErrorLinks < 1 || c.MaxErrorLinks > 64) {
		errs = append(errs, fmt.Errorf("MAX_ERROR_LINKS must be 1..64 (got %d)", c.MaxErrorLinks))
	}

	if c.TraceSample < 0 || c.TraceSample > 1 {
		errs = append(errs, fmt.Errorf("invalid TRACE_SAMPLE %.3f (must be 0..1)", c.TraceSample))
	}
	if c.EnablePyroscope {
		if c.PyroServer == "" {
			errs = append(errs, errors.New("PYRO_SERVER required when ENABLE_PYROSCOPE=true"))
		} else if u, err := url.Parse(c.PyroServer); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("PYRO_SERVER must be a URL (got %q)", c.PyroServer))
		}
		if c.PyroTenantID == "" {
			errs = append(errs, errors.New("PYRO_TENANT required when ENABLE_PYROSCOPE=true"))
		}
	}
	if c.EnableTracing {
		if c.OTLPEndpoint == "" {
			errs = append(errs, errors.New("OTLP_ENDPOINT required when ENABLE_TRACING=true"))
		} else if _, _, err := net.SplitHostPort(c.OTLPEndpoint); err != nil {
			errs = append(errs, fmt.Errorf("OTLP_ENDPOINT must be host:port (got %q): %v", c.OTLPEndpoint, err))
		}
	}

	if c.EnableContentUpdates {
		if c.ContentSSMParam == "" {
			errs = append(errs, errors.New("CONTENT_SSM_PARAM is required when ENABLE_CONTENT_UPDATES=true"))
		}
		if c.ContentS3Bucket == "" {
			errs = append(errs, errors.New("CONTENT_S3_BUCKET is required when ENABLE_CONTENT_UPDATES=true"))
		}
		if c.ContentS3Prefix == "" {
			errs = append(errs, errors.New("CONTENT_S3_PREFIX is required when ENABLE_CONTENT_UPDATES=true"))
		}
		if c.ContentPollInterval < 10*time.Second {
			errs = append(errs, fmt.Errorf("CONTENT_POLL_INTERVAL must be at least 10s (got %s)", c.ContentPollInterval))
		}
	}
	if c.ContentSigningKeyARN != "" && !strings.HasPrefix(c.ContentSigningKeyARN, "arn:") {
		errs = append(errs, fmt.Errorf("CONTENT_SIGNING_KEY_ARN must be an ARN (got %q)", c.ContentSigningKeyARN))
	}

	return errors.Join(errs...)
}
