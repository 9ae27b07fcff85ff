package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/kms"

	"github.com/keithlinneman/celestialexplorer-web/internal/cfg"
	"github.com/keithlinneman/celestialexplorer-web/internal/content"
	"github.com/keithlinneman/celestialexplorer-web/internal/contenthttp"
	"github.com/keithlinneman/celestialexplorer-web/internal/cryptoutil"
	"github.com/keithlinneman/celestialexplorer-web/internal/health"
	"github.com/keithlinneman/celestialexplorer-web/internal/httpmw"
	"github.com/keithlinneman/celestialexplorer-web/internal/httpserver"
	"github.com/keithlinneman/celestialexplorer-web/internal/log"
	"github.com/keithlinneman/celestialexplorer-web/internal/metrics"
	"github.com/keithlinneman/celestialexplorer-web/internal/opshttp"
	"github.com/keithlinneman/celestialexplorer-web/internal/otelx"
	"github.com/keithlinneman/celestialexplorer-web/internal/prof"
	"github.com/keithlinneman/celestialexplorer-web/internal/ratelimit"
	"github.com/keithlinneman/celestialexplorer-web/internal/sitehandler"
	"github.com/keithlinneman/celestialexplorer-web/internal/sitehttp"
	"github.com/keithlinneman/celestialexplorer-web/internal/theme"
	v "github.com/keithlinneman/celestialexplorer-web/internal/version"
	"github.com/keithlinneman/celestialexplorer-web/internal/webassets"
)

const component = "server"

func main() {
	vi := v.Get()

	var conf cfg.App
	var showVersion bool

	cfg.Register(flag.CommandLine, &conf)
	flag.BoolVar(&showVersion, "V", false, "Print version+build information and exit")
	flag.Parse()

	if showVersion {
		fmt.Println(vi.String())
		os.Exit(0)
	}

	cfg.FillFromEnv(flag.CommandLine, cfg.EnvPrefix, func(format string, args ...any) {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	})
	if err := cfg.Validate(conf); err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		os.Exit(1)
	}

	lvl, _ := log.ParseLevel(conf.LogLevel)
	stackLvl, _ := log.ParseLevel(conf.StacktraceLevel)
	lg, err := log.New(log.Options{
		App:               v.AppName,
		Version:           vi.Version,
		Level:             lvl,
		StacktraceLevel:   stackLvl,
		JSON:              conf.LogJSON,
		IncludeErrorLinks: conf.IncludeErrorLinks,
		MaxErrorLinks:     conf.MaxErrorLinks,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger init error:", err)
		os.Exit(1)
	}
	defer func() { _ = lg.Sync() }()
	L := lg.With("component", component)

	ctx, cancelRun := context.WithCancel(log.WithContext(context.Background(), L))
	defer cancelRun()

	L.Info(ctx, "initializing application",
		"version", vi.Version,
		"commit", vi.Commit,
		"commit_date", vi.CommitDate,
		"build_id", vi.BuildID,
		"build_date", vi.BuildDate,
		"go_version", vi.GoVersion,
		"vcs_dirty", vi.VCSDirty,
		"http_port", conf.HTTPPort,
		"admin_port", conf.AdminPort,
		"trusted_proxy_hops", conf.TrustedProxyHops,
		"rate_limit_rps", conf.RateLimitRPS,
		"rate_limit_burst", conf.RateLimitBurst,
		"enable_pprof", conf.EnablePprof,
		"enable_pyroscope", conf.EnablePyroscope,
		"enable_tracing", conf.EnableTracing,
		"enable_content_updates", conf.EnableContentUpdates,
		"content_s3_bucket", conf.ContentS3Bucket,
		"content_signing_key_arn", conf.ContentSigningKeyARN,
	)

	m := metrics.New()
	m.SetBuildInfo(component, vi)

	stopProf, err := prof.Start(ctx, prof.Options{
		Enabled:       conf.EnablePyroscope,
		AppName:       v.AppName,
		ServerAddress: conf.PyroServer,
		TenantID:      conf.PyroTenantID,
		Tags: map[string]string{
			"component": component,
			"version":   vi.Version,
			"commit":    vi.Commit,
		},
	})
	if err != nil {
		L.Error(ctx, err, "pyroscope start failed", "pyro_server", conf.PyroServer)
	}
	m.SetProfilingActive(conf.EnablePyroscope && err == nil)
	defer stopProf()

	// collector runs on localhost
	shutdownOTEL, err := otelx.Init(ctx, otelx.Options{
		Enabled:   conf.EnableTracing,
		Endpoint:  conf.OTLPEndpoint,
		Insecure:  true,
		Sample:    conf.TraceSample,
		Service:   v.AppName,
		Component: component,
		Version:   vi.Version,
	})
	if err != nil {
		L.Error(ctx, err, "otel init failed")
		shutdownOTEL = func(context.Context) error { return nil }
	}
	defer func() { _ = shutdownOTEL(context.Background()) }()

	// the embedded seed always loads so the page renders without AWS
	contentMgr := content.NewManager()
	seed, err := content.LoadSeed(webassets.SeedFS())
	if err != nil {
		L.Error(ctx, err, "embedded seed content is invalid")
		os.Exit(1)
	}
	contentMgr.Set(*seed)
	L.Info(ctx, "loaded seed content", "content_version", seed.Meta.Version, "sections", len(seed.Sections))

	if conf.EnableContentUpdates {
		startContentUpdates(ctx, L, conf, contentMgr, m)
	}
	if snap, ok := contentMgr.Get(); ok {
		m.SetContent(snap)
	}

	tokens := theme.Default()
	tokens.DecorationURL = webassets.StaticHref("starfield.svg")
	sheet := theme.Compile(tokens)
	m.SetTheme(sheet.Hash, len(sheet.CSS))

	site, err := sitehandler.New(sitehandler.Options{
		Content:  contentMgr,
		Sheet:    sheet,
		StaticFS: webassets.StaticFS(),
		Observer: m,
	})
	if err != nil {
		L.Error(ctx, err, "failed to create site handler")
		os.Exit(1)
	}

	var gate health.ShutdownGate
	readiness := health.All(gate.Probe(), health.Named("content", health.Err(contentMgr.ReadyErr)))
	liveness := health.Fixed(true, "")

	limiter := ratelimit.New(ctx,
		ratelimit.WithRate(conf.RateLimitRPS, conf.RateLimitBurst),
		ratelimit.WithOnDenied(func(string) { m.IncRateLimitDenied() }),
		// logged once per visitor until it is evicted
		ratelimit.WithOnFirstDenied(func(ip string) {
			L.Warn(ctx, "rate limit triggered", "ip", ip)
		}),
		ratelimit.WithOnCapacity(func() {
			m.IncRateLimitCapacity()
			L.Warn(ctx, "rate limit capacity reached, rejecting new visitors until some are evicted")
		}),
		ratelimit.WithDeniedHandler(site.RateLimited()),
	)

	siteHTTPStop, err := httpserver.Start(ctx, httpserver.Options{
		Logger:       L,
		Port:         conf.HTTPPort,
		UseRecoverMW: true,
		OnPanic:      m.IncHTTPPanic,
		MetricsMW:    m.Middleware,
		RateLimitMW:  limiter.Middleware,
		ClientIPOpts: httpmw.ClientIPOptions{TrustedHops: conf.TrustedProxyHops},
		ContentInfo:  contentMgr,
		Health:       liveness,
		Readiness:    readiness,
		// site goes last: it installs the NotFound fallback
		Routes: []httpserver.RouteRegistrar{
			contenthttp.NewAPI(contentMgr, vi, L),
			sitehttp.New(site),
		},
	})
	if err != nil {
		L.Error(ctx, err, "failed to start site http listener")
		os.Exit(1)
	}
	defer func() { _ = siteHTTPStop(context.Background()) }()

	// public addresses are rejected in middleware in case the admin port is
	// ever exposed by mistake
	opsHTTPStop, err := opshttp.Start(ctx, L, &opshttp.Options{
		Port:         conf.AdminPort,
		Metrics:      m.Handler(),
		EnablePprof:  conf.EnablePprof,
		Health:       liveness,
		Readiness:    readiness,
		UseRecoverMW: true,
		OnPanic:      m.IncHTTPPanic,
	})
	if err != nil {
		L.Error(ctx, err, "failed to start ops http listener")
		os.Exit(1)
	}
	defer func() { _ = opsHTTPStop(context.Background()) }()

	if err := notifySystemd(); err != nil {
		// systemd kills us after its start timeout if this really mattered
		L.Warn(ctx, "failed to notify systemd of readiness", "error", err)
	}

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()
	<-sigCtx.Done()

	bg := context.Background()
	L.Info(bg, "shutdown signal received")

	// fail readiness so the load balancer stops sending traffic
	gate.Set("draining")
	L.Info(bg, "shutdown gate closed, draining", "drain_period", conf.DrainPeriod)

	forceCh := make(chan os.Signal, 1)
	signal.Notify(forceCh, os.Interrupt, syscall.SIGTERM)
	select {
	case <-time.After(conf.DrainPeriod):
		L.Info(bg, "drain period complete")
	case <-forceCh:
		L.Warn(bg, "second signal received, skipping drain")
	}
	signal.Stop(forceCh)

	// stops the watcher and limiter cleanup
	cancelRun()

	shutdownCtx, cancel := context.WithTimeout(bg, 10*time.Second)
	defer cancel()

	if err := siteHTTPStop(shutdownCtx); err != nil {
		L.Error(bg, err, "site http server shutdown")
	}
	if err := opsHTTPStop(shutdownCtx); err != nil {
		L.Error(bg, err, "ops http server shutdown")
	}
	if err := shutdownOTEL(shutdownCtx); err != nil {
		L.Error(bg, err, "otel shutdown")
	}
	stopProf()

	L.Info(bg, "shutdown complete")
}

// startContentUpdates loads the published bundle over the seed and starts
// the watcher. Failures leave the seed serving.
func startContentUpdates(ctx context.Context, L log.Logger, conf cfg.App, mgr *content.Manager, m *metrics.ServerMetrics) {
	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		L.Error(ctx, err, "failed to load AWS config, serving seed content only")
		return
	}

	opts := content.LoaderOptions{
		Logger:   L,
		SSMParam: conf.ContentSSMParam,
		S3Bucket: conf.ContentS3Bucket,
		S3Prefix: conf.ContentS3Prefix,
	}
	if conf.ContentSigningKeyARN != "" {
		opts.Verifier = cryptoutil.NewKMSVerifier(kms.NewFromConfig(awsCfg), conf.ContentSigningKeyARN)
	}

	loader, err := content.NewAWSLoader(awsCfg, opts)
	if err != nil {
		L.Error(ctx, err, "failed to create content loader, serving seed content only")
		return
	}

	if err := loader.LoadIntoManager(ctx, mgr); err != nil {
		L.Error(ctx, err, "failed to load content bundle, serving seed content")
	} else {
		L.Info(ctx, "loaded content bundle",
			"content_version", mgr.ContentVersion(),
			"content_hash", mgr.ContentHash(),
		)
	}

	watcher := content.NewWatcher(content.WatcherOptions{
		Logger:       L,
		Loader:       loader,
		Manager:      mgr,
		PollInterval: conf.ContentPollInterval,
		Metrics:      m,
		OnSwap: func(string, string) {
			if snap, ok := mgr.Get(); ok {
				m.SetContent(snap)
			}
		},
	})
	go func() { _ = watcher.Run(ctx) }()
}
