package content

import (
	"context"
	"fmt"
	"time"

	"github.com/keithlinneman/celestialexplorer-web/internal/cryptoutil"
	"github.com/keithlinneman/celestialexplorer-web/internal/log"
	"github.com/keithlinneman/celestialexplorer-web/internal/xerrors"
)

const (
	DefaultPollInterval = time.Minute

	// maxBackoff caps exponential backoff after consecutive SSM errors.
	maxBackoff = 10 * time.Minute
)

type pollResult int

const (
	pollNoChange pollResult = iota
	pollSwapped
	pollSSMError
	pollLoadError
	pollValidationError
	pollRejected // hash already failed validation, skipped
)

// BundleFetcher is what the Watcher needs from a Loader.
type BundleFetcher interface {
	FetchCurrentBundleHash(ctx context.Context) (string, error)
	LoadHash(ctx context.Context, hash string) (*Snapshot, error)
}

// WatcherMetrics is implemented by internal/metrics.
type WatcherMetrics interface {
	IncWatcherPolls()
	IncWatcherSwaps()
	IncWatcherError(kind string)
	ObserveBundleLoadDuration(seconds float64)
	SetWatcherLastSuccess(unixSeconds float64)
	SetWatcherStale(stale bool)
}

type WatcherOptions struct {
	Logger       log.Logger
	Loader       BundleFetcher
	Manager      *Manager
	PollInterval time.Duration

	// Validation runs before a swap. nil uses DefaultValidationOptions.
	Validation *ValidationOptions

	// OnSwap runs synchronously on the poll goroutine after each swap.
	// A panic is recovered and logged.
	OnSwap func(hash, version string)

	Metrics WatcherMetrics

	// StaleThreshold is how long SSM may fail before the content is
	// reported stale. Zero means 30 minutes.
	StaleThreshold time.Duration
}

// Watcher polls for new bundles and hot-swaps them into the Manager.
// Run must be called from a single goroutine.
type Watcher struct {
	loader     BundleFetcher
	manager    *Manager
	logger     log.Logger
	interval   time.Duration
	validation ValidationOptions
	onSwap     func(hash, version string)
	metrics    WatcherMetrics

	currentHash  string
	rejectedHash string

	consecutiveErrs int

	staleThreshold time.Duration
	lastSuccessAt  time.Time
	stale          bool

	pollCount int64
	swapCount int64
}

func NewWatcher(opts WatcherOptions) *Watcher {
	if opts.Logger == nil {
		opts.Logger = log.Nop()
	}
	interval := opts.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	validation := DefaultValidationOptions()
	if opts.Validation != nil {
		validation = *opts.Validation
	}
	stale := opts.StaleThreshold
	if stale <= 0 {
		stale = 30 * time.Minute
	}

	// a hash already active (e.g. loaded at startup) is not downloaded again
	current := ""
	if snap, ok := opts.Manager.Get(); ok {
		current = snap.Meta.SHA256
	}

	return &Watcher{
		loader:         opts.Loader,
		manager:        opts.Manager,
		logger:         opts.Logger.With("component", "content-watcher"),
		interval:       interval,
		validation:     validation,
		onSwap:         opts.OnSwap,
		metrics:        opts.Metrics,
		currentHash:    current,
		staleThreshold: stale,
		lastSuccessAt:  time.Now(),
	}
}

// Run polls until ctx is cancelled and returns ctx.Err().
func (w *Watcher) Run(ctx context.Context) error {
	w.logger.Info(ctx, "content watcher starting",
		"poll_interval", w.interval.String(),
		"current_hash", truncHash(w.currentHash),
	)

	timer := time.NewTimer(w.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info(ctx, "content watcher stopping",
				"reason", ctx.Err(),
				"polls", w.pollCount,
				"swaps", w.swapCount,
			)
			return ctx.Err()
		case <-timer.C:
			res := w.checkOnce(ctx)
			w.trackStaleness(ctx, res)
			timer.Reset(w.nextDelay(ctx, res))
		}
	}
}

// nextDelay backs off on SSM errors and resets after a good poll.
func (w *Watcher) nextDelay(ctx context.Context, res pollResult) time.Duration {
	if res == pollSSMError {
		w.consecutiveErrs++
		d := w.backoffDuration()
		w.logger.Warn(ctx, "content watcher backing off",
			"consecutive_errors", w.consecutiveErrs,
			"next_poll_in", d.String(),
		)
		return d
	}
	if w.consecutiveErrs > 0 {
		w.logger.Info(ctx, "content watcher recovered", "had_consecutive_errors", w.consecutiveErrs)
		w.consecutiveErrs = 0
	}
	return w.interval
}

func (w *Watcher) trackStaleness(ctx context.Context, res pollResult) {
	if res != pollSSMError {
		if w.stale {
			w.logger.Info(ctx, "content watcher staleness recovered")
			w.stale = false
			if w.metrics != nil {
				w.metrics.SetWatcherStale(false)
			}
		}
		return
	}
	if w.stale || time.Since(w.lastSuccessAt) <= w.staleThreshold {
		return
	}
	w.stale = true
	w.logger.Error(ctx,
		xerrors.Newf("last successful SSM poll was %s ago", time.Since(w.lastSuccessAt).Truncate(time.Second)),
		"content watcher cannot confirm content is current",
	)
	if w.metrics != nil {
		w.metrics.SetWatcherStale(true)
	}
}

// checkOnce runs one poll-compare-swap cycle.
func (w *Watcher) checkOnce(ctx context.Context) pollResult {
	w.pollCount++
	if w.metrics != nil {
		w.metrics.IncWatcherPolls()
	}

	hash, err := w.loader.FetchCurrentBundleHash(ctx)
	if err != nil {
		w.logger.Error(ctx, err, "content watcher SSM poll failed")
		w.incError("ssm")
		return pollSSMError
	}
	now := time.Now()
	w.lastSuccessAt = now
	if w.metrics != nil {
		w.metrics.SetWatcherLastSuccess(float64(now.Unix()))
	}

	if cryptoutil.HashEqual(hash, w.currentHash) {
		return pollNoChange
	}
	if w.rejectedHash != "" && cryptoutil.HashEqual(hash, w.rejectedHash) {
		return pollRejected
	}

	w.logger.Info(ctx, "new content bundle detected",
		"old_hash", truncHash(w.currentHash),
		"new_hash", truncHash(hash),
	)

	start := time.Now()
	snap, err := w.loader.LoadHash(ctx, hash)
	if w.metrics != nil {
		w.metrics.ObserveBundleLoadDuration(time.Since(start).Seconds())
	}
	if err != nil {
		w.logger.Error(ctx, err, "content bundle load failed", "hash", truncHash(hash))
		w.incError("load")
		return pollLoadError
	}

	if err := ValidateSnapshot(snap, w.validation); err != nil {
		w.logger.Error(ctx, err, "content bundle failed validation, keeping current content",
			"rejected_hash", truncHash(hash),
			"current_hash", truncHash(w.currentHash),
		)
		w.rejectedHash = hash
		w.incError("validation")
		return pollValidationError
	}

	old := w.currentHash
	w.manager.Set(*snap)
	w.currentHash = hash
	w.rejectedHash = ""
	w.swapCount++
	version := w.manager.ContentVersion()

	w.logger.Info(ctx, "content bundle swapped",
		"old_hash", truncHash(old),
		"new_hash", truncHash(hash),
		"version", version,
		"sections", len(snap.Sections),
		"total_swaps", w.swapCount,
	)
	if w.metrics != nil {
		w.metrics.IncWatcherSwaps()
	}
	w.notify(ctx, hash, version)
	return pollSwapped
}

func (w *Watcher) notify(ctx context.Context, hash, version string) {
	if w.onSwap == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error(ctx, fmt.Errorf("OnSwap panic: %v", r), "content watcher OnSwap callback panicked", "hash", truncHash(hash))
		}
	}()
	w.onSwap(hash, version)
}

func (w *Watcher) incError(kind string) {
	if w.metrics != nil {
		w.metrics.IncWatcherError(kind)
	}
}

// backoffDuration is interval * 2^consecutiveErrs, capped at maxBackoff.
func (w *Watcher) backoffDuration() time.Duration {
	d := w.interval
	for i := 0; i < w.consecutiveErrs; i++ {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	return d
}

func truncHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
