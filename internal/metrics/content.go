package metrics

import (
	"time"

	"github.com/keithlinneman/celestialexplorer-web/internal/content"
)

// SetContent publishes the identity of snap. Called at startup and after
// every watcher swap.
func (m *ServerMetrics) SetContent(snap *content.Snapshot) {
	if snap == nil {
		return
	}
	m.contentSource.Reset()
	m.contentSource.WithLabelValues(string(snap.Meta.Source)).Set(1)
	m.contentBundle.Reset()
	m.contentBundle.WithLabelValues(snap.Meta.SHA256, snap.Meta.Version).Set(1)
	m.contentLoadedTs.Set(unixOrZero(snap.LoadedAt))
	m.contentSections.Set(float64(len(snap.Sections)))
}

// SetTheme records the compiled stylesheet's hash and size.
func (m *ServerMetrics) SetTheme(hash string, size int) {
	m.themeInfo.Reset()
	m.themeInfo.WithLabelValues(hash).Set(float64(size))
}

// content.WatcherMetrics

func (m *ServerMetrics) IncWatcherPolls() { m.watcherPolls.Inc() }

func (m *ServerMetrics) IncWatcherSwaps() { m.watcherSwaps.Inc() }

func (m *ServerMetrics) IncWatcherError(kind string) { m.watcherErrors.WithLabelValues(kind).Inc() }

func (m *ServerMetrics) ObserveBundleLoadDuration(seconds float64) {
	m.bundleLoadDuration.Observe(seconds)
}

func (m *ServerMetrics) SetWatcherLastSuccess(unixSeconds float64) {
	m.watcherLastSuccess.Set(unixSeconds)
}

func (m *ServerMetrics) SetWatcherStale(stale bool) { m.watcherStale.Set(boolGauge(stale)) }

var _ content.WatcherMetrics = (*ServerMetrics)(nil)

// unixOrZero keeps a zero time from reporting a large negative timestamp.
func unixOrZero(t time.Time) float64 {
	if t.IsZero() {
		return 0
	}
	return float64(t.Unix())
}
