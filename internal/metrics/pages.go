package metrics

import (
	"strconv"
	"time"
)

// ObservePageRender implements sitehandler.RenderObserver.
func (m *ServerMetrics) ObservePageRender(page string, status, size int, d time.Duration, err error) {
	m.renderTotal.WithLabelValues(page, strconv.Itoa(status)).Inc()
	m.renderDur.WithLabelValues(page).Observe(d.Seconds())
	if err != nil {
		m.renderErrors.WithLabelValues(page).Inc()
		return
	}
	m.renderBytes.WithLabelValues(page).Observe(float64(size))
}
