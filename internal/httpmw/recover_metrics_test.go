package httpmw_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/keithlinneman/celestialexplorer-web/internal/httpmw"
	"github.com/keithlinneman/celestialexplorer-web/internal/log"
	"github.com/keithlinneman/celestialexplorer-web/internal/metrics"
)

func TestRecover_CountsPanicsInMetrics(t *testing.T) {
	m := metrics.New()
	h := httpmw.Recover(log.Nop(), m.IncHTTPPanic)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("event horizon")
	}))
	for range 2 {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", http.NoBody))
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "\nhttp_panic_total 2\n") {
		t.Fatalf("http_panic_total not 2 in scrape:\n%s", body)
	}
}
