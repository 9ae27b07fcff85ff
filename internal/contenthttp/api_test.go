package contenthttp

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/go-cmp/cmp"

	"github.com/keithlinneman/celestialexplorer-web/internal/content"
	"github.com/keithlinneman/celestialexplorer-web/internal/version"
)

type stubProvider struct {
	snap *content.Snapshot
	ok   bool
}

func (s *stubProvider) Get() (*content.Snapshot, bool) { return s.snap, s.ok }

var (
	loadedAt = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	fixedNow = time.Date(2026, 3, 14, 12, 30, 0, 0, time.UTC)
)

func liveProvider() *stubProvider {
	return &stubProvider{ok: true, snap: &content.Snapshot{
		Meta: content.Meta{
			Version:    "2026.03.14",
			SHA256:     "abc123def456",
			Source:     content.SourceS3,
			Signed:     true,
			VerifiedAt: loadedAt.Add(-time.Second),
		},
		Sections: []content.Section{
			{ID: "celestial-bodies", Title: "Celestial Bodies", HTML: []byte("<p>Mars</p>")},
			{ID: "cosmos", Title: "Cosmos", HTML: []byte("<p>Big Bang</p>")},
		},
		LoadedAt: loadedAt,
	}}
}

func newTestAPI(p SnapshotProvider) *API {
	api := NewAPI(p, version.Info{App: "celestialexplorer-web", Version: "1.2.3", Commit: "deadbeef"}, nil)
	api.now = func() time.Time { return fixedNow }
	return api
}

func serve(api *API, path string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	api.RegisterRoutes(r)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, http.NoBody))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return v
}

// ---------------------------------------------------------------------------
// status
// ---------------------------------------------------------------------------

func TestHandleStatus_Live(t *testing.T) {
	rec := serve(newTestAPI(liveProvider()), StatusPath)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Fatalf("Content-Type = %q", ct)
	}
	if cc := rec.Header().Get("Cache-Control"); cc != "no-cache" {
		t.Fatalf("Cache-Control = %q", cc)
	}

	got := decode[StatusResponse](t, rec)
	verified := loadedAt.Add(-time.Second)
	want := StatusResponse{
		Bundle: &BundleInfo{
			Version:    "2026.03.14",
			SHA256:     "abc123def456",
			Source:     content.SourceS3,
			Signed:     true,
			VerifiedAt: &verified,
			LoadedAt:   loadedAt,
		},
		Sections: []SectionInfo{
			{ID: "celestial-bodies", Title: "Celestial Bodies", HTMLBytes: len("<p>Mars</p>")},
			{ID: "cosmos", Title: "Cosmos", HTMLBytes: len("<p>Big Bang</p>")},
		},
		Runtime: RuntimeInfo{
			ServerTime: fixedNow,
			Build:      version.Info{App: "celestialexplorer-web", Version: "1.2.3", Commit: "deadbeef"},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("status mismatch (-want +got):\n%s", diff)
	}
}

func TestHandleStatus_SeedOmitsVerification(t *testing.T) {
	p := &stubProvider{ok: true, snap: &content.Snapshot{
		Meta:     content.Meta{Version: "seed-2026.10", Source: content.SourceSeed},
		LoadedAt: loadedAt,
	}}
	got := decode[StatusResponse](t, serve(newTestAPI(p), StatusPath))
	if got.Bundle == nil || got.Bundle.VerifiedAt != nil || got.Bundle.Signed {
		t.Fatalf("bundle = %+v", got.Bundle)
	}
	if got.Sections != nil {
		t.Fatalf("sections = %v", got.Sections)
	}
}

func TestHandleStatus_NoContent(t *testing.T) {
	rec := serve(newTestAPI(&stubProvider{}), StatusPath)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", rec.Code)
	}
	got := decode[StatusResponse](t, rec)
	if got.Error == "" || got.Bundle != nil || got.Runtime.ServerTime.IsZero() {
		t.Fatalf("resp = %+v", got)
	}
}

// ---------------------------------------------------------------------------
// summary
// ---------------------------------------------------------------------------

func TestHandleSummary(t *testing.T) {
	rec := serve(newTestAPI(liveProvider()), SummaryPath)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	want := SummaryResponse{Version: "2026.03.14", Hash: "abc123def456", Source: "s3", Sections: 2, LoadedAt: loadedAt}
	if diff := cmp.Diff(want, decode[SummaryResponse](t, rec)); diff != "" {
		t.Fatalf("summary mismatch (-want +got):\n%s", diff)
	}
}

func TestHandleSummary_NoContent(t *testing.T) {
	rec := serve(newTestAPI(&stubProvider{}), SummaryPath)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := decode[map[string]string](t, rec); got["error"] != "no content loaded" {
		t.Fatalf("body = %v", got)
	}
}

func TestRegisterRoutes_OnlyGET(t *testing.T) {
	r := chi.NewRouter()
	newTestAPI(liveProvider()).RegisterRoutes(r)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, StatusPath, http.NoBody))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("POST status = %d", rec.Code)
	}
}
