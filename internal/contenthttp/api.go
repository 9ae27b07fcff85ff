// Package contenthttp reports which content bundle the site is serving.
package contenthttp

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/keithlinneman/celestialexplorer-web/internal/content"
	"github.com/keithlinneman/celestialexplorer-web/internal/log"
	"github.com/keithlinneman/celestialexplorer-web/internal/version"
)

const (
	StatusPath  = "/-/content"
	SummaryPath = "/-/content/summary"
)

// SnapshotProvider returns the active content snapshot.
type SnapshotProvider interface {
	Get() (*content.Snapshot, bool)
}

type API struct {
	content SnapshotProvider
	build   version.Info
	logger  log.Logger
	now     func() time.Time
}

func NewAPI(content SnapshotProvider, build version.Info, logger log.Logger) *API {
	if logger == nil {
		logger = log.Nop()
	}
	return &API{content: content, build: build, logger: logger, now: time.Now}
}

func (api *API) RegisterRoutes(r chi.Router) {
	r.Get(StatusPath, api.HandleStatus)
	r.Get(SummaryPath, api.HandleSummary)
}

type StatusResponse struct {
	Bundle   *BundleInfo   `json:"bundle,omitempty"`
	Sections []SectionInfo `json:"sections,omitempty"`
	Runtime  RuntimeInfo   `json:"runtime"`
	Error    string        `json:"error,omitempty"`
}

type BundleInfo struct {
	Version    string         `json:"version"`
	SHA256     string         `json:"sha256,omitempty"`
	Source     content.Source `json:"source"`
	Signed     bool           `json:"signed"`
	VerifiedAt *time.Time     `json:"verified_at,omitempty"`
	LoadedAt   time.Time      `json:"loaded_at"`
}

type SectionInfo struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	HTMLBytes int    `json:"html_bytes"`
}

type RuntimeInfo struct {
	ServerTime time.Time    `json:"server_time"`
	Build      version.Info `json:"build"`
}

// SummaryResponse is the short form shown by status pages and dashboards.
type SummaryResponse struct {
	Version  string    `json:"version"`
	Hash     string    `json:"hash"`
	Source   string    `json:"source"`
	Sections int       `json:"sections"`
	LoadedAt time.Time `json:"loaded_at"`
}

func (api *API) HandleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	resp := StatusResponse{
		Runtime: RuntimeInfo{
			ServerTime: api.now().UTC().Truncate(time.Second),
			Build:      api.build,
		},
	}

	snap, ok := api.content.Get()
	if !ok {
		resp.Error = "no content loaded"
		api.writeJSON(ctx, w, http.StatusServiceUnavailable, resp)
		return
	}

	b := &BundleInfo{
		Version:  snap.Meta.Version,
		SHA256:   snap.Meta.SHA256,
		Source:   snap.Meta.Source,
		Signed:   snap.Meta.Signed,
		LoadedAt: snap.LoadedAt.UTC().Truncate(time.Second),
	}
	if !snap.Meta.VerifiedAt.IsZero() {
		t := snap.Meta.VerifiedAt.UTC().Truncate(time.Second)
		b.VerifiedAt = &t
	}
	resp.Bundle = b
	for _, s := range snap.Sections {
		resp.Sections = append(resp.Sections, SectionInfo{ID: s.ID, Title: s.Title, HTMLBytes: len(s.HTML)})
	}

	api.logger.Debug(ctx, "served content status", "version", b.Version, "hash", b.SHA256)
	api.writeJSON(ctx, w, http.StatusOK, resp)
}

func (api *API) HandleSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	snap, ok := api.content.Get()
	if !ok {
		api.writeJSON(ctx, w, http.StatusServiceUnavailable, map[string]string{"error": "no content loaded"})
		return
	}

	api.writeJSON(ctx, w, http.StatusOK, SummaryResponse{
		Version:  snap.Meta.Version,
		Hash:     snap.Meta.SHA256,
		Source:   string(snap.Meta.Source),
		Sections: len(snap.Sections),
		LoadedAt: snap.LoadedAt.UTC().Truncate(time.Second),
	})
}

func (api *API) writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		api.logger.Warn(ctx, "failed to encode JSON response", "error", err)
	}
}
