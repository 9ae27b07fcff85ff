package sitehandler

import (
	"bytes"
	"net/http"
	"strconv"
	"strings"
	"time"

	g "maragu.dev/gomponents"

	"github.com/keithlinneman/celestialexplorer-web/internal/log"
	"github.com/keithlinneman/celestialexplorer-web/internal/pages"
	"github.com/keithlinneman/celestialexplorer-web/internal/shell"
	"github.com/keithlinneman/celestialexplorer-web/internal/xerrors"
)

// Page names reported to the RenderObserver.
const (
	PageHome        = "home"
	PageNotFound    = "not_found"
	PageMaintenance = "maintenance"
	PageRateLimited = "rate_limited"
)

type Handler struct {
	opts   Options
	layout shell.Layout
	theme  fingerprint
	assets map[string]fingerprint
}

func New(opts Options) (*Handler, error) {
	opts.setDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}
	assets, err := fingerprintFiles(opts.StaticFS)
	if err != nil {
		return nil, err
	}
	h := &Handler{
		opts:   opts,
		theme:  newFingerprint(opts.Sheet.Hash),
		assets: assets,
	}
	h.layout = opts.Layout
	h.layout.StylesheetHref = opts.Sheet.Href(ThemePath)
	if name, ok := strings.CutPrefix(h.layout.FaviconHref, staticPrefix); ok && !strings.Contains(name, "?") {
		h.layout.FaviconHref = h.AssetHref(name)
	}
	return h, nil
}

// Layout returns the layout pages are rendered with.
func (h *Handler) Layout() shell.Layout { return h.layout }

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// hardening: only allow GET/HEAD
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	t := resolvePath(r.URL.Path, h.opts.StaticFS)
	switch t.kind {
	case routeRedirect:
		http.Redirect(w, r, t.name, http.StatusPermanentRedirect)
	case routeTheme:
		h.serveTheme(w, r)
	case routeStatic:
		fp, known := h.assets[t.name]
		if cc := cachePolicy(t.name, known && fp.matches(r), &h.opts); cc != "" {
			w.Header().Set("Cache-Control", cc)
		}
		if known {
			w.Header().Set("ETag", fp.etag)
		}
		http.ServeFileFS(w, r, h.opts.StaticFS, t.name)
	case routeHome:
		h.serveHome(w, r)
	default:
		h.serveNotFound(w, r)
	}
}

func (h *Handler) serveHome(w http.ResponseWriter, r *http.Request) {
	// serve maintenance page if no active content snapshot
	snap, ok := h.opts.Content.Get()
	if !ok {
		h.serveMaintenance(w, r)
		return
	}
	h.render(w, r, PageHome, http.StatusOK, h.opts.HTMLCacheControl,
		pages.Title(h.layout.Brand, ""), pages.Home(snap))
}

func (h *Handler) serveMaintenance(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Retry-After", strconv.Itoa(int(h.opts.RetryAfter/time.Second)))
	h.render(w, r, PageMaintenance, http.StatusServiceUnavailable, "no-store",
		pages.Title(h.layout.Brand, "Maintenance"), pages.Maintenance())
}

// RateLimited renders the 429 page. The rate limiter sets Retry-After
// before calling it.
func (h *Handler) RateLimited() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.render(w, r, PageRateLimited, http.StatusTooManyRequests, "no-store",
			pages.Title(h.layout.Brand, "Slow down"), pages.SlowDown())
	})
}

func (h *Handler) serveNotFound(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, PageNotFound, http.StatusNotFound, "no-store",
		pages.Title(h.layout.Brand, "Page not found"), pages.NotFound())
}

// serveTheme serves the compiled sheet. Only the URL carrying the current
// hash is immutable; other requests revalidate against the ETag.
func (h *Handler) serveTheme(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", cachePolicy(ThemePath, h.theme.matches(r), &h.opts))
	w.Header().Set("ETag", h.theme.etag)
	http.ServeContent(w, r, "theme.css", time.Time{}, bytes.NewReader(h.opts.Sheet.CSS))
}

// render writes the full document into a buffer first so a render failure
// becomes a clean 500 instead of a truncated page.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, page string, status int, cacheControl, title string, slot g.Node) {
	start := time.Now()
	var buf bytes.Buffer
	err := h.layout.Document(title, slot).Render(&buf)
	if err != nil {
		err = xerrors.Wrapf(err, "render %s page", page)
		log.FromContext(r.Context()).Error(r.Context(), err, "page render failed", "page", page)
		w.Header().Del("Retry-After")
		w.Header().Set("Cache-Control", "no-store")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		h.observe(page, http.StatusInternalServerError, 0, time.Since(start), err)
		return
	}

	hdr := w.Header()
	hdr.Set("Content-Type", "text/html; charset=utf-8")
	hdr.Set("Content-Length", strconv.Itoa(buf.Len()))
	if cacheControl != "" {
		hdr.Set("Cache-Control", cacheControl)
	}
	w.WriteHeader(status)
	if r.Method != http.MethodHead {
		_, _ = w.Write(buf.Bytes())
	}
	h.observe(page, status, buf.Len(), time.Since(start), nil)
}

func (h *Handler) observe(page string, status, size int, d time.Duration, err error) {
	if h.opts.Observer != nil {
		h.opts.Observer.ObservePageRender(page, status, size, d, err)
	}
}
