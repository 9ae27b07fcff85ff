// Package sitehttp mounts the public site on the main router.
package sitehttp

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/keithlinneman/celestialexplorer-web/internal/httpmw"
)

// ScopeName tags site requests in logs and spans.
const ScopeName = "site"

// patterns served by the site handler. Anything else reaches it through
// NotFound and renders the 404 page.
var patterns = []string{"/", "/robots.txt", "/static/*"}

type Routes struct {
	Site http.Handler
}

func New(site http.Handler) *Routes {
	return &Routes{Site: site}
}

// RegisterRoutes should be passed LAST so it becomes the final fallback.
func (rt *Routes) RegisterRoutes(r chi.Router) {
	site := httpmw.Scope(ScopeName)(rt.Site)

	for _, p := range patterns {
		r.Method(http.MethodGet, p, site)
		r.Method(http.MethodHead, p, site)
	}

	// NotFound rather than a wildcard route so health/control routes
	// registered by other registrars are not shadowed.
	r.NotFound(site.ServeHTTP)
	r.MethodNotAllowed(site.ServeHTTP)
}
