package sitehandler

import (
	"io/fs"
	"path"
	"strings"

	"github.com/keithlinneman/celestialexplorer-web/internal/pathutil"
)

const (
	ThemePath    = "/static/theme.css"
	staticPrefix = "/static/"
	robotsFile   = "robots.txt"
)

type routeKind int

const (
	routeNotFound routeKind = iota
	routeHome
	routeTheme
	routeStatic
	routeRedirect
)

// target is what a request path maps to.
type target struct {
	kind routeKind
	// file inside the static FS for routeStatic, URL path for routeRedirect
	name string
}

// resolvePath maps a URL path to a page, the theme sheet or a static file.
// Only files directly under /static/ are served; there are no directories.
func resolvePath(urlPath string, static fs.FS) target {
	p := urlPath
	if p == "" {
		p = "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}

	// basic rejection of ambiguous/unsafe paths
	if strings.Contains(p, "\x00") || strings.Contains(p, "\\") || strings.Contains(p, "..") {
		return target{}
	}
	// dot segments and dotfiles
	if pathutil.HasHiddenSegments(p) {
		return target{}
	}

	switch p {
	case "/":
		return target{kind: routeHome}
	case "/index.html":
		return target{kind: routeRedirect, name: "/"}
	case ThemePath:
		return target{kind: routeTheme}
	case "/" + robotsFile:
		return target{kind: routeStatic, name: robotsFile}
	}

	if strings.HasPrefix(p, staticPrefix) {
		name := strings.TrimPrefix(p, staticPrefix)
		if name == "" || strings.Contains(name, "/") || path.Ext(name) == "" {
			return target{}
		}
		if existsFile(static, name) {
			return target{kind: routeStatic, name: name}
		}
	}

	return target{}
}

func existsFile(fsys fs.FS, name string) bool {
	if name == "" || !fs.ValidPath(name) {
		return false
	}
	info, err := fs.Stat(fsys, name)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
