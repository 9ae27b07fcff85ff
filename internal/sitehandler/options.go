package sitehandler

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/keithlinneman/celestialexplorer-web/internal/content"
	"github.com/keithlinneman/celestialexplorer-web/internal/shell"
	"github.com/keithlinneman/celestialexplorer-web/internal/theme"
)

var ErrInvalidOptions = errors.New("invalid sitehandler options")

// SnapshotProvider returns the active content snapshot.
type SnapshotProvider interface {
	Get() (*content.Snapshot, bool)
}

// RenderObserver is told about every page the handler renders.
type RenderObserver interface {
	ObservePageRender(page string, status, size int, d time.Duration, err error)
}

type Options struct {
	// Active content
	Content SnapshotProvider
	// Layout wrapped around every page. StylesheetHref is replaced with the
	// versioned URL of Sheet and a /static/ FaviconHref is fingerprinted.
	Layout shell.Layout
	// Compiled theme served at ThemePath
	Sheet theme.Sheet
	// embedded static assets (starfield.svg, favicon.svg, robots.txt)
	StaticFS fs.FS
	Observer RenderObserver

	RetryAfter time.Duration // default: 60s

	// Cache policies applied by file extension. Assets get AssetCacheControl
	// only when requested with their current ?v= fingerprint.
	HTMLCacheControl       string // default: "no-cache"
	AssetCacheControl      string // default: "public, max-age=31536000, immutable"
	RevalidateCacheControl string // default: "no-cache"
	OtherCacheControl      string // default: "public, max-age=3600"
}

func (o *Options) setDefaults() {
	if o.Layout.Brand == "" {
		o.Layout = shell.Default()
	}
	if o.RetryAfter <= 0 {
		o.RetryAfter = 60 * time.Second
	}
	if o.HTMLCacheControl == "" {
		o.HTMLCacheControl = "no-cache"
	}
	if o.AssetCacheControl == "" {
		o.AssetCacheControl = "public, max-age=31536000, immutable"
	}
	if o.RevalidateCacheControl == "" {
		o.RevalidateCacheControl = "no-cache"
	}
	if o.OtherCacheControl == "" {
		o.OtherCacheControl = "public, max-age=3600"
	}
}

func (o *Options) validate() error {
	if o.Content == nil {
		return fmt.Errorf("%w: Content is nil", ErrInvalidOptions)
	}
	if o.StaticFS == nil {
		return fmt.Errorf("%w: StaticFS is nil", ErrInvalidOptions)
	}
	if len(o.Sheet.CSS) == 0 {
		return fmt.Errorf("%w: Sheet is empty", ErrInvalidOptions)
	}
	// fail fast on boot if mispackaged
	if !existsFile(o.StaticFS, robotsFile) {
		return fmt.Errorf("%w: missing %q in static FS", ErrInvalidOptions, robotsFile)
	}
	return nil
}
