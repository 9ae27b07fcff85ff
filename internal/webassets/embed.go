// Package webassets embeds the files the server ships with: static assets
// served under /static/ and the seed content bundle used until (or instead
// of) a bundle from S3.
package webassets

import (
	"embed"
	"fmt"
	"io/fs"

	"github.com/keithlinneman/celestialexplorer-web/internal/cryptoutil"
)

//go:embed static seed
var embedded embed.FS

// StaticFS is rooted at static/ (starfield.svg, favicon.svg, robots.txt).
func StaticFS() fs.FS { return mustSub("static") }

// StaticHref returns the URL of a static file fingerprinted with its content
// hash, e.g. "/static/starfield.svg?v=0123456789ab". Unknown files get the
// bare URL.
func StaticHref(name string) string {
	base := "/static/" + name
	data, err := fs.ReadFile(embedded, "static/"+name)
	if err != nil {
		return base
	}
	return base + "?v=" + cryptoutil.Short(cryptoutil.SHA256Hex(data))
}

// SeedFS is rooted at seed/ (manifest.json and sections/).
func SeedFS() fs.FS { return mustSub("seed") }

func mustSub(dir string) fs.FS {
	sub, err := fs.Sub(embedded, dir)
	if err != nil {
		panic(fmt.Errorf("webassets: %s subfs: %w", dir, err))
	}
	return sub
}
