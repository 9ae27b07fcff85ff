package sitehandler

import (
	"io/fs"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/keithlinneman/celestialexplorer-web/internal/cryptoutil"
	"github.com/keithlinneman/celestialexplorer-web/internal/xerrors"
)

type fileClass int

const (
	classOther fileClass = iota
	classPage
	// stylesheet, images and fonts referenced from pages
	classAsset
)

func classify(name string) fileClass {
	switch strings.ToLower(path.Ext(name)) {
	case "", ".html":
		return classPage
	case ".css", ".js", ".mjs",
		".png", ".jpg", ".jpeg", ".webp", ".gif", ".svg", ".ico",
		".woff", ".woff2", ".ttf", ".eot", ".map":
		return classAsset
	default:
		return classOther
	}
}

// cachePolicy returns Cache-Control for name. An asset is cached forever only
// when the request carried its current fingerprint; otherwise clients
// revalidate against the ETag so a changed file is picked up on next load.
func cachePolicy(name string, fingerprinted bool, o *Options) string {
	switch classify(name) {
	case classPage:
		return o.HTMLCacheControl
	case classAsset:
		if fingerprinted {
			return o.AssetCacheControl
		}
		return o.RevalidateCacheControl
	default:
		return o.OtherCacheControl
	}
}

// fingerprint is the content version of one served file.
type fingerprint struct {
	version string // short sha256, the expected ?v= value
	etag    string
}

func newFingerprint(hash string) fingerprint {
	return fingerprint{version: cryptoutil.Short(hash), etag: strconv.Quote(hash)}
}

// matches reports whether r asked for exactly this version.
func (f fingerprint) matches(r *http.Request) bool {
	v := r.URL.Query().Get("v")
	return v != "" && v == f.version
}

// fingerprintFiles hashes every regular file at the root of fsys.
func fingerprintFiles(fsys fs.FS) (map[string]fingerprint, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, xerrors.Wrap(err, "list static files")
	}
	out := make(map[string]fingerprint, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		data, err := fs.ReadFile(fsys, e.Name())
		if err != nil {
			return nil, xerrors.Wrapf(err, "read static file %s", e.Name())
		}
		out[e.Name()] = newFingerprint(cryptoutil.SHA256Hex(data))
	}
	return out, nil
}

// AssetHref returns the fingerprinted URL of a static file, or the bare URL when
// the file is unknown.
func (h *Handler) AssetHref(name string) string {
	base := staticPrefix + name
	if fp, ok := h.assets[name]; ok {
		return base + "?v=" + fp.version
	}
	return base
}
