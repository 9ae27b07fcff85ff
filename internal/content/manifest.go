package content

import (
	"bytes"
	"encoding/json"
	"io/fs"
	"regexp"

	"github.com/keithlinneman/celestialexplorer-web/internal/pathutil"
	"github.com/keithlinneman/celestialexplorer-web/internal/xerrors"
)

// ManifestFile is the bundle's table of contents.
const ManifestFile = "manifest.json"

const (
	maxSections     = 64
	maxTitleLen     = 120
	maxManifestSize = 64 * 1024
)

// slugRE matches section ids; ids double as fragment anchors in the nav.
var slugRE = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

type Manifest struct {
	Version  string            `json:"version"`
	Sections []ManifestSection `json:"sections"`
}

type ManifestSection struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	File  string `json:"file"`
}

// ParseManifest decodes and checks a manifest. Unknown fields are rejected so
// typos in published bundles fail loudly.
func ParseManifest(data []byte) (*Manifest, error) {
	if len(data) > maxManifestSize {
		return nil, xerrors.Newf("manifest too large (%d bytes, max %d)", len(data), maxManifestSize)
	}
	var m Manifest
	if err := decodeStrict(data, &m); err != nil {
		return nil, xerrors.Wrap(err, "decode manifest")
	}
	if err := m.check(); err != nil {
		return nil, err
	}
	return &m, nil
}

// ReadManifest reads ManifestFile from fsys.
func ReadManifest(fsys fs.FS) (*Manifest, error) {
	data, err := fs.ReadFile(fsys, ManifestFile)
	if err != nil {
		return nil, xerrors.Wrapf(err, "read %s", ManifestFile)
	}
	return ParseManifest(data)
}

func (m *Manifest) check() error {
	if len(m.Sections) == 0 {
		return xerrors.New("manifest lists no sections")
	}
	if len(m.Sections) > maxSections {
		return xerrors.Newf("manifest lists %d sections, max %d", len(m.Sections), maxSections)
	}
	seen := make(map[string]bool, len(m.Sections))
	for i, s := range m.Sections {
		if !slugRE.MatchString(s.ID) {
			return xerrors.Newf("section %d: id %q is not a lowercase slug", i, s.ID)
		}
		if seen[s.ID] {
			return xerrors.Newf("section %d: duplicate id %q", i, s.ID)
		}
		seen[s.ID] = true
		if s.Title == "" || len(s.Title) > maxTitleLen {
			return xerrors.Newf("section %q: title must be 1..%d bytes", s.ID, maxTitleLen)
		}
		if !fs.ValidPath(s.File) || s.File == "." || pathutil.HasDotSegments(s.File) {
			return xerrors.Newf("section %q: invalid file path %q", s.ID, s.File)
		}
	}
	return nil
}

func decodeStrict(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return xerrors.New("trailing data after manifest object")
	}
	return nil
}
