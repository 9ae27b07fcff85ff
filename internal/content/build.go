package content

import (
	"io/fs"
	"time"

	"github.com/keithlinneman/celestialexplorer-web/internal/markdown"
	"github.com/keithlinneman/celestialexplorer-web/internal/xerrors"
)

// maxSectionSize bounds a single Markdown source file.
const maxSectionSize int64 = 256 * 1024

// Build reads the manifest from fsys and renders every section. meta.Version
// defaults to the manifest version. The snapshot is not validated; callers
// run ValidateSnapshot with their own options.
func Build(fsys fs.FS, meta Meta) (*Snapshot, error) {
	if fsys == nil {
		return nil, xerrors.New("build: nil filesystem")
	}
	m, err := ReadManifest(fsys)
	if err != nil {
		return nil, err
	}

	sections := make([]Section, 0, len(m.Sections))
	for _, ms := range m.Sections {
		src, err := readSection(fsys, ms.File)
		if err != nil {
			return nil, xerrors.Wrapf(err, "section %q", ms.ID)
		}
		sections = append(sections, Section{
			ID:    ms.ID,
			Title: ms.Title,
			HTML:  markdown.Render(src),
		})
	}

	if meta.Version == "" {
		meta.Version = m.Version
	}
	if meta.Source == "" {
		meta.Source = SourceUnknown
	}
	return &Snapshot{
		FS:       fsys,
		Meta:     meta,
		Sections: sections,
		LoadedAt: time.Now().UTC(),
	}, nil
}

func readSection(fsys fs.FS, name string) ([]byte, error) {
	info, err := fs.Stat(fsys, name)
	if err != nil {
		return nil, xerrors.Wrapf(err, "stat %s", name)
	}
	if !info.Mode().IsRegular() {
		return nil, xerrors.Newf("%s is not a regular file", name)
	}
	if info.Size() > maxSectionSize {
		return nil, xerrors.Newf("%s exceeds max size (%d > %d)", name, info.Size(), maxSectionSize)
	}
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, xerrors.Wrapf(err, "read %s", name)
	}
	return data, nil
}

// LoadSeed builds the bundle compiled into the binary.
func LoadSeed(fsys fs.FS) (*Snapshot, error) {
	snap, err := Build(fsys, Meta{Source: SourceSeed})
	if err != nil {
		return nil, xerrors.Wrap(err, "build seed content")
	}
	if err := ValidateSnapshot(snap, DefaultValidationOptions()); err != nil {
		return nil, xerrors.Wrap(err, "seed content")
	}
	return snap, nil
}
