package content

import (
	"io/fs"
	"time"
)

type Source string

const (
	SourceUnknown Source = "unknown"
	SourceSeed    Source = "seed"
	SourceS3      Source = "s3"
)

// Meta describes where a snapshot came from.
type Meta struct {
	Version    string    `json:"version,omitempty"`
	SHA256     string    `json:"sha256,omitempty"`
	Source     Source    `json:"source,omitempty"`
	VerifiedAt time.Time `json:"verified_at,omitempty"`
	Signed     bool      `json:"signed,omitempty"`
}

// Section is one rendered fact card. HTML is already sanitized.
type Section struct {
	ID    string
	Title string
	HTML  []byte
}

// Snapshot is an immutable, fully rendered content bundle.
type Snapshot struct {
	FS       fs.FS
	Meta     Meta
	Sections []Section
	LoadedAt time.Time
}

// Section returns the section with id.
func (s *Snapshot) Section(id string) (Section, bool) {
	if s == nil {
		return Section{}, false
	}
	for _, sec := range s.Sections {
		if sec.ID == id {
			return sec, true
		}
	}
	return Section{}, false
}
