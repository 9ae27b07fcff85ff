package content

import (
	"bytes"

	"github.com/keithlinneman/celestialexplorer-web/internal/xerrors"
)

// ValidationOptions controls which checks ValidateSnapshot performs.
type ValidationOptions struct {
	// MinSections rejects snapshots with fewer sections. 0 disables the check.
	MinSections int

	// RequireSections lists ids that must be present, e.g. the nav anchors.
	RequireSections []string
}

// DefaultValidationOptions requires the three sections the nav links to.
func DefaultValidationOptions() ValidationOptions {
	return ValidationOptions{
		MinSections:     3,
		RequireSections: []string{"celestial-bodies", "exploration", "cosmos"},
	}
}

// ValidateSnapshot runs sanity checks before a snapshot goes live.
func ValidateSnapshot(snap *Snapshot, opts ValidationOptions) error {
	if snap == nil {
		return xerrors.New("validate: snapshot is nil")
	}
	if opts.MinSections > 0 && len(snap.Sections) < opts.MinSections {
		return xerrors.Newf("validate: bundle has %d sections, minimum is %d", len(snap.Sections), opts.MinSections)
	}
	for _, sec := range snap.Sections {
		if len(bytes.TrimSpace(sec.HTML)) == 0 {
			return xerrors.Newf("validate: section %q rendered empty", sec.ID)
		}
	}
	for _, id := range opts.RequireSections {
		if _, ok := snap.Section(id); !ok {
			return xerrors.Newf("validate: required section %q missing", id)
		}
	}
	return nil
}
