package content

import (
	"errors"
	"sync/atomic"
	"time"
)

// ErrNotReady is returned by ReadyErr until a snapshot has been set.
var ErrNotReady = errors.New("content: no active snapshot")

// Manager holds the active snapshot. Reads are lock-free.
type Manager struct {
	active atomic.Pointer[Snapshot]
}

func NewManager() *Manager { return &Manager{} }

// Set stores a copy of s as the active snapshot.
func (m *Manager) Set(s Snapshot) {
	cp := s
	if cp.LoadedAt.IsZero() {
		cp.LoadedAt = time.Now().UTC()
	}
	m.active.Store(&cp)
}

// Get returns the active snapshot and whether it is usable.
func (m *Manager) Get() (*Snapshot, bool) {
	s := m.active.Load()
	return s, s != nil && len(s.Sections) > 0
}

// ContentVersion implements httpmw.ContentInfo.
func (m *Manager) ContentVersion() string {
	if s := m.active.Load(); s != nil {
		return s.Meta.Version
	}
	return ""
}

// ContentHash implements httpmw.ContentInfo.
func (m *Manager) ContentHash() string {
	if s := m.active.Load(); s != nil {
		return s.Meta.SHA256
	}
	return ""
}

func (m *Manager) Source() Source {
	if s := m.active.Load(); s != nil {
		return s.Meta.Source
	}
	return SourceUnknown
}

func (m *Manager) LoadedAt() time.Time {
	if s := m.active.Load(); s != nil {
		return s.LoadedAt
	}
	return time.Time{}
}

// ReadyErr is a readiness probe: nil once a usable snapshot is active.
func (m *Manager) ReadyErr() error {
	if _, ok := m.Get(); !ok {
		return ErrNotReady
	}
	return nil
}

// ContentSource implements httpmw.ContentInfo.
func (m *Manager) ContentSource() string {
	if s := m.active.Load(); s != nil {
		return string(s.Meta.Source)
	}
	return ""
}
