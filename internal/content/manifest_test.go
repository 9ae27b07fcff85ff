package content

import (
	"strings"
	"testing"
)

func TestParseManifest_OK(t *testing.T) {
	m, err := ParseManifest([]byte(bundleFiles("2026.10.1")["manifest.json"]))
	if err != nil {
		t.Fatalf("ParseManifest: %v", err)
	}
	if m.Version != "2026.10.1" || len(m.Sections) != 3 {
		t.Fatalf("manifest = %+v", m)
	}
	if m.Sections[0].ID != "celestial-bodies" || m.Sections[0].File != "sections/celestial-bodies.md" {
		t.Fatalf("first section = %+v", m.Sections[0])
	}
}

func TestParseManifest_Rejects(t *testing.T) {
	cases := map[string]string{
		"not json":       `{`,
		"unknown field":  `{"version":"1","sections":[{"id":"a","title":"A","file":"a.md"}],"extra":1}`,
		"no sections":    `{"version":"1","sections":[]}`,
		"bad slug":       `{"sections":[{"id":"Mars Facts","title":"A","file":"a.md"}]}`,
		"duplicate id":   `{"sections":[{"id":"a","title":"A","file":"a.md"},{"id":"a","title":"B","file":"b.md"}]}`,
		"empty title":    `{"sections":[{"id":"a","title":"","file":"a.md"}]}`,
		"traversal":      `{"sections":[{"id":"a","title":"A","file":"../etc/passwd"}]}`,
		"absolute":       `{"sections":[{"id":"a","title":"A","file":"/a.md"}]}`,
		"dot":            `{"sections":[{"id":"a","title":"A","file":"."}]}`,
		"trailing data":  `{"sections":[{"id":"a","title":"A","file":"a.md"}]} {}`,
		"too long title": `{"sections":[{"id":"a","title":"` + strings.Repeat("x", 200) + `","file":"a.md"}]}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseManifest([]byte(body)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestParseManifest_TooLarge(t *testing.T) {
	big := make([]byte, maxManifestSize+1)
	if _, err := ParseManifest(big); err == nil {
		t.Fatal("expected size error")
	}
}

func TestReadManifest_Missing(t *testing.T) {
	if _, err := ReadManifest(mapFS(map[string]string{"x.md": "x"})); err == nil {
		t.Fatal("expected error for missing manifest")
	}
}
