package webassets

import (
	"encoding/xml"
	"io/fs"
	"strings"
	"testing"

	"github.com/keithlinneman/celestialexplorer-web/internal/content"
	"github.com/keithlinneman/celestialexplorer-web/internal/cryptoutil"
)

// ---------------------------------------------------------------------------
// StaticFS
// ---------------------------------------------------------------------------

func TestStaticFS_Files(t *testing.T) {
	fsys := StaticFS()
	for _, name := range []string{"starfield.svg", "favicon.svg", "robots.txt"} {
		info, err := fs.Stat(fsys, name)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if info.IsDir() || info.Size() == 0 {
			t.Fatalf("%s: dir=%v size=%d", name, info.IsDir(), info.Size())
		}
	}
}

func TestStaticFS_StarfieldIsValidSVG(t *testing.T) {
	data, err := fs.ReadFile(StaticFS(), "starfield.svg")
	if err != nil {
		t.Fatal(err)
	}
	var doc struct {
		XMLName xml.Name `xml:"svg"`
		Circles []struct {
			CX      string `xml:"cx,attr"`
			Opacity string `xml:"fill-opacity,attr"`
		} `xml:"circle"`
	}
	if err := xml.Unmarshal(data, &doc); err != nil {
		t.Fatalf("starfield.svg is not well-formed: %v", err)
	}
	if len(doc.Circles) != 6 {
		t.Fatalf("circles = %d, want 6", len(doc.Circles))
	}
	for _, c := range doc.Circles {
		if !strings.HasSuffix(c.CX, "%") || c.Opacity == "" {
			t.Fatalf("unexpected circle %+v", c)
		}
	}
}

func TestStaticHref_Fingerprint(t *testing.T) {
	data, err := fs.ReadFile(StaticFS(), "starfield.svg")
	if err != nil {
		t.Fatal(err)
	}
	want := "/static/starfield.svg?v=" + cryptoutil.Short(cryptoutil.SHA256Hex(data))
	if got := StaticHref("starfield.svg"); got != want {
		t.Fatalf("StaticHref = %q, want %q", got, want)
	}
	if got := StaticHref("missing.svg"); got != "/static/missing.svg" {
		t.Fatalf("missing file = %q", got)
	}
}

func TestStaticFS_Isolation(t *testing.T) {
	if _, err := fs.Stat(StaticFS(), "manifest.json"); err == nil {
		t.Fatal("seed files visible from StaticFS")
	}
	if _, err := fs.Stat(StaticFS(), "../seed"); err == nil {
		t.Fatal("escaped StaticFS via ../")
	}
}

// ---------------------------------------------------------------------------
// SeedFS
// ---------------------------------------------------------------------------

func TestSeedFS_BuildsValidSnapshot(t *testing.T) {
	snap, err := content.LoadSeed(SeedFS())
	if err != nil {
		t.Fatalf("seed bundle invalid: %v", err)
	}
	if snap.Meta.Source != content.SourceSeed || snap.Meta.Version == "" {
		t.Fatalf("meta = %+v", snap.Meta)
	}
	for _, id := range []string{"celestial-bodies", "exploration", "cosmos"} {
		if _, ok := snap.Section(id); !ok {
			t.Errorf("seed missing section %q", id)
		}
	}
}

func TestSeedFS_Isolation(t *testing.T) {
	if _, err := fs.Stat(SeedFS(), "starfield.svg"); err == nil {
		t.Fatal("static files visible from SeedFS")
	}
}

func TestEmbedded_RootDirs(t *testing.T) {
	entries, err := fs.ReadDir(embedded, ".")
	if err != nil {
		t.Fatal(err)
	}
	names := map[string]bool{}
	for _, e := range entries {
		names[e.Name()] = true
	}
	if !names["static"] || !names["seed"] {
		t.Fatalf("root entries = %v", names)
	}
}
