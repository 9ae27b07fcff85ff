package pages

import (
	"strings"
	"testing"

	g "maragu.dev/gomponents"

	"github.com/keithlinneman/celestialexplorer-web/internal/content"
	"github.com/keithlinneman/celestialexplorer-web/internal/theme"
)

func render(t *testing.T, n g.Node) string {
	t.Helper()
	if n == nil {
		return ""
	}
	var b strings.Builder
	if err := n.Render(&b); err != nil {
		t.Fatalf("Render: %v", err)
	}
	return b.String()
}

func TestHome_SectionsInOrder(t *testing.T) {
	snap := &content.Snapshot{Sections: []content.Section{
		{ID: "celestial-bodies", Title: "Celestial Bodies", HTML: []byte("<p>Mars fact card</p>")},
		{ID: "exploration", Title: "Exploration", HTML: []byte("<p>Voyager</p>")},
		{ID: "cosmos", Title: "Cosmos", HTML: []byte("<p>Big Bang</p>")},
	}}
	out := render(t, Home(snap))

	prev := -1
	for _, id := range []string{"celestial-bodies", "exploration", "cosmos"} {
		i := strings.Index(out, `<section id="`+id+`" class="`+theme.ClassSection+`">`)
		if i < 0 {
			t.Fatalf("section %q missing in %s", id, out)
		}
		if i < prev {
			t.Fatalf("section %q out of order", id)
		}
		prev = i
	}
	if !strings.Contains(out, "<p>Mars fact card</p>") {
		t.Fatalf("section html not embedded: %s", out)
	}
}

func TestHome_TitleEscaped(t *testing.T) {
	snap := &content.Snapshot{Sections: []content.Section{
		{ID: "x", Title: "<b>Io</b>", HTML: []byte("<p>moon</p>")},
	}}
	out := render(t, Home(snap))
	if strings.Contains(out, "<b>Io</b>") || !strings.Contains(out, "&lt;b&gt;Io&lt;/b&gt;") {
		t.Fatalf("title not escaped: %s", out)
	}
}

func TestHome_Empty(t *testing.T) {
	if Home(nil) != nil {
		t.Fatal("nil snapshot should give nil slot")
	}
	if Home(&content.Snapshot{}) != nil {
		t.Fatal("empty snapshot should give nil slot")
	}
}

func TestNotices(t *testing.T) {
	nf := render(t, NotFound())
	if !strings.Contains(nf, `class="`+theme.ClassNotice+`"`) || !strings.Contains(nf, `href="/"`) {
		t.Fatalf("NotFound = %s", nf)
	}
	m := render(t, Maintenance())
	if !strings.Contains(m, `role="status"`) || strings.Contains(m, "<a") {
		t.Fatalf("Maintenance = %s", m)
	}
	if sd := render(t, SlowDown()); !strings.Contains(sd, "Too many requests") {
		t.Fatalf("SlowDown = %s", sd)
	}
}

func TestTitle(t *testing.T) {
	if got := Title("CelestialExplorer", ""); got != "CelestialExplorer" {
		t.Fatalf("Title = %q", got)
	}
	if got := Title("CelestialExplorer", "Not found"); got != "Not found | CelestialExplorer" {
		t.Fatalf("Title = %q", got)
	}
}
