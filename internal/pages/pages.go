// Package pages builds the content slots the site renders inside the shell.
package pages

import (
	g "maragu.dev/gomponents"
	h "maragu.dev/gomponents/html"

	"github.com/keithlinneman/celestialexplorer-web/internal/content"
	"github.com/keithlinneman/celestialexplorer-web/internal/theme"
)

// Home renders one fact card per snapshot section, in manifest order. Section
// ids become element ids so the navigation anchors land on them.
func Home(snap *content.Snapshot) g.Node {
	if snap == nil || len(snap.Sections) == 0 {
		return nil
	}
	return g.Map(snap.Sections, section)
}

func section(s content.Section) g.Node {
	return h.Section(h.ID(s.ID), h.Class(theme.ClassSection),
		h.H2(h.Class(theme.ClassSectionHead), g.Text(s.Title)),
		// sanitized at build time
		g.Raw(string(s.HTML)),
	)
}

// NotFound is the slot for unknown paths.
func NotFound() g.Node {
	return notice("Lost in space",
		g.Text("The page you were looking for drifted out of orbit. "),
		h.A(h.Href("/"), g.Text("Return to the home page")),
		g.Text("."),
	)
}

// Maintenance is the slot shown while no content is loaded.
func Maintenance() g.Node {
	return notice("Recalibrating the telescope",
		g.Text("Content is being loaded. Please try again in a minute."),
	)
}

// SlowDown is the slot shown to rate limited clients.
func SlowDown() g.Node {
	return notice("Too many requests",
		g.Text("You are exploring faster than light allows. Please wait a moment and try again."),
	)
}

func notice(title string, body ...g.Node) g.Node {
	return h.Div(h.Class(theme.ClassNotice), g.Attr("role", "status"),
		h.H2(h.Class(theme.ClassSectionHead), g.Text(title)),
		h.P(body...),
	)
}

// Title returns the document title for a page heading under brand.
func Title(brand, page string) string {
	if page == "" {
		return brand
	}
	return page + " | " + brand
}
