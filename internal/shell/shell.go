// Package shell renders the CelestialExplorer page layout around a caller
// supplied content slot.
//
// The layout is a fixed skeleton, in order: navigation bar, hero header,
// main content region, decorative starfield overlay and footer. The slot is
// any gomponents node and is rendered into the main region untouched. Nothing
// else about a render varies except the footer year, which is read from the
// layout clock on every call.
//
// A Layout holds no mutable state and is safe for concurrent use.
package shell

import (
	"fmt"
	"time"

	g "maragu.dev/gomponents"
	h "maragu.dev/gomponents/html"

	"github.com/keithlinneman/celestialexplorer-web/internal/theme"
)

// NavLink is a static label/anchor pair in the navigation bar.
type NavLink struct {
	Label string
	Href  string
}

// Layout is the static content of the shell.
type Layout struct {
	Brand       string
	BrandSymbol string // rendered as a labelled image glyph before Brand
	SymbolLabel string
	Links       []NavLink

	Subtitle    string
	Title       string
	Description string

	FooterTagline string

	// Document head
	Lang           string
	StylesheetHref string
	FaviconHref    string

	// Now is the clock used for the footer year, time.Now when nil.
	Now func() time.Time
}

// Default returns the CelestialExplorer layout.
func Default() Layout {
	return Layout{
		Brand:       "CelestialExplorer",
		BrandSymbol: "⭐",
		SymbolLabel: "Star",
		Links: []NavLink{
			{Label: "Celestial Bodies", Href: "#celestial-bodies"},
			{Label: "Exploration", Href: "#exploration"},
			{Label: "Cosmos", Href: "#cosmos"},
		},
		Subtitle: "Embark on an Interstellar Adventure",
		Title:    "CelestialExplorer",
		Description: "Explore comprehensive information about stars, planets, galaxies, and the universe. " +
			"Discover wonders of astronomy, space exploration, and cosmic phenomena—right at your fingertips.",
		FooterTagline:  "Exploring the cosmos together!",
		Lang:           "en",
		StylesheetHref: "/static/theme.css",
		FaviconHref:    "/static/favicon.svg",
	}
}

// FooterText is the copyright line for year.
func FooterText(brand, tagline string, year int) string {
	return fmt.Sprintf("© %d %s — %s", year, brand, tagline)
}

// Render returns the page body for content. A nil content renders an empty
// main region.
func (l Layout) Render(content g.Node) g.Node {
	// read the clock once per render so the footer is consistent within a pass
	year := l.now().Year()

	return h.Div(h.Class(theme.ClassApp),
		l.navbar(),
		l.hero(),
		h.Main(h.Class(theme.ClassContent),
			h.Div(h.Class(theme.ClassContainer+" "+theme.ClassContentBody), slot(content)),
		),
		decoration(),
		h.Footer(h.Class(theme.ClassFooter),
			g.Text(FooterText(l.Brand, l.FooterTagline, year)),
		),
	)
}

// Document wraps Render in a complete HTML document titled title.
func (l Layout) Document(title string, content g.Node) g.Node {
	if title == "" {
		title = l.Brand
	}
	lang := l.Lang
	if lang == "" {
		lang = "en"
	}
	return h.Doctype(
		h.HTML(h.Lang(lang),
			h.Head(
				h.Meta(h.Charset("utf-8")),
				h.Meta(h.Name("viewport"), h.Content("width=device-width, initial-scale=1")),
				h.TitleEl(g.Text(title)),
				h.Meta(h.Name("description"), h.Content(l.Description)),
				g.If(l.FaviconHref != "", h.Link(h.Rel("icon"), h.Type("image/svg+xml"), h.Href(l.FaviconHref))),
				g.If(l.StylesheetHref != "", h.Link(h.Rel("stylesheet"), h.Href(l.StylesheetHref))),
			),
			h.Body(l.Render(content)),
		),
	)
}

func (l Layout) now() time.Time {
	if l.Now != nil {
		return l.Now()
	}
	return time.Now()
}

func (l Layout) navbar() g.Node {
	return h.Nav(h.Class(theme.ClassNavbar),
		h.Div(h.Class(theme.ClassContainer),
			h.Div(h.Class(theme.ClassNavRow),
				h.Div(h.Class(theme.ClassLogo),
					g.If(l.BrandSymbol != "",
						h.Span(h.Class(theme.ClassLogoSymbol), g.Attr("role", "img"), g.Attr("aria-label", l.SymbolLabel),
							g.Text(l.BrandSymbol),
						),
					),
					g.Text(l.Brand),
				),
				h.Div(h.Class(theme.ClassNavLinks),
					g.Map(l.Links, func(n NavLink) g.Node {
						return h.A(h.Href(n.Href), g.Text(n.Label))
					}),
				),
			),
		),
	)
}

func (l Layout) hero() g.Node {
	return h.Header(h.Class(theme.ClassHero),
		h.Div(h.Class(theme.ClassContainer),
			h.Div(h.Class(theme.ClassSubtitle), g.Text(l.Subtitle)),
			h.H1(h.Class(theme.ClassTitle), g.Text(l.Title)),
			h.Div(h.Class(theme.ClassDescription), g.Text(l.Description)),
		),
	)
}

// decoration is the starfield overlay. The stylesheet keeps it out of flow
// and transparent to pointer events.
func decoration() g.Node {
	return h.Div(h.Class(theme.ClassStarfield), g.Attr("aria-hidden", "true"))
}

func slot(content g.Node) g.Node {
	if content == nil {
		return g.Group(nil)
	}
	return content
}
