package theme

import (
	"fmt"
	"strings"

	"github.com/keithlinneman/celestialexplorer-web/internal/cryptoutil"
)

// Sheet is a compiled stylesheet.
type Sheet struct {
	CSS  []byte
	Hash string // hex sha256 of CSS
}

// Href returns the versioned URL of the sheet under base, e.g.
// "/static/theme.css?v=0123456789ab". The version changes whenever the tokens do.
func (s Sheet) Href(base string) string {
	if s.Hash == "" {
		return base
	}
	return base + "?v=" + s.Version()
}

// Version is the fingerprint carried in the v query parameter of Href.
func (s Sheet) Version() string { return cryptoutil.Short(s.Hash) }

// rule is one selector and its declarations, in output order.
type rule struct {
	selector string
	decls    [][2]string
}

// Compile renders t into CSS. Output is deterministic for equal tokens.
func Compile(t Tokens) Sheet {
	p, ty, sp := t.Palette, t.Typography, t.Spacing

	rules := []rule{
		{":root", [][2]string{
			{"--text-color", p.Text},
			{"--text-secondary", p.TextSecondary},
			{"--border-color", p.Border},
			{"--accent-color", p.Accent},
		}},
		{"*, *::before, *::after", [][2]string{{"box-sizing", "border-box"}}},
		{"body", [][2]string{
			{"margin", "0"},
			{"background", p.BackgroundTo},
			{"font-family", "system-ui, -apple-system, \"Segoe UI\", Roboto, sans-serif"},
		}},
		{cls(ClassApp), [][2]string{
			{"min-height", "100vh"},
			{"display", "flex"},
			{"flex-direction", "column"},
			{"background", fmt.Sprintf("radial-gradient(ellipse at top left, %s 0%%, %s 100%%)", p.BackgroundFrom, p.BackgroundTo)},
			{"background-repeat", "no-repeat"},
			{"color", "var(--text-color)"},
			{"position", "relative"},
			{"overflow-x", "hidden"},
		}},
		{cls(ClassContainer), [][2]string{
			{"max-width", sp.ContainerMaxWidth},
			{"margin", "0 auto"},
			{"padding", "0 20px"},
		}},
		{cls(ClassNavbar), [][2]string{
			{"position", "fixed"},
			{"top", "0"},
			{"left", "0"},
			{"right", "0"},
			{"z-index", "2"},
			{"padding", "14px 0"},
			{"background", fmt.Sprintf("linear-gradient(90deg, %s 75%%, %s 100%%)", p.NavFrom, p.NavTo)},
			{"border-bottom", "1px solid var(--border-color)"},
			{"box-shadow", "0 2px 8px 0 " + p.NavShadow},
		}},
		{cls(ClassNavRow), [][2]string{
			{"display", "flex"},
			{"justify-content", "space-between"},
			{"align-items", "center"},
			{"width", "100%"},
		}},
		{cls(ClassLogo), [][2]string{
			{"letter-spacing", ty.LogoLetterSpacing},
			{"font-weight", "700"},
			{"display", "flex"},
			{"align-items", "center"},
			{"gap", "8px"},
		}},
		{cls(ClassLogoSymbol), [][2]string{{"font-size", ty.LogoSymbolSize}}},
		{cls(ClassNavLinks), [][2]string{
			{"display", "flex"},
			{"gap", sp.NavGap},
			{"align-items", "center"},
		}},
		{cls(ClassNavLinks) + " a", [][2]string{
			{"color", "var(--text-secondary)"},
			{"text-decoration", "none"},
			{"font-weight", fmt.Sprint(ty.NavLinkWeight)},
		}},
		{cls(ClassHero), [][2]string{
			{"padding-top", sp.HeroPaddingTop},
			{"padding-bottom", sp.HeroPaddingBottom},
			{"text-align", "center"},
			{"position", "relative"},
			{"z-index", "1"},
		}},
		{cls(ClassSubtitle), [][2]string{
			{"color", p.Subtitle},
			{"font-weight", fmt.Sprint(ty.SubtitleWeight)},
			{"font-size", ty.SubtitleSize},
			{"text-shadow", "0 1px 8px " + p.SubtitleGlow},
		}},
		{cls(ClassTitle), [][2]string{
			{"font-size", ty.TitleSize},
			{"font-weight", fmt.Sprint(ty.TitleWeight)},
			{"line-height", ty.TitleLineHeight},
			{"margin", "0"},
			{"color", "var(--accent-color)"},
			{"letter-spacing", ty.TitleLetterSpace},
			{"text-shadow", "0 2px 16px " + p.TitleGlow},
		}},
		{cls(ClassDescription), [][2]string{
			{"color", "var(--text-secondary)"},
			{"font-size", ty.DescSize},
			{"line-height", ty.DescLineHeight},
			{"margin", "0 auto"},
			{"margin-top", sp.DescMarginTop},
			{"max-width", sp.DescMaxWidth},
			{"text-shadow", "0 1px 8px " + p.DescGlow},
		}},
		{cls(ClassContent), [][2]string{
			{"flex", "1"},
			{"display", "flex"},
			{"align-items", "flex-start"},
			{"justify-content", "center"},
			{"z-index", "1"},
			{"position", "relative"},
		}},
		{cls(ClassContentBody), [][2]string{
			{"padding-bottom", sp.ContentPadBottom},
			{"width", "100%"},
			{"min-height", sp.ContentMinHeight},
		}},
		{cls(ClassSection), [][2]string{
			{"margin", "0 0 28px"},
			{"padding", "20px 24px"},
			{"border", "1px solid var(--border-color)"},
			{"border-radius", "10px"},
			{"background", "rgba(16, 19, 29, 0.55)"},
		}},
		{cls(ClassSectionHead), [][2]string{
			{"margin", "0 0 12px"},
			{"color", p.Subtitle},
			{"font-size", "1.5rem"},
		}},
		{cls(ClassSection) + " a", [][2]string{{"color", "var(--accent-color)"}}},
		{cls(ClassSection) + " table", [][2]string{
			{"border-collapse", "collapse"},
			{"margin", "12px 0"},
		}},
		{cls(ClassSection) + " th, " + cls(ClassSection) + " td", [][2]string{
			{"padding", "4px 12px"},
			{"border-bottom", "1px solid var(--border-color)"},
			{"text-align", "left"},
		}},
		{cls(ClassNotice), [][2]string{
			{"text-align", "center"},
			{"padding", "48px 0"},
		}},
		{cls(ClassNotice) + " a", [][2]string{{"color", "var(--accent-color)"}}},
		{cls(ClassStarfield), [][2]string{
			{"pointer-events", "none"},
			{"position", "absolute"},
			{"top", "0"},
			{"left", "0"},
			{"right", "0"},
			{"bottom", "0"},
			{"z-index", "0"},
			{"background", fmt.Sprintf("transparent url(%q) repeat", t.DecorationURL)},
		}},
		{cls(ClassFooter), [][2]string{
			{"color", "var(--text-secondary)"},
			{"padding", sp.FooterPadding},
			{"text-align", "center"},
			{"font-size", ty.FooterSize},
			{"background-color", p.FooterBg},
			{"border-top", "1px solid var(--border-color)"},
			{"letter-spacing", ty.FooterLetterSpace},
			{"box-shadow", "0 -2px 4px " + p.FooterShadow},
			{"position", "relative"},
			{"z-index", "1"},
		}},
	}

	var b strings.Builder
	for i, r := range rules {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(r.selector)
		b.WriteString(" {\n")
		for _, d := range r.decls {
			if d[1] == "" {
				continue
			}
			fmt.Fprintf(&b, "  %s: %s;\n", d[0], d[1])
		}
		b.WriteString("}\n")
	}

	css := []byte(b.String())
	return Sheet{CSS: css, Hash: cryptoutil.SHA256Hex(css)}
}

func cls(name string) string { return "." + name }
