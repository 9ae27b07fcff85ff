// Package theme holds the CelestialExplorer design tokens and compiles them
// into the stylesheet the site serves.
//
// Markup never carries inline style attributes. Components reference the
// exported class names below and the compiled [Sheet] supplies the rules, so
// the CSP can stay at style-src 'self'.
package theme

// Class names shared between the compiled stylesheet and the markup.
const (
	ClassApp         = "app"
	ClassNavbar      = "navbar"
	ClassContainer   = "container"
	ClassNavRow      = "nav-row"
	ClassLogo        = "logo"
	ClassLogoSymbol  = "logo-symbol"
	ClassNavLinks    = "nav-links"
	ClassHero        = "hero"
	ClassSubtitle    = "subtitle"
	ClassTitle       = "title"
	ClassDescription = "description"
	ClassContent     = "content"
	ClassContentBody = "content-body"
	ClassStarfield   = "starfield"
	ClassFooter      = "footer"
	ClassSection     = "fact-section"
	ClassSectionHead = "fact-title"
	ClassNotice      = "notice"
)

// Palette is the color table. Values are CSS color literals.
type Palette struct {
	BackgroundFrom string
	BackgroundTo   string
	NavFrom        string
	NavTo          string
	Text           string
	TextSecondary  string
	Border         string
	Accent         string
	Subtitle       string
	SubtitleGlow   string
	TitleGlow      string
	DescGlow       string
	FooterBg       string
	NavShadow      string
	FooterShadow   string
}

// Typography is font sizing and spacing for the hero and chrome.
type Typography struct {
	LogoLetterSpacing string
	LogoSymbolSize    string
	NavLinkWeight     int
	SubtitleSize      string
	SubtitleWeight    int
	TitleSize         string
	TitleWeight       int
	TitleLineHeight   string
	TitleLetterSpace  string
	DescSize          string
	DescLineHeight    string
	FooterSize        string
	FooterLetterSpace string
}

// Spacing is the layout box model.
type Spacing struct {
	HeroPaddingTop    string
	HeroPaddingBottom string
	NavGap            string
	DescMarginTop     string
	DescMaxWidth      string
	ContentMinHeight  string
	ContentPadBottom  string
	FooterPadding     string
	ContainerMaxWidth string
}

// Tokens is the complete design-token table.
type Tokens struct {
	Palette    Palette
	Typography Typography
	Spacing    Spacing

	// DecorationURL is the starfield image drawn by the background layer.
	DecorationURL string
}

// Default returns the CelestialExplorer look.
func Default() Tokens {
	return Tokens{
		Palette: Palette{
			BackgroundFrom: "#253c5e",
			BackgroundTo:   "#10131D",
			NavFrom:        "#181c24",
			NavTo:          "#253c5e",
			Text:           "#e8ecf4",
			TextSecondary:  "#a9b4c8",
			Border:         "#2a3550",
			Accent:         "#e87a41",
			Subtitle:       "#8cd3ff",
			SubtitleGlow:   "#146fd1",
			TitleGlow:      "#253c5e",
			DescGlow:       "#10131D",
			FooterBg:       "rgba(26, 33, 44, 0.94)",
			NavShadow:      "rgba(20, 24, 38, 0.10)",
			FooterShadow:   "rgba(16, 19, 29, 0.08)",
		},
		Typography: Typography{
			LogoLetterSpacing: "2px",
			LogoSymbolSize:    "20px",
			NavLinkWeight:     500,
			SubtitleSize:      "1.1rem",
			SubtitleWeight:    500,
			TitleSize:         "3.2rem",
			TitleWeight:       700,
			TitleLineHeight:   "1.15",
			TitleLetterSpace:  "1px",
			DescSize:          "1.18rem",
			DescLineHeight:    "1.6",
			FooterSize:        "1rem",
			FooterLetterSpace: "1px",
		},
		Spacing: Spacing{
			HeroPaddingTop:    "110px",
			HeroPaddingBottom: "28px",
			NavGap:            "24px",
			DescMarginTop:     "16px",
			DescMaxWidth:      "520px",
			ContentMinHeight:  "380px",
			ContentPadBottom:  "32px",
			FooterPadding:     "18px 0",
			ContainerMaxWidth: "1100px",
		},
		DecorationURL: "/static/starfield.svg",
	}
}
