package tui

import "github.com/charmbracelet/lipgloss"

// Theme is the palette shared by every view.
type Theme struct {
	Base     lipgloss.Color
	Surface0 lipgloss.Color
	Surface1 lipgloss.Color
	Text     lipgloss.Color
	Subtext  lipgloss.Color
	Overlay  lipgloss.Color
	Primary  lipgloss.Color
	Green    lipgloss.Color
	Yellow   lipgloss.Color
	Red      lipgloss.Color
	Blue     lipgloss.Color
	Teal     lipgloss.Color
}

// DarkTheme is the default palette.
func DarkTheme() Theme {
	return Theme{
		Base:     lipgloss.Color("#1e1e2e"),
		Surface0: lipgloss.Color("#313244"),
		Surface1: lipgloss.Color("#45475a"),
		Text:     lipgloss.Color("#cdd6f4"),
		Subtext:  lipgloss.Color("#a6adc8"),
		Overlay:  lipgloss.Color("#6c7086"),
		Primary:  lipgloss.Color("#b4befe"),
		Green:    lipgloss.Color("#a6e3a1"),
		Yellow:   lipgloss.Color("#f9e2af"),
		Red:      lipgloss.Color("#f38ba8"),
		Blue:     lipgloss.Color("#89b4fa"),
		Teal:     lipgloss.Color("#94e2d5"),
	}
}

// LightTheme targets light terminal backgrounds.
func LightTheme() Theme {
	return Theme{
		Base:     lipgloss.Color("#eff1f5"),
		Surface0: lipgloss.Color("#ccd0da"),
		Surface1: lipgloss.Color("#bcc0cc"),
		Text:     lipgloss.Color("#4c4f69"),
		Subtext:  lipgloss.Color("#6c6f85"),
		Overlay:  lipgloss.Color("#9ca0b0"),
		Primary:  lipgloss.Color("#7287fd"),
		Green:    lipgloss.Color("#40a02b"),
		Yellow:   lipgloss.Color("#df8e1d"),
		Red:      lipgloss.Color("#d20f39"),
		Blue:     lipgloss.Color("#1e66f5"),
		Teal:     lipgloss.Color("#179299"),
	}
}

// ThemeByName maps a config theme name to a palette, defaulting to
// dark.
func ThemeByName(name string) Theme {
	if name == "light" {
		return LightTheme()
	}
	return DarkTheme()
}

// Styles bundles the pre-built lipgloss styles derived from a theme.
type Styles struct {
	Theme Theme

	Title      lipgloss.Style
	StatusBar  lipgloss.Style
	Help       lipgloss.Style
	ErrorBadge lipgloss.Style

	Axis         lipgloss.Style
	Tick         lipgloss.Style
	Marker       lipgloss.Style
	MarkerHot    lipgloss.Style
	Cluster      lipgloss.Style
	Badge        lipgloss.Style
	Tooltip      lipgloss.Style
	Progress     lipgloss.Style
	ProgressDone lipgloss.Style

	ListItem     lipgloss.Style
	ListSelected lipgloss.Style
	ListHeader   lipgloss.Style
	PreviewBox   lipgloss.Style
}

// NewStyles derives the style set for a theme.
func NewStyles(t Theme) Styles {
	return Styles{
		Theme: t,

		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(t.Primary),
		StatusBar: lipgloss.NewStyle().
			Foreground(t.Subtext).
			Background(t.Surface0).
			Padding(0, 1),
		Help: lipgloss.NewStyle().
			Foreground(t.Overlay),
		ErrorBadge: lipgloss.NewStyle().
			Background(t.Red).
			Foreground(t.Base).
			Bold(true).
			Padding(0, 1),

		Axis:      lipgloss.NewStyle().Foreground(t.Surface1),
		Tick:      lipgloss.NewStyle().Foreground(t.Overlay),
		Marker:    lipgloss.NewStyle().Foreground(t.Blue),
		MarkerHot: lipgloss.NewStyle().Foreground(t.Yellow).Bold(true),
		Cluster:   lipgloss.NewStyle().Foreground(t.Teal).Bold(true),
		Badge:     lipgloss.NewStyle().Foreground(t.Green),
		Tooltip: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Primary).
			Padding(0, 1),
		Progress:     lipgloss.NewStyle().Foreground(t.Surface1),
		ProgressDone: lipgloss.NewStyle().Foreground(t.Primary),

		ListItem: lipgloss.NewStyle().Foreground(t.Text),
		ListSelected: lipgloss.NewStyle().
			Foreground(t.Base).
			Background(t.Primary).
			Bold(true),
		ListHeader: lipgloss.NewStyle().
			Foreground(t.Subtext).
			Bold(true),
		PreviewBox: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Surface1).
			Padding(0, 1),
	}
}
