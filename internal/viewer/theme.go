package viewer

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/loupedev/loupe/internal/event"
)

// Theme defines the colors used by the viewer.
type Theme struct {
	Name string

	Background string
	Surface    string

	Text    string
	Muted   string
	Faint   string
	Accent  string
	Success string
	Warning string
	Danger  string
	Info    string

	SelectionBg   string
	SelectionText string
	BorderFocus   string

	// LevelColors maps severity onto display colors.
	LevelColors map[event.Level]string
}

// Styles returns pre-built Lipgloss styles for this theme.
func (t Theme) Styles() Styles {
	return Styles{
		Text:       lipgloss.NewStyle().Foreground(lipgloss.Color(t.Text)),
		MutedText:  lipgloss.NewStyle().Foreground(lipgloss.Color(t.Muted)),
		FaintText:  lipgloss.NewStyle().Foreground(lipgloss.Color(t.Faint)),
		AccentText: lipgloss.NewStyle().Foreground(lipgloss.Color(t.Accent)),
		DangerText: lipgloss.NewStyle().Foreground(lipgloss.Color(t.Danger)).Bold(true),
		Header: lipgloss.NewStyle().
			Background(lipgloss.Color(t.Surface)).
			Foreground(lipgloss.Color(t.Text)).
			Padding(0, 1),
		Status: lipgloss.NewStyle().
			Background(lipgloss.Color(t.Surface)).
			Foreground(lipgloss.Color(t.Muted)).
			Padding(0, 1),
		Logo: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Warning)).
			Bold(true),
		Selected: lipgloss.NewStyle().
			Background(lipgloss.Color(t.SelectionBg)).
			Foreground(lipgloss.Color(t.SelectionText)),
		levelColors: t.LevelColors,
		muted:       t.Muted,
	}
}

// Styles contains pre-built Lipgloss styles for the theme.
type Styles struct {
	Text       lipgloss.Style
	MutedText  lipgloss.Style
	FaintText  lipgloss.Style
	AccentText lipgloss.Style
	DangerText lipgloss.Style

	Header   lipgloss.Style
	Status   lipgloss.Style
	Logo     lipgloss.Style
	Selected lipgloss.Style

	levelColors map[event.Level]string
	muted       string
}

// LevelStyle returns the style for a severity label.
func (s Styles) LevelStyle(l event.Level) lipgloss.Style {
	color := s.levelColors[l]
	if color == "" {
		color = s.muted
	}
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(color))
	if l >= event.LevelError {
		style = style.Bold(true)
	}
	return style
}

// Theme definitions

var themes = map[string]Theme{
	"Nightfox": nightfoxTheme(),
	"Kanagawa": kanagawaTheme(),
}

var themeOrder = []string{"Nightfox", "Kanagawa"}

// GetTheme returns a theme by name.
func GetTheme(name string) Theme {
	if t, ok := themes[name]; ok {
		return t
	}
	return nightfoxTheme()
}

// NextTheme returns the next theme name in the cycle.
func NextTheme(current string) string {
	for i, name := range themeOrder {
		if name == current {
			return themeOrder[(i+1)%len(themeOrder)]
		}
	}
	return themeOrder[0]
}

func nightfoxTheme() Theme {
	// Nightfox palette: https://github.com/EdenEast/nightfox.nvim
	return Theme{
		Name: "Nightfox",

		Background: "#131a24", // bg0
		Surface:    "#192330", // bg1

		Text:    "#cdcecf", // fg1
		Muted:   "#738091", // comment
		Faint:   "#71839b", // fg3
		Accent:  "#719cd6", // blue
		Success: "#81b29a", // green
		Warning: "#dbc074", // yellow
		Danger:  "#c94f6d", // red
		Info:    "#63cdcf", // cyan

		SelectionBg:   "#2b3b51", // sel0
		SelectionText: "#cdcecf", // fg1
		BorderFocus:   "#719cd6", // blue

		LevelColors: map[event.Level]string{
			event.LevelTrace:    "#71839b", // fg3
			event.LevelDebug:    "#63cdcf", // cyan
			event.LevelInfo:     "#81b29a", // green
			event.LevelWarn:     "#dbc074", // yellow
			event.LevelError:    "#c94f6d", // red
			event.LevelCritical: "#9d79d6", // magenta
		},
	}
}

func kanagawaTheme() Theme {
	// Kanagawa palette: https://github.com/rebelot/kanagawa.nvim
	return Theme{
		Name: "Kanagawa",

		Background: "#16161D", // sumiInk0
		Surface:    "#1F1F28", // sumiInk3

		Text:    "#DCD7BA", // fujiWhite
		Muted:   "#C8C093", // oldWhite
		Faint:   "#727169", // fujiGray
		Accent:  "#7E9CD8", // crystalBlue
		Success: "#98BB6C", // springGreen
		Warning: "#E6C384", // carpYellow
		Danger:  "#E46876", // waveRed
		Info:    "#7FB4CA", // springBlue

		SelectionBg:   "#2D4F67", // waveBlue1
		SelectionText: "#DCD7BA", // fujiWhite
		BorderFocus:   "#7E9CD8", // crystalBlue

		LevelColors: map[event.Level]string{
			event.LevelTrace:    "#727169", // fujiGray
			event.LevelDebug:    "#7FB4CA", // springBlue
			event.LevelInfo:     "#98BB6C", // springGreen
			event.LevelWarn:     "#E6C384", // carpYellow
			event.LevelError:    "#E46876", // waveRed
			event.LevelCritical: "#957FB8", // oniViolet
		},
	}
}
