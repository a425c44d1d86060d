package viewer

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/loupedev/loupe/internal/event"
)

// ansiColors maps the color names accepted in config files onto ANSI codes.
// Hex values pass through untouched.
var ansiColors = map[string]string{
	"black":   "0",
	"red":     "1",
	"green":   "2",
	"yellow":  "3",
	"blue":    "4",
	"magenta": "5",
	"cyan":    "6",
	"white":   "7",
}

// displayColor resolves a configured color name to a lipgloss color string.
func displayColor(name string) string {
	trimmed := strings.ToLower(strings.TrimSpace(name))
	if code, ok := ansiColors[trimmed]; ok {
		return code
	}
	return trimmed
}

// renderLine renders one event as a colorized display line.
func (m *Model) renderLine(e *event.Event) string {
	styles := m.styles

	// A configured template takes over the whole line.
	if tpl := m.cfg.Template; tpl != "" {
		return styles.Text.Render(event.Render(tpl, e, m.cfg.TimeFormat, m.cfg.UTC))
	}

	ts := e.Timestamp
	if m.cfg.UTC {
		ts = ts.UTC()
	} else {
		ts = ts.In(time.Local)
	}

	handleStyle := styles.AccentText
	if color := displayColor(e.Color); color != "" && color != ansiColors["black"] {
		handleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(color))
	}

	var b strings.Builder
	b.WriteString(styles.FaintText.Render(ts.Format(m.cfg.TimeFormat)))
	b.WriteString(" ")
	b.WriteString(styles.LevelStyle(e.Level).Render(fmt.Sprintf("%-5s", e.Level.Label())))
	b.WriteString(" ")
	b.WriteString(handleStyle.Render("["+e.Handle+"]"))
	b.WriteString(" ")
	b.WriteString(styles.Text.Render(e.Message))
	return b.String()
}

// renderContent renders all visible entries for the viewport.
func (m *Model) renderContent() string {
	snap := m.entries.Snapshot()
	if len(snap) == 0 {
		return m.styles.MutedText.Render("No log entries")
	}
	lines := make([]string, 0, len(snap))
	for _, e := range snap {
		lines = append(lines, m.renderLine(e))
	}
	return strings.Join(lines, "\n")
}
