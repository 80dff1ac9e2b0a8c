package theme

import "github.com/charmbracelet/lipgloss"

// Palette is the set of terminal styles for one mode.
type Palette struct {
	Mode Mode

	App        lipgloss.Style
	Title      lipgloss.Style
	Tab        lipgloss.Style
	ActiveTab  lipgloss.Style
	Panel      lipgloss.Style
	Muted      lipgloss.Style
	Code       lipgloss.Style
	Countdown  lipgloss.Style
	Expired    lipgloss.Style
	Success    lipgloss.Style
	Failure    lipgloss.Style
	PreviewExt lipgloss.Style

	// Gradient endpoints for progress bars.
	ProgressFrom string
	ProgressTo   string
}

type colors struct {
	bg, fg, muted, accent, accentFg, border, success, failure, code string
}

var (
	darkColors = colors{
		bg:       "#0f172a",
		fg:       "#e2e8f0",
		muted:    "#64748b",
		accent:   "#6366f1",
		accentFg: "#ffffff",
		border:   "#334155",
		success:  "#22c55e",
		failure:  "#ef4444",
		code:     "#a5b4fc",
	}
	lightColors = colors{
		bg:       "#f8fafc",
		fg:       "#0f172a",
		muted:    "#94a3b8",
		accent:   "#4f46e5",
		accentFg: "#ffffff",
		border:   "#cbd5e1",
		success:  "#15803d",
		failure:  "#b91c1c",
		code:     "#3730a3",
	}
)

// PaletteFor builds the styles for mode.
func PaletteFor(mode Mode) Palette {
	c := darkColors
	if mode == Light {
		c = lightColors
	}

	return Palette{
		Mode: mode,
		App: lipgloss.NewStyle().
			Foreground(lipgloss.Color(c.fg)).
			Background(lipgloss.Color(c.bg)).
			Padding(1, 2),
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(c.accent)),
		Tab: lipgloss.NewStyle().
			Foreground(lipgloss.Color(c.muted)).
			Padding(0, 2),
		ActiveTab: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(c.accentFg)).
			Background(lipgloss.Color(c.accent)).
			Padding(0, 2),
		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(c.border)).
			Padding(1, 2),
		Muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color(c.muted)),
		Code: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(c.code)).
			Padding(0, 1),
		Countdown: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(c.fg)),
		Expired: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(c.failure)),
		Success: lipgloss.NewStyle().
			Foreground(lipgloss.Color(c.accentFg)).
			Background(lipgloss.Color(c.success)).
			Padding(0, 1),
		Failure: lipgloss.NewStyle().
			Foreground(lipgloss.Color(c.accentFg)).
			Background(lipgloss.Color(c.failure)).
			Padding(0, 1),
		PreviewExt: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(c.accent)),
		ProgressFrom: c.accent,
		ProgressTo:   c.code,
	}
}
