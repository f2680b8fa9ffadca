// Package theme holds the light and dark colour schemes shared by every view.
package theme

import "github.com/charmbracelet/lipgloss"

// Palette is the set of colours a scheme is built from.
type Palette struct {
	Accent  lipgloss.Color
	Text    lipgloss.Color
	Muted   lipgloss.Color
	Faint   lipgloss.Color
	Select  lipgloss.Color
	Bar     lipgloss.Color
	BarText lipgloss.Color
	Tab     lipgloss.Color
	Error   lipgloss.Color
	Success lipgloss.Color
	// Depth colours cycle for nested reply bars.
	Depth []lipgloss.Color
}

var (
	darkPalette = Palette{
		Accent:  "#4FB3FF",
		Text:    "#FFFFFF",
		Muted:   "#8A8A8A",
		Faint:   "#555555",
		Select:  "#2E2E2E",
		Bar:     "#333333",
		BarText: "#FFFFFF",
		Tab:     "#555555",
		Error:   "#FF5F5F",
		Success: "#5FD787",
		Depth: []lipgloss.Color{
			"#4FB3FF", "#8A8A8A", "#32CD32", "#FFD700", "#FF69B4", "#9370DB", "#20B2AA", "#FF8C42",
		},
	}

	lightPalette = Palette{
		Accent:  "#0B63B6",
		Text:    "#1A1A1A",
		Muted:   "#6B6B6B",
		Faint:   "#A8A8A8",
		Select:  "#E6EEF7",
		Bar:     "#DADADA",
		BarText: "#1A1A1A",
		Tab:     "#C4C4C4",
		Error:   "#C62828",
		Success: "#2E7D32",
		Depth: []lipgloss.Color{
			"#0B63B6", "#6B6B6B", "#2E7D32", "#B8860B", "#C2185B", "#6A1B9A", "#00796B", "#D84315",
		},
	}
)

// Styles are the rendered styles of a scheme.
type Styles struct {
	Palette Palette
	Dark    bool

	Title    lipgloss.Style
	Header   lipgloss.Style
	Meta     lipgloss.Style
	Author   lipgloss.Style
	Bot      lipgloss.Style
	Category lipgloss.Style
	Label    lipgloss.Style
	Hint     lipgloss.Style
	Error    lipgloss.Style
	Success  lipgloss.Style
	Selected lipgloss.Style
	Dim      lipgloss.Style
	Focused  lipgloss.Style
	Unread   lipgloss.Style

	Bar       lipgloss.Style
	BarTab    lipgloss.Style
	BarActive lipgloss.Style
	BarUser   lipgloss.Style
	BarBadge  lipgloss.Style
	BarAlert  lipgloss.Style
}

func build(p Palette, dark bool) *Styles {
	return &Styles{
		Palette:  p,
		Dark:     dark,
		Title:    lipgloss.NewStyle().Foreground(p.Accent).Bold(true).Padding(1, 0),
		Header:   lipgloss.NewStyle().Foreground(p.Text).Bold(true).Padding(0, 1),
		Meta:     lipgloss.NewStyle().Foreground(p.Muted),
		Author:   lipgloss.NewStyle().Foreground(p.Accent).Bold(true),
		Bot:      lipgloss.NewStyle().Foreground(p.Bar).Background(p.Accent).Bold(true).Padding(0, 1),
		Category: lipgloss.NewStyle().Foreground(p.Accent),
		Label:    lipgloss.NewStyle().Foreground(p.Text).Bold(true),
		Hint:     lipgloss.NewStyle().Foreground(p.Muted),
		Error:    lipgloss.NewStyle().Foreground(p.Error),
		Success:  lipgloss.NewStyle().Foreground(p.Success),
		Selected: lipgloss.NewStyle().Background(p.Select),
		Dim:      lipgloss.NewStyle().Foreground(p.Faint).Italic(true),
		Focused:  lipgloss.NewStyle().Foreground(p.Accent),
		Unread:   lipgloss.NewStyle().Foreground(p.Error).Bold(true),

		Bar:       lipgloss.NewStyle().Background(p.Bar).Foreground(p.BarText),
		BarTab:    lipgloss.NewStyle().Background(p.Tab).Foreground(p.BarText).Padding(0, 1),
		BarActive: lipgloss.NewStyle().Background(p.Accent).Foreground(p.Bar).Bold(true).Padding(0, 1),
		BarUser:   lipgloss.NewStyle().Background(p.Bar).Foreground(p.Success).Padding(0, 1),
		BarBadge:  lipgloss.NewStyle().Background(p.Error).Foreground(lipgloss.Color("#FFFFFF")).Bold(true).Padding(0, 1),
		BarAlert:  lipgloss.NewStyle().Background(p.Error).Foreground(lipgloss.Color("#FFFFFF")).Bold(true).Padding(0, 1),
	}
}

var current = build(lightPalette, false)

// Current returns the active styles. Views call it at render time so a
// theme switch applies on the next frame.
func Current() *Styles {
	return current
}

// Set switches between the dark and light schemes. It must be called from
// the Bubble Tea update loop.
func Set(dark bool) {
	if dark {
		current = build(darkPalette, true)
	} else {
		current = build(lightPalette, false)
	}
}

// DepthColor returns the bar colour for a reply depth starting at 1.
func (s *Styles) DepthColor(depth int) lipgloss.Color {
	d := s.Palette.Depth
	return d[max(depth-1, 0)%len(d)]
}
