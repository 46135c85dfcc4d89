package theme

import (
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/muesli/termenv"
)

// Theme centralizes Lip Gloss styles for the Bubble Tea UI.
type Theme struct {
	Header HeaderTheme
	Editor EditorTheme
	Footer FooterTheme
	Modal  ModalTheme
}

// HeaderTheme styles the screen title line.
type HeaderTheme struct {
	Title lipgloss.Style
	Count lipgloss.Style
}

// EditorTheme styles the entry editor.
type EditorTheme struct {
	Frame       lipgloss.Style
	FocusFrame  lipgloss.Style
	Label       lipgloss.Style
	Loading     lipgloss.Style
	LastChange  lipgloss.Style
	ErrorStatus lipgloss.Style
}

// FooterTheme groups styles used by the bottom status/help bar.
type FooterTheme struct {
	Help   lipgloss.Style
	Status lipgloss.Style
	Error  lipgloss.Style
}

// ModalTheme styles the delete confirmation.
type ModalTheme struct {
	Frame lipgloss.Style
	Title lipgloss.Style
	Body  lipgloss.Style
}

type palette struct {
	accent, muted, faint, danger string
}

var (
	darkPalette  = palette{accent: "212", muted: "244", faint: "241", danger: "203"}
	lightPalette = palette{accent: "162", muted: "240", faint: "246", danger: "160"}
)

// Default returns the built-in theme for a dark terminal.
func Default() Theme {
	return build(darkPalette)
}

// Light returns the built-in theme for a light terminal.
func Light() Theme {
	return build(lightPalette)
}

// Detect picks Default or Light from the terminal background.
func Detect() Theme {
	if termenv.HasDarkBackground() {
		return Default()
	}
	return Light()
}

func build(p palette) Theme {
	frame := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(p.faint)).
		Padding(0, 1)

	return Theme{
		Header: HeaderTheme{
			Title: lipgloss.NewStyle().Foreground(lipgloss.Color(p.accent)).Bold(true),
			Count: lipgloss.NewStyle().Foreground(lipgloss.Color(p.muted)),
		},
		Editor: EditorTheme{
			Frame:       frame,
			FocusFrame:  frame.BorderForeground(lipgloss.Color(p.accent)),
			Label:       lipgloss.NewStyle().Foreground(lipgloss.Color(p.muted)),
			Loading:     lipgloss.NewStyle().Foreground(lipgloss.Color(p.muted)).Italic(true),
			LastChange:  lipgloss.NewStyle().Foreground(lipgloss.Color(p.faint)),
			ErrorStatus: lipgloss.NewStyle().Foreground(lipgloss.Color(p.danger)),
		},
		Footer: FooterTheme{
			Help:   lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
			Status: lipgloss.NewStyle().Foreground(lipgloss.Color(p.muted)),
			Error:  lipgloss.NewStyle().Foreground(lipgloss.Color(p.danger)).Bold(true),
		},
		Modal: ModalTheme{
			Frame: lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color(p.danger)).
				Padding(1, 2),
			Title: lipgloss.NewStyle().Bold(true),
			Body:  lipgloss.NewStyle(),
		},
	}
}
