package tui

import "github.com/charmbracelet/lipgloss"

// Color constants for the blue-accent theme.
var (
	ColorAccent   = lipgloss.Color("69")  // blue, primary accent
	colorChange   = lipgloss.Color("114") // soft green
	colorOverflow = lipgloss.Color("214") // orange
	colorError    = lipgloss.Color("196") // red
	colorDim      = lipgloss.Color("242") // gray
	colorBright   = lipgloss.Color("255") // white
	colorInfo     = lipgloss.Color("248") // light gray
	colorSelected = lipgloss.Color("45")  // cyan
)

var (
	focusedBorderColor = lipgloss.Color("63")

	titleStyle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true)

	counterStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	counterValueStyle = lipgloss.NewStyle().
				Foreground(colorBright).
				Bold(true)
)

// kindStyle returns the style for an event kind in the stream pane.
func kindStyle(kind string) lipgloss.Style {
	switch kind {
	case "change":
		return lipgloss.NewStyle().Foreground(colorChange)
	case "overflow":
		return lipgloss.NewStyle().Foreground(colorOverflow)
	case "file_error":
		return lipgloss.NewStyle().Foreground(colorError)
	case "file_skipped":
		return lipgloss.NewStyle().Foreground(colorDim)
	case "file_written":
		return lipgloss.NewStyle().Foreground(colorInfo)
	default:
		return lipgloss.NewStyle().Foreground(colorBright)
	}
}

func statusStyleFor(level statusLevel) lipgloss.Style {
	switch level {
	case statusSuccess:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	case statusWarn:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	case statusError:
		return lipgloss.NewStyle().Foreground(colorError).Bold(true)
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	}
}

func headerStyleForRunStatus(status string) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)
	switch runStatusLevel(status) {
	case statusSuccess:
		return base.Foreground(lipgloss.Color("42"))
	case statusWarn:
		return base.Foreground(lipgloss.Color("220"))
	case statusError:
		return base.Foreground(colorError)
	default:
		return base.Foreground(colorSelected)
	}
}
