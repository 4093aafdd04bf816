package tui

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
	runewidth "github.com/mattn/go-runewidth"
)

// WrapLine breaks line into pieces no wider than width terminal cells. Game
// text often has no spaces, so breaks fall wherever the width runs out.
func WrapLine(line string, width int) []string {
	if width <= 0 || runewidth.StringWidth(line) <= width {
		return []string{line}
	}

	var out []string
	var cur strings.Builder
	curW := 0
	for _, r := range line {
		rw := runewidth.RuneWidth(r)
		if curW+rw > width && curW > 0 {
			out = append(out, cur.String())
			cur.Reset()
			curW = 0
		}
		cur.WriteRune(r)
		curW += rw
	}
	if curW > 0 {
		out = append(out, cur.String())
	}
	return out
}

// WrapText applies WrapLine to every line of text.
func WrapText(text string, width int) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		out = append(out, WrapLine(line, width)...)
	}
	return out
}

// fit truncates a possibly styled line to width cells.
func fit(line string, width int) string {
	if width <= 0 {
		return ""
	}
	return ansi.Truncate(line, width, "…")
}
