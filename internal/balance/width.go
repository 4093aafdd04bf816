package balance

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	runewidth "github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
)

// rubyGloss matches one complete ruby construct and captures its base text.
// The annotation and base are matched lazily so adjacent constructs are
// handled one at a time.
var rubyGloss = regexp.MustCompile(`\[System:Ruby rt=.*?\](.*?)\[/System:Ruby\]`)

// zeroWidth removes characters that never occupy space in a text box.
var zeroWidth = strings.NewReplacer("\u200b", "", "\u200d", "")

// Metric selects how characters are counted once markup is stripped.
type Metric int

const (
	// MetricCodepoints counts Unicode code points. This is how the game's
	// text boxes are budgeted and is the default.
	MetricCodepoints Metric = iota
	// MetricGraphemes counts user-perceived characters.
	MetricGraphemes
	// MetricCells counts monospace terminal cells (East Asian wide = 2).
	MetricCells
)

func (m Metric) String() string {
	switch m {
	case MetricGraphemes:
		return "graphemes"
	case MetricCells:
		return "cells"
	default:
		return "codepoints"
	}
}

// ParseMetric converts a configuration value into a Metric. The empty
// string selects MetricCodepoints.
func ParseMetric(s string) (Metric, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "codepoints":
		return MetricCodepoints, nil
	case "graphemes":
		return MetricGraphemes, nil
	case "cells":
		return MetricCells, nil
	default:
		return MetricCodepoints, fmt.Errorf("unknown width metric %q", s)
	}
}

// Width returns the visual width of text: ruby constructs count as their
// base text only and zero-width characters are ignored. Unterminated markup
// is measured as literal text.
func (m Metric) Width(text string) int {
	clean := zeroWidth.Replace(StripRuby(text))
	switch m {
	case MetricGraphemes:
		return uniseg.GraphemeClusterCount(clean)
	case MetricCells:
		return runewidth.StringWidth(clean)
	default:
		return utf8.RuneCountInString(clean)
	}
}

// VisualWidth is Width under MetricCodepoints.
func VisualWidth(text string) int {
	return MetricCodepoints.Width(text)
}

// StripRuby replaces every ruby construct in text with its base text.
func StripRuby(text string) string {
	if !strings.Contains(text, "[System:Ruby") {
		return text
	}
	return rubyGloss.ReplaceAllString(text, "$1")
}
