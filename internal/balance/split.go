package balance

import (
	"math"
	"strings"
)

// Split distributes tokens over at most lines lines so that each line's
// width approaches total/lines.
//
// Every line but the last is filled by a greedy walk from the front of the
// remaining tokens: a token is accepted while the distance between the line
// width and the target does not grow (ties accept the token), and the walk
// stops at the first token that makes it strictly worse. The last line takes
// whatever remains. Fewer lines are returned when the tokens run out early.
func Split(tokens []Token, lines int, m Metric) []string {
	if lines <= 1 || len(tokens) == 0 {
		return []string{join(tokens)}
	}

	target := float64(TotalWidth(tokens, m)) / float64(lines)
	out := make([]string, 0, lines)
	rest := tokens
	for n := 0; n < lines-1; n++ {
		accepted := 0
		bestDiff := math.Inf(1)
		width := 0
		for i, tok := range rest {
			with := width + m.Width(string(tok))
			if width > 0 {
				with++
			}
			diff := math.Abs(float64(with) - target)
			if diff > bestDiff {
				break
			}
			accepted, bestDiff, width = i+1, diff, with
		}

		out = append(out, join(rest[:accepted]))
		rest = rest[accepted:]
		if len(rest) == 0 {
			break
		}
	}
	if len(rest) > 0 {
		out = append(out, join(rest))
	}
	return out
}

// CheckOverflow measures every line of text and reports the width of the
// first one wider than ceiling. It never changes text.
func CheckOverflow(text string, ceiling int, m Metric) (bool, int) {
	for _, line := range strings.Split(text, "\n") {
		if w := m.Width(line); w > ceiling {
			return true, w
		}
	}
	return false, 0
}
