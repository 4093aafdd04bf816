package balance

import "strings"

// Result is the outcome of balancing one text block.
type Result struct {
	Text  string
	Lines []string
	// Width is the gap-inclusive width of the flattened text.
	Width int

	Overflow      bool
	OverflowWidth int
}

// Changed reports whether balancing rewrote the input.
func (r Result) Changed(input string) bool {
	return r.Text != input
}

// Balance flattens text and re-splits it into the number of lines p calls
// for. Empty or whitespace-only text is returned unchanged.
func Balance(text string, p Profile) string {
	return Process(text, p).Text
}

// Process balances text under p and checks the result against p.Ceiling.
func Process(text string, p Profile) Result {
	if strings.TrimSpace(text) == "" {
		return Result{Text: text}
	}

	tokens := Tokenize(Flatten(text))
	total := TotalWidth(tokens, p.Metric)
	lines := Split(tokens, SelectLineCount(total, p), p.Metric)

	res := Result{
		Text:  strings.Join(lines, "\n"),
		Lines: lines,
		Width: total,
	}
	res.Overflow, res.OverflowWidth = CheckOverflow(res.Text, p.Ceiling, p.Metric)
	return res
}
