package balance

import (
	"regexp"
	"strings"
)

// rubySpan locates ruby constructs for tokenizing. It is more lenient about
// the opening tag than rubyGloss so that any annotated span stays whole.
var rubySpan = regexp.MustCompile(`\[System:Ruby.*?\](.*?)\[/System:Ruby\]`)

// Token is an indivisible unit of text: a run of non-space characters or a
// complete ruby construct, which may itself contain spaces.
type Token string

// Flatten turns a multi-line block into a single line: line breaks become
// spaces, whitespace runs collapse to one space and the ends are trimmed.
func Flatten(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// Tokenize splits flattened text on single spaces, keeping spaces that fall
// inside a ruby construct. Empty tokens are dropped and order is preserved.
func Tokenize(flat string) []Token {
	if flat == "" {
		return nil
	}
	var spans [][]int
	if strings.Contains(flat, "[System:Ruby") {
		spans = rubySpan.FindAllStringIndex(flat, -1)
	}

	tokens := make([]Token, 0, strings.Count(flat, " ")+1)
	start, span := 0, 0
	for i := 0; i < len(flat); i++ {
		if flat[i] != ' ' {
			continue
		}
		for span < len(spans) && spans[span][1] <= i {
			span++
		}
		if span < len(spans) && spans[span][0] <= i {
			continue
		}
		if i > start {
			tokens = append(tokens, Token(flat[start:i]))
		}
		start = i + 1
	}
	if start < len(flat) {
		tokens = append(tokens, Token(flat[start:]))
	}
	return tokens
}

// TotalWidth is the width of tokens rendered on a single line: the sum of
// each token's width plus one for every gap between tokens.
func TotalWidth(tokens []Token, m Metric) int {
	if len(tokens) == 0 {
		return 0
	}
	total := len(tokens) - 1
	for _, tok := range tokens {
		total += m.Width(string(tok))
	}
	return total
}

func join(tokens []Token) string {
	switch len(tokens) {
	case 0:
		return ""
	case 1:
		return string(tokens[0])
	}
	var b strings.Builder
	for i, tok := range tokens {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(string(tok))
	}
	return b.String()
}
