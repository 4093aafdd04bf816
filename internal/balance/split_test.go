package balance

import (
	"reflect"
	"strings"
	"testing"
)

func repeatTokens(tok string, n int) []Token {
	out := make([]Token, n)
	for i := range out {
		out[i] = Token(tok)
	}
	return out
}

func TestSplitSingleLine(t *testing.T) {
	got := Split([]Token{"a", "b", "c"}, 1, MetricCodepoints)
	if want := []string{"a b c"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Split = %q, want %q", got, want)
	}
}

func TestSplitThreeEvenLines(t *testing.T) {
	// Eleven 7-wide tokens and one 2-wide token: 79 + 11 gaps = 90.
	tokens := append(repeatTokens("aaaaaaa", 11), "bb")
	if total := TotalWidth(tokens, MetricCodepoints); total != 90 {
		t.Fatalf("setup: total = %d, want 90", total)
	}

	got := Split(tokens, 3, MetricCodepoints)
	want := []string{
		"aaaaaaa aaaaaaa aaaaaaa aaaaaaa",
		"aaaaaaa aaaaaaa aaaaaaa aaaaaaa",
		"aaaaaaa aaaaaaa aaaaaaa bb",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Split = %q, want %q", got, want)
	}

	sum := 0
	for _, line := range got {
		sum += VisualWidth(line)
	}
	if sum+len(got)-1 != 90 {
		t.Fatalf("line widths plus breaks = %d, want 90", sum+len(got)-1)
	}
}

func TestSplitTieIncludesToken(t *testing.T) {
	// Target is 5: "abcd" is 1 short, "abcd e" is 1 over. Ties take the token.
	got := Split([]Token{"abcd", "e", "fgh"}, 2, MetricCodepoints)
	if want := []string{"abcd e", "fgh"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Split = %q, want %q", got, want)
	}
}

func TestSplitStopsAtFirstRegression(t *testing.T) {
	// Target is 5: "a bb" (4) beats "a bb ccc" (8), so the walk stops there.
	got := Split([]Token{"a", "bb", "ccc", "d"}, 2, MetricCodepoints)
	if want := []string{"a bb", "ccc d"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Split = %q, want %q", got, want)
	}
}

func TestSplitRunsOutEarly(t *testing.T) {
	cases := []struct {
		name   string
		tokens []Token
		lines  int
		want   []string
	}{
		{name: "single oversized token", tokens: []Token{Token(strings.Repeat("x", 80))}, lines: 3, want: []string{strings.Repeat("x", 80)}},
		{name: "two tokens three lines", tokens: []Token{"aaaaaaaaaa", "b"}, lines: 3, want: []string{"aaaaaaaaaa", "b"}},
		{name: "no tokens", tokens: nil, lines: 2, want: []string{""}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Split(tc.tokens, tc.lines, MetricCodepoints)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("Split = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestSplitKeepsRubyWhole(t *testing.T) {
	ruby := "[System:Ruby rt=かい]海 辺[/System:Ruby]"
	tokens := Tokenize("the quick brown " + ruby + " fox jumps over the lazy " + ruby + " dog again")
	for lines := 1; lines <= 3; lines++ {
		for _, line := range Split(tokens, lines, MetricCodepoints) {
			if strings.Count(line, "[System:Ruby") != strings.Count(line, "[/System:Ruby]") {
				t.Fatalf("line %q breaks a ruby construct", line)
			}
		}
	}
}

func TestCheckOverflow(t *testing.T) {
	over := strings.Repeat("a", 56)
	ok, w := CheckOverflow("short\n"+over+"\n"+strings.Repeat("b", 70), 55, MetricCodepoints)
	if !ok || w != 56 {
		t.Fatalf("CheckOverflow = (%v, %d), want (true, 56)", ok, w)
	}

	ok, w = CheckOverflow(strings.Repeat("a", 55)+"\nfine", 55, MetricCodepoints)
	if ok || w != 0 {
		t.Fatalf("CheckOverflow = (%v, %d), want (false, 0)", ok, w)
	}

	ruby := "[System:Ruby rt=ながいよみがな]字[/System:Ruby]"
	ok, _ = CheckOverflow(ruby+strings.Repeat("a", 54), 55, MetricCodepoints)
	if ok {
		t.Fatal("ruby annotation must not count toward overflow")
	}
}
