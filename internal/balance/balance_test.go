package balance

import (
	"fmt"
	"strings"
	"testing"
)

var (
	cinematic = Profile{Name: "cinematic", MaxLines: 2, SingleLineMax: 60, DoubleLineMax: 9999, Ceiling: 75}
	standard  = Profile{Name: "standard", MaxLines: 3, SingleLineMax: 35, DoubleLineMax: 80, Ceiling: 55}
)

func TestSelectLineCount(t *testing.T) {
	cases := []struct {
		profile Profile
		total   int
		want    int
	}{
		{cinematic, 0, 1},
		{cinematic, 60, 1},
		{cinematic, 61, 2},
		{cinematic, 20000, 2},
		{standard, 35, 1},
		{standard, 36, 2},
		{standard, 80, 2},
		{standard, 81, 3},
		{Profile{MaxLines: 1, SingleLineMax: 10, DoubleLineMax: 20, Ceiling: 10}, 100, 1},
	}
	for _, tc := range cases {
		if got := SelectLineCount(tc.total, tc.profile); got != tc.want {
			t.Fatalf("SelectLineCount(%d, %s) = %d, want %d", tc.total, tc.profile.Name, got, tc.want)
		}
	}
}

func TestBalanceShortTextStaysOnOneLine(t *testing.T) {
	words := make([]string, 10)
	for i := range words {
		words[i] = "abcde"
	}
	in := strings.Join(words, " ")
	if w := VisualWidth(in); w != 59 {
		t.Fatalf("setup: width = %d, want 59", w)
	}

	res := Process(in, cinematic)
	if res.Text != in {
		t.Fatalf("Process = %q, want unchanged %q", res.Text, in)
	}
	if res.Overflow {
		t.Fatal("unexpected overflow")
	}
	if res.Changed(in) {
		t.Fatal("Changed reported true for identical output")
	}
}

func TestBalanceFlattensShortText(t *testing.T) {
	got := Balance("Hello\nthere,  friend.", standard)
	if got != "Hello there, friend." {
		t.Fatalf("Balance = %q", got)
	}
}

func TestBalanceEmptyIsNoop(t *testing.T) {
	for _, in := range []string{"", "   ", "\n\n"} {
		if got := Balance(in, standard); got != in {
			t.Fatalf("Balance(%q) = %q, want input unchanged", in, got)
		}
	}
}

func TestBalanceLongFormThreeLines(t *testing.T) {
	in := strings.Repeat("aaaaaaa ", 11) + "bb"
	res := Process(in, standard)
	if len(res.Lines) != 3 {
		t.Fatalf("got %d lines, want 3: %q", len(res.Lines), res.Text)
	}
	if res.Width != 90 {
		t.Fatalf("Width = %d, want 90", res.Width)
	}
	total := 0
	for _, line := range res.Lines {
		w := VisualWidth(line)
		if w < 25 || w > 35 {
			t.Fatalf("line %q has width %d, want close to 30", line, w)
		}
		total += w
	}
	if total+2 != VisualWidth(Flatten(in)) {
		t.Fatalf("lines plus breaks = %d, want %d", total+2, VisualWidth(Flatten(in)))
	}
}

func TestBalanceOversizedTokenOverflows(t *testing.T) {
	in := strings.Repeat("x", 80)
	for _, p := range []Profile{standard, {Name: "cinematic-55", MaxLines: 2, SingleLineMax: 60, DoubleLineMax: 9999, Ceiling: 55}} {
		res := Process(in, p)
		if res.Text != in {
			t.Fatalf("%s: Process = %q, want token alone", p.Name, res.Text)
		}
		if !res.Overflow || res.OverflowWidth != 80 {
			t.Fatalf("%s: overflow = (%v, %d), want (true, 80)", p.Name, res.Overflow, res.OverflowWidth)
		}
	}
}

func sampleTexts() []string {
	ruby := "[System:Ruby rt=かい]海 辺[/System:Ruby]"
	texts := []string{
		"A short line.",
		"We should head to the " + ruby + " before the sun goes down, there is no time to lose.",
		"これは とても 長い 文章 です が 空白 で 区切られて います ので 分割 できる はず です よ ね",
		"Line one\nline two\nline three which has been balanced before by hand",
	}
	for n := 5; n <= 200; n += 15 {
		var b strings.Builder
		for i := 0; b.Len() < n; i++ {
			if i > 0 {
				b.WriteByte(' ')
			}
			fmt.Fprintf(&b, "w%d", i*7%13)
		}
		texts = append(texts, b.String())
	}
	return texts
}

func TestBalanceProperties(t *testing.T) {
	for _, p := range []Profile{cinematic, standard} {
		for _, in := range sampleTexts() {
			res := Process(in, p)

			if n := len(res.Lines); n < 1 || n > p.MaxLines {
				t.Fatalf("%s: %d lines for %q, want 1..%d", p.Name, n, in, p.MaxLines)
			}
			if again := Balance(res.Text, p); again != res.Text {
				t.Fatalf("%s: not idempotent:\nfirst:  %q\nsecond: %q", p.Name, res.Text, again)
			}
			if got := strings.ReplaceAll(res.Text, "\n", " "); got != Flatten(in) {
				t.Fatalf("%s: text changed beyond line breaks:\n got %q\nwant %q", p.Name, got, Flatten(in))
			}
			for _, line := range res.Lines {
				if strings.Count(line, "[System:Ruby") != strings.Count(line, "[/System:Ruby]") {
					t.Fatalf("%s: line %q splits a ruby construct", p.Name, line)
				}
			}
		}
	}
}

func TestProfileValidate(t *testing.T) {
	if err := standard.Validate(); err != nil {
		t.Fatalf("standard profile: %v", err)
	}
	bad := []Profile{
		{Name: "zero lines", MaxLines: 0, SingleLineMax: 1, DoubleLineMax: 2, Ceiling: 1},
		{Name: "four lines", MaxLines: 4, SingleLineMax: 1, DoubleLineMax: 2, Ceiling: 1},
		{Name: "inverted", MaxLines: 2, SingleLineMax: 50, DoubleLineMax: 10, Ceiling: 1},
		{Name: "no ceiling", MaxLines: 2, SingleLineMax: 1, DoubleLineMax: 2},
	}
	for _, p := range bad {
		if err := p.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", p.Name)
		}
	}
}
