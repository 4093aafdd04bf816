// Package classify picks the balancing profile for an input from its path.
package classify

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/cloudflare/ahocorasick"

	"github.com/fsmiamoto/rebalance/internal/balance"
)

// Rule identifies which matcher selected a profile.
type Rule string

const (
	RuleMixed       Rule = "mixed"
	RuleLongPrefix  Rule = "long_prefix"
	RuleShortPrefix Rule = "short_prefix"
	RuleForced      Rule = "forced"
)

// Options describes the classification table.
type Options struct {
	LongForm  balance.Profile
	ShortForm balance.Profile

	LongPrefixes  []string
	ShortPrefixes []string

	// MixedPattern is a regular expression for the category tag of the
	// ambiguous families, e.g. `msg_[ncst]q`. It is followed by a numeric id
	// and an optional trailing letter. Empty disables the rule.
	MixedPattern string
	// MixedSuffixes are the trailing letters that select the long form.
	MixedSuffixes []string
	// MixedFamilies are literal folder prefixes of the ambiguous families.
	// They only feed ScanPrefixes.
	MixedFamilies []string
}

// Match is the result of a successful classification.
type Match struct {
	Profile balance.Profile
	Rule    Rule
	// Token is the part of the key that matched.
	Token string
}

// OverlapError reports a long-form and a short-form prefix that could both
// match the same path segment.
type OverlapError struct {
	Long  string
	Short string
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("classification prefixes overlap: long-form %q and short-form %q", e.Long, e.Short)
}

type matcher interface {
	match(key string) (Match, bool)
}

// Classifier evaluates its matchers in priority order: the mixed-family
// rule, then long-form prefixes, then short-form prefixes.
type Classifier struct {
	matchers []matcher
	scan     []string
}

// New validates opts and builds a Classifier.
func New(opts Options) (*Classifier, error) {
	if err := validatePrefixes(opts.LongPrefixes, opts.ShortPrefixes); err != nil {
		return nil, err
	}

	c := &Classifier{}
	if strings.TrimSpace(opts.MixedPattern) != "" {
		m, err := newMixedMatcher(opts)
		if err != nil {
			return nil, err
		}
		c.matchers = append(c.matchers, m)
	}
	c.matchers = append(c.matchers,
		newPrefixMatcher(opts.LongPrefixes, opts.LongForm, RuleLongPrefix),
		newPrefixMatcher(opts.ShortPrefixes, opts.ShortForm, RuleShortPrefix),
	)

	c.scan = append(c.scan, opts.ShortPrefixes...)
	c.scan = append(c.scan, opts.LongPrefixes...)
	c.scan = append(c.scan, opts.MixedFamilies...)
	return c, nil
}

// Classify returns the profile for key, usually a file path. ok is false
// when no rule applies and the input should be skipped.
func (c *Classifier) Classify(key string) (Match, bool) {
	key = normalize(key)
	for _, m := range c.matchers {
		if match, ok := m.match(key); ok {
			return match, true
		}
	}
	return Match{}, false
}

// ScanPrefixes lists every folder prefix that can lead to a match. Batch
// scans only descend into folders whose name starts with one of them.
func (c *Classifier) ScanPrefixes() []string {
	return append([]string(nil), c.scan...)
}

// WantsDir reports whether files directly inside a folder named name should
// be considered during a batch scan.
func (c *Classifier) WantsDir(name string) bool {
	for _, p := range c.scan {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

func normalize(key string) string {
	key = strings.ReplaceAll(key, "\\", "/")
	if !strings.HasPrefix(key, "/") {
		key = "/" + key
	}
	return key
}

func validatePrefixes(long, short []string) error {
	var errs []error
	for _, p := range append(append([]string(nil), long...), short...) {
		if strings.TrimSpace(p) == "" {
			errs = append(errs, errors.New("classification prefix must not be empty"))
		}
		if strings.ContainsAny(p, "/\\") {
			errs = append(errs, fmt.Errorf("classification prefix %q must not contain a path separator", p))
		}
	}
	for _, l := range long {
		for _, s := range short {
			if strings.HasPrefix(l, s) || strings.HasPrefix(s, l) {
				errs = append(errs, &OverlapError{Long: l, Short: s})
			}
		}
	}
	return errors.Join(errs...)
}

// prefixMatcher matches a key when one of its path segments starts with
// one of the prefixes.
type prefixMatcher struct {
	prefixes []string
	ac       *ahocorasick.Matcher
	profile  balance.Profile
	rule     Rule
}

func newPrefixMatcher(prefixes []string, p balance.Profile, rule Rule) *prefixMatcher {
	m := &prefixMatcher{prefixes: prefixes, profile: p, rule: rule}
	if len(prefixes) == 0 {
		return m
	}
	anchored := make([]string, len(prefixes))
	for i, prefix := range prefixes {
		anchored[i] = "/" + prefix
	}
	m.ac = ahocorasick.NewStringMatcher(anchored)
	return m
}

func (m *prefixMatcher) match(key string) (Match, bool) {
	if m.ac == nil {
		return Match{}, false
	}
	hits := m.ac.MatchThreadSafe([]byte(key))
	if len(hits) == 0 {
		return Match{}, false
	}
	return Match{Profile: m.profile, Rule: m.rule, Token: m.prefixes[hits[0]]}, true
}

// mixedMatcher resolves families that appear under both profiles by the
// letter following their numeric id.
type mixedMatcher struct {
	re       *regexp.Regexp
	suffixes map[string]bool
	long     balance.Profile
	short    balance.Profile
}

func newMixedMatcher(opts Options) (*mixedMatcher, error) {
	if _, err := regexp.Compile(opts.MixedPattern); err != nil {
		return nil, fmt.Errorf("compile mixed pattern %q: %w", opts.MixedPattern, err)
	}
	// The family pattern is grouped so alternations all require the digits.
	re, err := regexp.Compile(`((?:` + opts.MixedPattern + `)\d+)([a-zA-Z]?)`)
	if err != nil {
		return nil, fmt.Errorf("compile mixed pattern %q: %w", opts.MixedPattern, err)
	}
	suffixes := make(map[string]bool, len(opts.MixedSuffixes))
	for _, s := range opts.MixedSuffixes {
		suffixes[strings.ToLower(s)] = true
	}
	return &mixedMatcher{re: re, suffixes: suffixes, long: opts.LongForm, short: opts.ShortForm}, nil
}

func (m *mixedMatcher) match(key string) (Match, bool) {
	sub := m.re.FindStringSubmatch(key)
	if sub == nil {
		return Match{}, false
	}
	if sub[2] != "" && m.suffixes[strings.ToLower(sub[2])] {
		return Match{Profile: m.long, Rule: RuleMixed, Token: sub[0]}, true
	}
	return Match{Profile: m.short, Rule: RuleMixed, Token: sub[0]}, true
}
