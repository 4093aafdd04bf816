package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fsmiamoto/rebalance/internal/balance"
	"github.com/fsmiamoto/rebalance/internal/classify"
)

// Runtime is the validated, immutable form of a Config handed to the
// runner. It is built once at startup.
type Runtime struct {
	Config     Config
	Profiles   map[string]balance.Profile
	Classifier *classify.Classifier
}

// Build validates cfg and converts it into a Runtime.
func Build(cfg Config) (*Runtime, error) {
	if err := Validate(cfg); err != nil {
		return nil, err
	}

	profiles := make(map[string]balance.Profile, len(cfg.Profiles))
	for key, p := range cfg.Profiles {
		metric, err := balance.ParseMetric(p.Metric)
		if err != nil {
			return nil, fmt.Errorf("profiles.%s: %w", key, err)
		}
		bp := balance.Profile{
			Name:          key,
			MaxLines:      p.MaxLines,
			SingleLineMax: p.SplitThresholdFor2,
			DoubleLineMax: p.SplitThresholdFor3,
			Ceiling:       p.AbsoluteMaxWidth,
			Metric:        metric,
		}
		if err := bp.Validate(); err != nil {
			return nil, err
		}
		profiles[key] = bp
	}

	long := cfg.Profiles[cfg.Classify.LongForm]
	short := cfg.Profiles[cfg.Classify.ShortForm]
	classifier, err := classify.New(classify.Options{
		LongForm:      profiles[cfg.Classify.LongForm],
		ShortForm:     profiles[cfg.Classify.ShortForm],
		LongPrefixes:  long.Prefixes,
		ShortPrefixes: short.Prefixes,
		MixedPattern:  cfg.Classify.MixedPattern,
		MixedSuffixes: cfg.Classify.MixedSuffixes,
		MixedFamilies: cfg.Classify.MixedFamilies,
	})
	if err != nil {
		return nil, fmt.Errorf("build classifier: %w", err)
	}

	return &Runtime{Config: cfg, Profiles: profiles, Classifier: classifier}, nil
}

// Profile looks a profile up by key.
func (r *Runtime) Profile(name string) (balance.Profile, bool) {
	p, ok := r.Profiles[name]
	return p, ok
}

// ProfileForLines returns the only profile whose MaxLines is n. It backs
// the --mode override (2 = two-line cinematic, 3 = three-line standard).
func (r *Runtime) ProfileForLines(n int) (balance.Profile, error) {
	var matches []string
	for _, name := range r.ProfileNames() {
		if r.Profiles[name].MaxLines == n {
			matches = append(matches, name)
		}
	}
	switch len(matches) {
	case 0:
		return balance.Profile{}, fmt.Errorf("no profile allows %d lines", n)
	case 1:
		return r.Profiles[matches[0]], nil
	default:
		return balance.Profile{}, fmt.Errorf("mode %d is ambiguous between profiles %s; use --profile", n, strings.Join(matches, ", "))
	}
}

// ProfileNames returns profile keys in sorted order.
func (r *Runtime) ProfileNames() []string {
	names := make([]string, 0, len(r.Profiles))
	for name := range r.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DisplayName returns the human label of a profile, falling back to its key.
func (r *Runtime) DisplayName(name string) string {
	if p, ok := r.Config.Profiles[name]; ok && p.DisplayName != "" {
		return p.DisplayName
	}
	return name
}
