// Package balance implements the line-balancing engine: it measures the
// visual width of display text, splits it into atomic tokens and spreads
// those tokens over a profile-dependent number of lines.
//
// Every function in this package is pure and safe for concurrent use.
package balance

import (
	"errors"
	"fmt"
)

// Profile is a named set of line-count and width rules applied to one
// category of text. Profiles are plain values and are never mutated after
// configuration has been loaded.
type Profile struct {
	Name string

	// MaxLines bounds the number of lines a block may occupy.
	MaxLines int
	// SingleLineMax is the widest flattened text that stays on one line.
	SingleLineMax int
	// DoubleLineMax is the widest flattened text that is split into two
	// lines; anything wider uses three lines when MaxLines allows it.
	DoubleLineMax int
	// Ceiling is the absolute per-line width. It is only used to report
	// overflow, never to choose where to split.
	Ceiling int

	Metric Metric
}

// Validate reports whether p can be used by the engine.
func (p Profile) Validate() error {
	var errs []error
	if p.MaxLines < 1 || p.MaxLines > 3 {
		errs = append(errs, fmt.Errorf("max lines must be between 1 and 3, got %d", p.MaxLines))
	}
	if p.SingleLineMax < 0 {
		errs = append(errs, fmt.Errorf("single line threshold must not be negative, got %d", p.SingleLineMax))
	}
	if p.DoubleLineMax < p.SingleLineMax {
		errs = append(errs, fmt.Errorf("two line threshold %d is below single line threshold %d", p.DoubleLineMax, p.SingleLineMax))
	}
	if p.Ceiling < 1 {
		errs = append(errs, fmt.Errorf("ceiling must be positive, got %d", p.Ceiling))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("profile %q: %w", p.Name, err)
	}
	return nil
}

// SelectLineCount decides how many lines a block of the given gap-inclusive
// width should occupy under p. The result is always in [1, p.MaxLines].
func SelectLineCount(total int, p Profile) int {
	var n int
	switch {
	case total <= p.SingleLineMax:
		n = 1
	case total <= p.DoubleLineMax && p.MaxLines >= 2:
		n = 2
	case p.MaxLines >= 3:
		n = 3
	default:
		n = 2
	}
	if n > p.MaxLines {
		n = p.MaxLines
	}
	if n < 1 {
		n = 1
	}
	return n
}
