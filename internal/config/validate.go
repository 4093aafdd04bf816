package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidationError lists every problem found in a Config.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid config: " + strings.Join(e.Problems, "; ")
}

// Validate checks field constraints and cross references between sections.
func Validate(cfg Config) error {
	var problems []string

	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("validate config: %w", err)
		}
		for _, fe := range verrs {
			problems = append(problems, describe(fe))
		}
	}

	for _, role := range []struct{ field, name string }{
		{"classify.long_form", cfg.Classify.LongForm},
		{"classify.short_form", cfg.Classify.ShortForm},
	} {
		if role.name == "" {
			continue
		}
		if _, ok := cfg.Profiles[role.name]; !ok {
			problems = append(problems, fmt.Sprintf("%s: unknown profile %q", role.field, role.name))
		}
	}

	if len(problems) == 0 {
		return nil
	}
	sort.Strings(problems)
	return &ValidationError{Problems: problems}
}

func describe(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "Config.")
	switch fe.Tag() {
	case "required":
		return field + ": is required"
	case "min", "max", "len":
		return fmt.Sprintf("%s: must satisfy %s=%s (got %v)", field, fe.Tag(), fe.Param(), fe.Value())
	case "oneof":
		return fmt.Sprintf("%s: must be one of [%s] (got %v)", field, fe.Param(), fe.Value())
	case "gtefield":
		return fmt.Sprintf("%s: must be >= %s (got %v)", field, fe.Param(), fe.Value())
	case "nefield":
		return fmt.Sprintf("%s: must differ from %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s: failed %q validation", field, fe.Tag())
	}
}
