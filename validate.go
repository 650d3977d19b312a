package fieldwise

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxFieldNameLength is the vendor's limit on field display names.
const MaxFieldNameLength = 50

// ValidationResult carries every violation found in a config. It is a
// value, not an error: missing or malformed attributes are reported, never
// panicked on.
type ValidationResult struct {
	IsValid bool     `json:"isValid"`
	Errors  []string `json:"errors"`
}

// ValidateFieldConfig checks a complete field configuration against the
// naming, length and option-uniqueness rules. All violations are
// collected; nothing short-circuits.
func ValidateFieldConfig(config FieldConfig) ValidationResult {
	errs := []string{}

	name := strings.TrimSpace(config.FieldName)
	if name == "" {
		errs = append(errs, "field name must not be empty")
	} else if utf8.RuneCountInString(name) > MaxFieldNameLength {
		errs = append(errs, fmt.Sprintf("field name must be at most %d characters long", MaxFieldNameLength))
	}

	if config.Type == 0 {
		errs = append(errs, "field type is required")
	} else if !IsKnownType(config.Type) {
		errs = append(errs, fmt.Sprintf("unknown field type %d", config.Type))
	}

	if IsSelectType(config.Type) && config.Property != nil {
		seen := map[string]bool{}
		reported := map[string]bool{}
		for i, opt := range config.Property.Options {
			optName := strings.TrimSpace(opt.Name)
			if optName == "" {
				errs = append(errs, fmt.Sprintf("option %d must have a name", i+1))
				continue
			}
			if seen[optName] && !reported[optName] {
				errs = append(errs, fmt.Sprintf("duplicate option name %q", optName))
				reported[optName] = true
			}
			seen[optName] = true
			if opt.Color < MinOptionColor || opt.Color > MaxOptionColor {
				errs = append(errs, fmt.Sprintf("option %q has an invalid color %d", optName, opt.Color))
			}
		}
	}

	return ValidationResult{IsValid: len(errs) == 0, Errors: errs}
}
