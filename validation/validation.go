// Package validation collects field violations into a map keyed by field
// name. Validators only record the first problem they find per field.
package validation

import (
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/facilidevis/facilidevis/internal/common"
)

type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

// Err converts the violations into a *common.ValidationError, or nil.
func (v Violations) Err() error {
	return common.NewValidationError(v)
}

func (v Violations) set(field, code string) {
	if _, exists := v[field]; !exists {
		v[field] = code
	}
}

// Basic validators
func Required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v.set(field, "required")
	}
}

func PositiveFloat(field string, val float64, v Violations) {
	if val <= 0 {
		v.set(field, "must_be_positive")
	}
}

func NonNegativeFloat(field string, val float64, v Violations) {
	if val < 0 {
		v.set(field, "must_not_be_negative")
	}
}

func RangeFloat(field string, val, minVal, maxVal float64, v Violations) {
	if val < minVal || val > maxVal {
		v.set(field, "out_of_range")
	}
}

// MinLen counts runes, not bytes, so accented names are measured correctly.
func MinLen(field, value string, n int, v Violations) {
	if utf8.RuneCountInString(strings.TrimSpace(value)) < n {
		v.set(field, "too_short")
	}
}

func MaxLen(field, value string, n int, v Violations) {
	if utf8.RuneCountInString(value) > n {
		v.set(field, "too_long")
	}
}

// Email accepts an empty value; combine with Required when mandatory.
func Email(field, value string, v Violations) {
	if value == "" {
		return
	}
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != value {
		v.set(field, "invalid_email")
	}
}

var frenchPhone = regexp.MustCompile(`^(\+33|0)[1-9](\d{2}){4}$`)

// Phone validates a French phone number. Spaces are ignored; an empty value
// is accepted.
func Phone(field, value string, v Violations) {
	if value == "" {
		return
	}
	if !frenchPhone.MatchString(strings.ReplaceAll(value, " ", "")) {
		v.set(field, "invalid_phone")
	}
}
