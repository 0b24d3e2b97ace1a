package validation

import (
	"errors"
	"testing"

	"github.com/facilidevis/facilidevis/internal/common"
)

func TestValidators(t *testing.T) {
	tests := []struct {
		name  string
		check func(Violations)
		want  string
	}{
		{"required blank", func(v Violations) { Required("f", "  ", v) }, "required"},
		{"required ok", func(v Violations) { Required("f", "x", v) }, ""},
		{"positive zero", func(v Violations) { PositiveFloat("f", 0, v) }, "must_be_positive"},
		{"non negative zero", func(v Violations) { NonNegativeFloat("f", 0, v) }, ""},
		{"non negative below", func(v Violations) { NonNegativeFloat("f", -0.01, v) }, "must_not_be_negative"},
		{"range", func(v Violations) { RangeFloat("f", 101, 0, 100, v) }, "out_of_range"},
		{"min len accents", func(v Violations) { MinLen("f", "Zoé", 3, v) }, ""},
		{"min len short", func(v Violations) { MinLen("f", "ab ", 3, v) }, "too_short"},
		{"max len", func(v Violations) { MaxLen("f", "abcd", 3, v) }, "too_long"},
		{"email empty", func(v Violations) { Email("f", "", v) }, ""},
		{"email ok", func(v Violations) { Email("f", "jean@example.fr", v) }, ""},
		{"email display name", func(v Violations) { Email("f", "Jean <jean@example.fr>", v) }, "invalid_email"},
		{"email bad", func(v Violations) { Email("f", "jean@", v) }, "invalid_email"},
		{"phone mobile", func(v Violations) { Phone("f", "06 12 34 56 78", v) }, ""},
		{"phone intl", func(v Violations) { Phone("f", "+33612345678", v) }, ""},
		{"phone short", func(v Violations) { Phone("f", "061234", v) }, "invalid_phone"},
		{"phone zero prefix", func(v Violations) { Phone("f", "0012345678", v) }, "invalid_phone"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Violations{}
			tt.check(v)
			if got := v["f"]; got != tt.want {
				t.Fatalf("expected %q got %q", tt.want, got)
			}
		})
	}
}

func TestViolations_FirstWins(t *testing.T) {
	v := Violations{}
	Required("title", "", v)
	MinLen("title", "", 3, v)
	if v["title"] != "required" {
		t.Fatalf("expected first violation kept, got %q", v["title"])
	}
}

func TestViolations_Err(t *testing.T) {
	if err := (Violations{}).Err(); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	err := Violations{"name": "too_short"}.Err()
	var verr *common.ValidationError
	if !errors.As(err, &verr) || verr.Fields["name"] != "too_short" {
		t.Fatalf("expected validation error, got %v", err)
	}
}
