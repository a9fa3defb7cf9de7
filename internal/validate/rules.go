// Package validate is the declarative input gate that runs before any
// handler logic.
package validate

import (
	"fmt"
	"math"
	"net/mail"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Rule checks or rewrites a single field value. Check returns the value seen
// by the next rule and a message when the value is rejected.
type Rule interface {
	Check(value string, present bool) (string, string)
}

// RuleFunc adapts a function to Rule.
type RuleFunc func(value string, present bool) (string, string)

func (f RuleFunc) Check(value string, present bool) (string, string) {
	return f(value, present)
}

// NotEmpty rejects missing or blank values.
func NotEmpty() Rule {
	return RuleFunc(func(value string, _ bool) (string, string) {
		if strings.TrimSpace(value) == "" {
			return value, "must not be empty"
		}
		return value, ""
	})
}

// MinLength rejects values shorter than n characters.
func MinLength(n int) Rule {
	return RuleFunc(func(value string, _ bool) (string, string) {
		if utf8.RuneCountInString(value) < n {
			return value, fmt.Sprintf("must be at least %d characters long", n)
		}
		return value, ""
	})
}

// IsEmail rejects values that are not a bare email address.
func IsEmail() Rule {
	return RuleFunc(func(value string, _ bool) (string, string) {
		if len(value) > 254 {
			return value, "must be a valid email address"
		}
		addr, err := mail.ParseAddress(value)
		if err != nil || addr.Address != value || !strings.Contains(addr.Address[strings.LastIndex(addr.Address, "@"):], ".") {
			return value, "must be a valid email address"
		}
		return value, ""
	})
}

// NormalizeEmail trims and lower-cases an email address. It never rejects.
func NormalizeEmail() Rule {
	return RuleFunc(func(value string, _ bool) (string, string) {
		return strings.ToLower(strings.TrimSpace(value)), ""
	})
}

// IsUUID rejects values that are not a UUID.
func IsUUID() Rule {
	return RuleFunc(func(value string, _ bool) (string, string) {
		if _, err := uuid.Parse(value); err != nil {
			return value, "must be a valid id"
		}
		return value, ""
	})
}

// IsNumber rejects values that are not a finite decimal number.
func IsNumber() Rule {
	return RuleFunc(func(value string, _ bool) (string, string) {
		if _, ok := parseFinite(value); !ok {
			return value, "must be a number"
		}
		return strings.TrimSpace(value), ""
	})
}

// InRange rejects numbers outside [lo, hi].
func InRange(lo, hi float64) Rule {
	return RuleFunc(func(value string, _ bool) (string, string) {
		n, ok := parseFinite(value)
		if !ok || n < lo || n > hi {
			return value, fmt.Sprintf("must be between %g and %g", lo, hi)
		}
		return value, ""
	})
}

func parseFinite(value string) (float64, bool) {
	n, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

// Optional applies rules only when the field was sent.
func Optional(rules ...Rule) Rule {
	return RuleFunc(func(value string, present bool) (string, string) {
		if !present {
			return value, ""
		}
		for _, rule := range rules {
			var msg string
			value, msg = rule.Check(value, present)
			if msg != "" {
				return value, msg
			}
		}
		return value, ""
	})
}
