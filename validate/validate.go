// Package validate holds the pure field validators used on every write
// path: Chilean RUT numbers, E.164 phone numbers, email addresses, URLs and
// money guards. Functions normalize their input and return it, or fail with
// a *folio.ValidationError carrying the field name. They perform no I/O and
// no logging.
//
// Empty input passes through unchanged wherever the field is optional;
// callers enforce presence separately with Required.
package validate

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/australsoft/folio"
)

var (
	emailRe   = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	phoneRe   = regexp.MustCompile(`^\+?[0-9]{8,15}$`)
	phoneSep  = regexp.MustCompile(`[\s\-().]+`)
	trigramRe = regexp.MustCompile(`^[A-Z]{3}$`)
	rutJunk   = regexp.MustCompile(`[^0-9Kk]`)
)

// Required trims value and fails when nothing remains.
func Required(field, value string) (string, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return "", folio.NewValidationError(field, errors.New("is required"))
	}
	return v, nil
}

// MinLen trims value and requires at least n characters. Empty input passes
// through; combine with Required for mandatory fields.
func MinLen(field, value string, n int) (string, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return "", nil
	}
	if len([]rune(v)) < n {
		return "", folio.NewValidationError(field, fmt.Errorf("must be at least %d characters", n))
	}
	return v, nil
}

// Email normalizes an address to trimmed lowercase and checks it against a
// simplified RFC 5322 shape. Empty input passes through.
func Email(field, value string) (string, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return "", nil
	}
	if !emailRe.MatchString(v) {
		return "", folio.NewValidationError(field, fmt.Errorf("%q is not a valid email address", value))
	}
	return v, nil
}

// Phone checks value against E.164: an optional leading plus and 8 to 15
// digits, ignoring spaces, dashes, dots and parentheses. The original
// (unstripped) form is returned on success so display formatting survives.
// Empty input passes through.
func Phone(field, value string) (string, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return "", nil
	}
	stripped := phoneSep.ReplaceAllString(v, "")
	if !phoneRe.MatchString(stripped) {
		return "", folio.NewValidationError(field, fmt.Errorf("%q is not a valid phone number", value))
	}
	return v, nil
}

// RUT validates a Chilean Rol Único Tributario and normalizes it to the
// canonical "NNNNNNNN-D" form with an uppercase check digit. Dots, dashes
// and any other separators are ignored on input. Empty input passes
// through.
func RUT(field, value string) (string, error) {
	if strings.TrimSpace(value) == "" {
		return "", nil
	}
	clean := rutJunk.ReplaceAllString(value, "")
	if len(clean) < 2 {
		return "", folio.NewValidationError(field, fmt.Errorf("%q is too short for a RUT", value))
	}
	body, digit := clean[:len(clean)-1], strings.ToUpper(clean[len(clean)-1:])
	for _, r := range body {
		if r < '0' || r > '9' {
			return "", folio.NewValidationError(field, fmt.Errorf("%q has a non-numeric RUT body", value))
		}
	}
	if expected := rutCheckDigit(body); digit != expected {
		return "", folio.NewValidationError(field, fmt.Errorf("%q has check digit %s, expected %s", value, digit, expected))
	}
	return body + "-" + digit, nil
}

// rutCheckDigit computes the mod-11 check digit over the reversed body
// digits multiplied by the cyclic factor sequence 2..7.
func rutCheckDigit(body string) string {
	sum, factor := 0, 2
	for i := len(body) - 1; i >= 0; i-- {
		sum += int(body[i]-'0') * factor
		factor++
		if factor > 7 {
			factor = 2
		}
	}
	switch d := 11 - sum%11; d {
	case 11:
		return "0"
	case 10:
		return "K"
	default:
		return fmt.Sprintf("%d", d)
	}
}

// URL trims value and requires an http:// or https:// prefix,
// case-insensitively. Empty input passes through.
func URL(field, value string) (string, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return "", nil
	}
	lower := strings.ToLower(v)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return "", folio.NewValidationError(field, fmt.Errorf("%q must start with http:// or https://", value))
	}
	return v, nil
}

// Trigram normalizes value to uppercase and requires exactly three ASCII
// letters. Empty input passes through.
func Trigram(field, value string) (string, error) {
	v := strings.ToUpper(strings.TrimSpace(value))
	if v == "" {
		return "", nil
	}
	if !trigramRe.MatchString(v) {
		return "", folio.NewValidationError(field, fmt.Errorf("%q must be exactly three uppercase letters", value))
	}
	return v, nil
}

// NonNegative fails when d is negative.
func NonNegative(field string, d decimal.Decimal) error {
	if d.IsNegative() {
		return folio.NewValidationError(field, fmt.Errorf("must be non-negative, got %s", d))
	}
	return nil
}

// OptionalNonNegative fails when d is present and negative. Null passes
// through.
func OptionalNonNegative(field string, d decimal.NullDecimal) error {
	if !d.Valid {
		return nil
	}
	return NonNegative(field, d.Decimal)
}

// Positive fails when d is zero or negative.
func Positive(field string, d decimal.Decimal) error {
	if !d.IsPositive() {
		return folio.NewValidationError(field, fmt.Errorf("must be positive, got %s", d))
	}
	return nil
}

// NonNegativeInt fails when n is negative.
func NonNegativeInt(field string, n int64) error {
	if n < 0 {
		return folio.NewValidationError(field, fmt.Errorf("must be non-negative, got %d", n))
	}
	return nil
}

// PositiveID fails unless n is a positive identifier.
func PositiveID(field string, n int64) error {
	if n <= 0 {
		return folio.NewValidationError(field, fmt.Errorf("must be a positive id, got %d", n))
	}
	return nil
}

// Range fails when d falls outside [min, max].
func Range(field string, d, min, max decimal.Decimal) error {
	if d.LessThan(min) || d.GreaterThan(max) {
		return folio.NewValidationError(field, fmt.Errorf("must be between %s and %s, got %s", min, max, d))
	}
	return nil
}

// Year fails unless y is a plausible four-digit document year.
func Year(field string, y int) error {
	if y < 1900 || y > 9999 {
		return folio.NewValidationError(field, fmt.Errorf("must be a four-digit year, got %d", y))
	}
	return nil
}
