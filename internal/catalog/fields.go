// Package catalog maps bulk-import rows onto catalog entries.
//
// Field parsing is forgiving: a value that cannot be read becomes null
// instead of failing the row. Only a missing id or name rejects a row.
package catalog

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var decimalPattern = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)$`)

// ParseInt parses a numeric field and floors it to an integer.
// Empty, non-numeric, non-finite and out-of-range values return nil.
func ParseInt(s string) *int {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	f = math.Floor(f)
	if f > math.MaxInt32 || f < math.MinInt32 {
		return nil
	}
	n := int(f)
	return &n
}

// ParseDecimal returns the field text unchanged when it is a plain decimal
// number, nil otherwise. Exponents, NaN and Inf are rejected.
func ParseDecimal(s string) *string {
	s = strings.TrimSpace(s)
	if !decimalPattern.MatchString(s) {
		return nil
	}
	return &s
}

// ParseFlag reports whether the field is the literal "1".
func ParseFlag(s string) bool {
	return strings.TrimSpace(s) == "1"
}
