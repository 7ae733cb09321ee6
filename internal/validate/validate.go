package validate

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	reID = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
	// Variant references may already be platform gids.
	reVariant = regexp.MustCompile(`^(gid://[A-Za-z0-9/._-]{1,128}|[A-Za-z0-9_-]{1,64})$`)
)

// ID validates a club or case-size identifier.
func ID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && reID.MatchString(s)
}

// VariantID validates a product variant reference, gid or bare.
func VariantID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && reVariant.MatchString(s)
}

// Qty parses a quantity field. Bad input reads as 0 (removal); values
// are clamped to a sane ceiling to avoid abuse, the wizard's own
// capacity checks do the real bounding.
func Qty(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0
	}
	if n > 99 {
		return 99
	}
	return n
}

// Step parses a 1-based step number.
func Step(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	return n, err == nil && n >= 1 && n <= 9
}
