package services

import (
	"strings"
)

// NormalizeName lowercases a name, replaces everything outside [a-z0-9\s]
// with a space and collapses runs of whitespace. Idempotent; used to derive
// every ingredient's similarity name, so it must never change behavior
// without a catalog backfill.
func NormalizeName(name string) string {
	lower := strings.ToLower(name)
	var b strings.Builder
	b.Grow(len(lower))
	for _, r := range lower {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// SingularizeToken reduces a lowercase token to a best-effort singular form.
// First matching rule wins. This is a small heuristic, not a morphological
// analyzer; genuinely singular words ending in "s" get clipped and that is
// accepted.
func SingularizeToken(token string) string {
	switch {
	case strings.HasSuffix(token, "berries"):
		return token[:len(token)-3] + "y"
	case strings.HasSuffix(token, "oes"):
		return token[:len(token)-2]
	case strings.HasSuffix(token, "ies"):
		return token[:len(token)-3] + "y"
	case strings.HasSuffix(token, "s") && len(token) > 3:
		return token[:len(token)-1]
	}
	return token
}
