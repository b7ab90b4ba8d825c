package fiscal

import "strings"

// AccessKeyLength is the number of digits in a fiscal document access key.
const AccessKeyLength = 44

// NormalizeAccessKey strips every non-digit character from raw and returns
// the resulting 44-digit key. The boolean is false when the remaining digits
// do not form a valid key, in which case the key must be treated as absent.
func NormalizeAccessKey(raw string) (string, bool) {
	var b strings.Builder
	b.Grow(AccessKeyLength)
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	key := b.String()
	if len(key) != AccessKeyLength {
		return "", false
	}
	return key, true
}

// IsValidAccessKey reports whether raw contains exactly 44 digits after
// stripping separators.
func IsValidAccessKey(raw string) bool {
	_, ok := NormalizeAccessKey(raw)
	return ok
}
