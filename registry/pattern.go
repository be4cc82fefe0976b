package registry

import "strings"

// ValidatePattern checks a registry selection pattern (§4.4): "*", a
// "<prefix>*" wildcard, or a valid identifier (lowercase letters, digits,
// hyphens).
func ValidatePattern(pattern string) error {
	if pattern == "*" {
		return nil
	}
	if strings.HasSuffix(pattern, "*") {
		prefix := pattern[:len(pattern)-1]
		if prefix == "" {
			return nil
		}
		if !isValidIdentifierLike(prefix) {
			return &LocalizedError{Kind: ErrBadPattern, Message: "wildcard prefix is not a valid identifier prefix: " + pattern}
		}
		return nil
	}
	if !isValidIdentifierLike(pattern) {
		return &LocalizedError{Kind: ErrBadPattern, Message: "pattern is neither '*', a prefix wildcard, nor a valid identifier: " + pattern}
	}
	return nil
}

// isValidIdentifierLike accepts lowercase letters, digits, and hyphens,
// matching the port-name identifier grammar without vcpkg's reserved-word
// restriction (patterns are prefixes, not names).
func isValidIdentifierLike(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= 'a' && c <= 'z') && !(c >= '0' && c <= '9') && c != '-' {
			return false
		}
	}
	return s[0] != '-' && s[len(s)-1] != '-'
}

// matchRank scores how well pattern matches name, per §4.4: exact match
// ranks highest (reported as the pattern's full length plus one, so it
// always outranks any wildcard on the same name), "prefix*" ranks by
// prefix length, "*" ranks 1, and anything else ranks 0 (no match).
func matchRank(pattern, name string) int {
	switch {
	case pattern == name:
		return len(name) + 1
	case pattern == "*":
		return 1
	case strings.HasSuffix(pattern, "*"):
		prefix := pattern[:len(pattern)-1]
		if strings.HasPrefix(name, prefix) {
			return len(prefix)
		}
		return 0
	default:
		return 0
	}
}
