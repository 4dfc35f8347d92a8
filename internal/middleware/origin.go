package middleware

import "strings"

// OriginAllowed reports whether origin matches the allowlist. A "*" entry
// allows every origin.
func OriginAllowed(allowed []string, origin string) bool {
	for _, candidate := range allowed {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.EqualFold(candidate, origin) {
			return true
		}
	}
	return false
}
