package shared

import "strings"

// Placeholder sentinels shipped in example configs and env templates. Either one means "not configured".
const (
	FanartKeyPlaceholder = "your_fanart_api_key_here"
	TMDBKeyPlaceholder   = "your_tmdb_api_key_here"
)

// IsPlaceholderKey reports whether key is empty or one of the documented placeholder sentinels.
func IsPlaceholderKey(key string) bool {
	switch strings.TrimSpace(key) {
	case "", FanartKeyPlaceholder, TMDBKeyPlaceholder:
		return true
	default:
		return false
	}
}

// FirstKey returns the first candidate that is not a placeholder, or "" when none is usable.
func FirstKey(candidates ...string) string {
	for _, c := range candidates {
		if !IsPlaceholderKey(c) {
			return strings.TrimSpace(c)
		}
	}
	return ""
}

// MaskSecret hides all but the last four runes of a secret.
func MaskSecret(s string) string {
	if s == "" {
		return ""
	}
	r := []rune(s)
	if len(r) <= 4 {
		return strings.Repeat("•", len(r))
	}
	return strings.Repeat("•", 8) + string(r[len(r)-4:])
}
