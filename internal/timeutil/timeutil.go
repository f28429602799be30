package timeutil

import (
	"strings"
	"time"
)

// ParseDurationOrDefault parses value as a duration, falling back to
// def when value is empty or malformed. Config duration fields are
// validated at load time, so a fallback here means the field was
// simply left unset.
func ParseDurationOrDefault(value string, def time.Duration) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return def
	}
	if parsed, err := time.ParseDuration(value); err == nil {
		return parsed
	}
	return def
}
