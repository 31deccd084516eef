package audio

import (
	"regexp"
	"strings"
)

// DefaultSoundBaseURL is used when no base path is configured.
const DefaultSoundBaseURL = "./sounds"

var absoluteURLPattern = regexp.MustCompile(`(?i)^https?://`)

// IsAbsoluteURL reports whether path carries an http or https scheme.
func IsAbsoluteURL(path string) bool {
	return absoluteURLPattern.MatchString(path)
}

// SoundURL resolves a sound name against base. An empty result means there
// is nothing to play.
func SoundURL(name, base string) string {
	if name == "" {
		return ""
	}
	if IsAbsoluteURL(name) || strings.HasPrefix(name, "/") {
		return name
	}
	if base == "" {
		base = DefaultSoundBaseURL
	}
	return strings.TrimRight(base, "/") + "/" + name
}
