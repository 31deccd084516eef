package audio

import (
	"strings"
	"testing"

	"pgregory.net/rapid"
)

func TestSoundURL_EmptyName(t *testing.T) {
	if got := SoundURL("", "./sounds"); got != "" {
		t.Errorf("Expected empty URL for empty name, got %q", got)
	}
}

func TestSoundURL_RelativeName(t *testing.T) {
	if got := SoundURL("x", "./sounds/"); got != "./sounds/x" {
		t.Errorf("Expected ./sounds/x, got %q", got)
	}
	if got := SoundURL("game/click.ogg", "https://cdn.example.com/sfx///"); got != "https://cdn.example.com/sfx/game/click.ogg" {
		t.Errorf("Expected trailing slashes stripped from base, got %q", got)
	}
}

func TestSoundURL_EmptyBaseUsesDefault(t *testing.T) {
	if got := SoundURL("x.ogg", ""); got != "./sounds/x.ogg" {
		t.Errorf("Expected default base, got %q", got)
	}
}

func TestSoundURL_RootBase(t *testing.T) {
	if got := SoundURL("x.ogg", "/"); got != "/x.ogg" {
		t.Errorf("Expected /x.ogg, got %q", got)
	}
}

func TestSoundURL_AbsoluteNamesUnchanged(t *testing.T) {
	names := []string{
		"http://example.com/a.ogg",
		"https://example.com/a.ogg",
		"HTTPS://EXAMPLE.COM/A.OGG",
		"HtTp://example.com/a.ogg",
		"/static/sounds/a.ogg",
	}
	for _, name := range names {
		if got := SoundURL(name, "./sounds"); got != name {
			t.Errorf("Expected %q unchanged, got %q", name, got)
		}
	}
}

func TestIsAbsoluteURL_OtherSchemes(t *testing.T) {
	for _, name := range []string{"ftp://example.com/a.ogg", "data:audio/wav;base64,AAAA", "httpx://a", "sounds/http://a"} {
		if IsAbsoluteURL(name) {
			t.Errorf("Expected %q not to be treated as absolute", name)
		}
	}
}

func TestSoundURL_AbsoluteProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		scheme := rapid.SampledFrom([]string{"http://", "https://", "HTTP://", "Https://", "/"}).Draw(t, "scheme")
		rest := rapid.StringMatching(`[a-z0-9./_-]{0,20}`).Draw(t, "rest")
		base := rapid.StringMatching(`[a-z./]{0,10}`).Draw(t, "base")

		name := scheme + rest
		if got := SoundURL(name, base); got != name {
			t.Fatalf("SoundURL(%q, %q) = %q, want unchanged", name, base, got)
		}
	})
}

func TestSoundURL_RelativeProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		name := rapid.StringMatching(`[a-z0-9_][a-z0-9./_-]{0,20}`).Draw(t, "name")
		base := rapid.StringMatching(`[a-z./]{1,10}`).Draw(t, "base")

		got := SoundURL(name, base)
		if !strings.HasSuffix(got, "/"+name) {
			t.Fatalf("SoundURL(%q, %q) = %q, want suffix /%s", name, base, got, name)
		}
		prefix := strings.TrimSuffix(got, "/"+name)
		if strings.HasSuffix(prefix, "/") {
			t.Fatalf("SoundURL(%q, %q) = %q, base trailing slash not stripped", name, base, got)
		}
	})
}
