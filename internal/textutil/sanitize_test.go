package textutil_test

import (
	"testing"

	"hardsub/internal/textutil"
)

func TestSanitizeFileName(t *testing.T) {
	tests := map[string]string{
		"movie.mp4":           "movie.mp4",
		"  spaced name.srt  ": "spaced name.srt",
		"a/b\\c:d*e.mkv":      "a-b-c-d-e.mkv",
		"what?\"<>|.ass":      "what.ass",
		"../../etc/passwd":    "-..-etc-passwd",
		"..":                  "",
		"":                    "",
	}
	for in, want := range tests {
		if got := textutil.SanitizeFileName(in); got != want {
			t.Errorf("SanitizeFileName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSessionToken(t *testing.T) {
	tests := map[string]string{
		"12345:678":  "12345_678",
		"-100123:42": "-100123_42",
		"abc_DEF-1":  "abc_DEF-1",
		"../x":       "___x",
		"":           "anonymous",
	}
	for in, want := range tests {
		if got := textutil.SessionToken(in); got != want {
			t.Errorf("SessionToken(%q) = %q, want %q", in, got, want)
		}
	}
}
