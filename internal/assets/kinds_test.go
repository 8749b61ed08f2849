package assets_test

import (
	"testing"

	"hardsub/internal/assets"
)

func TestIsVideo(t *testing.T) {
	tests := []struct {
		name string
		kind assets.Kind
		mime string
		want bool
	}{
		{"video attachment", assets.KindVideo, "", true},
		{"video attachment odd mime", assets.KindVideo, "application/octet-stream", true},
		{"mp4 document", assets.KindDocument, "video/mp4", true},
		{"mkv document upper", assets.KindDocument, "Video/X-Matroska", true},
		{"document without mime", assets.KindDocument, "", true},
		{"pdf document", assets.KindDocument, "application/pdf", false},
		{"subtitle document", assets.KindDocument, "application/x-subrip", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := assets.IsVideo(tt.kind, tt.mime); got != tt.want {
				t.Fatalf("IsVideo(%v, %q) = %v, want %v", tt.kind, tt.mime, got, tt.want)
			}
		})
	}
}

func TestIsSubtitle(t *testing.T) {
	tests := map[string]bool{
		"movie.srt":    true,
		"movie.ASS":    true,
		"movie.ssa":    true,
		"movie.vtt":    false,
		"movie.srt.gz": false,
		"srt":          false,
		"":             false,
	}
	for name, want := range tests {
		if got := assets.IsSubtitle(name); got != want {
			t.Errorf("IsSubtitle(%q) = %v, want %v", name, got, want)
		}
	}
}
