package assets

import (
	"path/filepath"
	"strings"
)

// Kind describes how an inbound file was attached.
type Kind int

const (
	// KindDocument is a generic file attachment.
	KindDocument Kind = iota
	// KindVideo is a native video attachment.
	KindVideo
)

var subtitleExtensions = map[string]struct{}{
	".srt": {},
	".ass": {},
	".ssa": {},
}

// IsVideo reports whether an inbound file can serve as the job's video. Video
// attachments always qualify; documents qualify when their MIME type is empty
// or video/*.
func IsVideo(kind Kind, mime string) bool {
	if kind == KindVideo {
		return true
	}
	mime = strings.ToLower(strings.TrimSpace(mime))
	return mime == "" || strings.HasPrefix(mime, "video/")
}

// IsSubtitle reports whether name carries a supported subtitle extension.
func IsSubtitle(name string) bool {
	_, ok := subtitleExtensions[strings.ToLower(filepath.Ext(strings.TrimSpace(name)))]
	return ok
}

// SubtitleExtensions lists the accepted subtitle extensions for prompts.
func SubtitleExtensions() []string {
	return []string{".srt", ".ass", ".ssa"}
}
