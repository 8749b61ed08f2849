package textutil

import "strings"

var fileNameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
	"\x00", "",
)

// SanitizeFileName replaces filesystem-unsafe characters in a filename.
// Slashes, backslashes, colons, and asterisks become dashes; other unsafe
// characters are removed. Leading dots are stripped so the result can never be
// "." or "..". The result is trimmed of surrounding whitespace.
func SanitizeFileName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	name = strings.TrimSpace(fileNameReplacer.Replace(name))
	return strings.TrimLeft(name, ".")
}

// SessionToken maps a session identifier onto a directory-safe token. ASCII
// letters, digits, hyphens and underscores are kept; every other byte becomes
// an underscore. Nothing is trimmed or case-folded, so distinct identifiers of
// the same length never collapse onto one another unless they differ only in
// replaced characters. Empty input yields "anonymous".
func SessionToken(id string) string {
	if id == "" {
		return "anonymous"
	}
	var b strings.Builder
	b.Grow(len(id))
	for i := 0; i < len(id); i++ {
		c := id[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
			b.WriteByte(c)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
