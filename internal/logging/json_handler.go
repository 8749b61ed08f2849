package logging

import (
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
)

const jsonTimeLayout = "2006-01-02T15:04:05.000Z07:00"

// newJSONHandler emits one object per record with short keys ("ts", "level",
// "msg"), UTC millisecond timestamps and base-name sources. String and error
// values pass through red.
func newJSONHandler(w io.Writer, lvl *slog.LevelVar, addSource bool, red *redactor) slog.Handler {
	replace := func(_ []string, attr slog.Attr) slog.Attr {
		switch attr.Key {
		case slog.TimeKey:
			if attr.Value.Kind() == slog.KindTime {
				return slog.String("ts", attr.Value.Time().UTC().Format(jsonTimeLayout))
			}
			attr.Key = "ts"
		case slog.LevelKey:
			attr.Value = slog.StringValue(strings.ToLower(attr.Value.String()))
		case slog.SourceKey:
			if src, ok := attr.Value.Any().(*slog.Source); ok && src != nil {
				attr.Value = slog.StringValue(filepath.Base(src.File) + ":" + strconv.Itoa(src.Line))
			}
		default:
			attr.Value = red.value(attr.Value)
		}
		return attr
	}
	return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl, AddSource: addSource, ReplaceAttr: replace})
}
