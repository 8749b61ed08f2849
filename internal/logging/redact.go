package logging

import (
	"log/slog"
	"strings"
)

const (
	redactedMarker = "<redacted>"
	minSecretLen   = 4
)

// redactor masks secrets, such as the bot token, in rendered log values.
// Bot API transport errors embed the request URL and with it the token.
type redactor struct {
	replacer *strings.Replacer
}

// newRedactor returns nil when there is nothing to mask.
func newRedactor(secrets []string) *redactor {
	var pairs []string
	for _, secret := range secrets {
		secret = strings.TrimSpace(secret)
		if len(secret) < minSecretLen {
			continue
		}
		pairs = append(pairs, secret, redactedMarker)
	}
	if len(pairs) == 0 {
		return nil
	}
	return &redactor{replacer: strings.NewReplacer(pairs...)}
}

func (r *redactor) apply(s string) string {
	if r == nil {
		return s
	}
	return r.replacer.Replace(s)
}

// value masks string and error values. Other kinds cannot hold a secret.
func (r *redactor) value(v slog.Value) slog.Value {
	if r == nil {
		return v
	}
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindString:
		if masked := r.apply(v.String()); masked != v.String() {
			return slog.StringValue(masked)
		}
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return slog.StringValue(r.apply(err.Error()))
		}
	}
	return v
}
