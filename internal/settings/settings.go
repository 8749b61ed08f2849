package settings

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Key identifies one configurable encoding option.
type Key string

const (
	KeyResolution Key = "resolution"
	KeyCRF        Key = "crf"
	KeyCodec      Key = "codec"
	KeyPreset     Key = "preset"
	KeyFontName   Key = "font_name"
	KeyFontSize   Key = "font_size"
	KeyMarginV    Key = "margin_v"
)

// ResolutionSource keeps the input dimensions (no rescale).
const ResolutionSource = "source"

var (
	// ErrUnknownKey is returned for option keys outside the catalog.
	ErrUnknownKey = errors.New("unknown option key")
	// ErrUnknownValue is returned for values outside a key's catalog.
	ErrUnknownValue = errors.New("unknown option value")
)

// Option is one selectable choice for a key.
type Option struct {
	Label string
	Value string
}

// Configuration is the full set of chosen option values. Every field always
// holds a value; build it with Defaults and change it with Apply.
type Configuration struct {
	Resolution string
	CRF        string
	Codec      string
	Preset     string
	FontName   string
	FontSize   string
	MarginV    string
}

var keyOrder = []Key{KeyResolution, KeyCRF, KeyCodec, KeyPreset, KeyFontName, KeyFontSize, KeyMarginV}

var labels = map[Key]string{
	KeyResolution: "Resolution",
	KeyCRF:        "CRF",
	KeyCodec:      "Codec",
	KeyPreset:     "Preset",
	KeyFontName:   "Font",
	KeyFontSize:   "Font Size",
	KeyMarginV:    "Bottom Margin",
}

var catalog = map[Key][]Option{
	KeyResolution: {
		{Label: "Source", Value: ResolutionSource},
		{Label: "480p", Value: "480p"},
		{Label: "720p", Value: "720p"},
		{Label: "1080p", Value: "1080p"},
	},
	KeyCRF: {
		{Label: "20 (High Quality)", Value: "20"},
		{Label: "24 (Good)", Value: "24"},
		{Label: "28 (Low Quality)", Value: "28"},
	},
	KeyCodec: {
		{Label: "H.264 (libx264)", Value: "libx264"},
		{Label: "H.265 (libx265)", Value: "libx265"},
	},
	KeyPreset: {
		{Label: "Slow", Value: "slow"},
		{Label: "Medium", Value: "medium"},
		{Label: "Fast", Value: "fast"},
		{Label: "Very Fast", Value: "veryfast"},
	},
	KeyFontName: {
		{Label: "Helvetica Rounded", Value: "HelveticaRounded-Bold"},
	},
	KeyFontSize: {
		{Label: "18", Value: "18"},
		{Label: "24", Value: "24"},
		{Label: "30", Value: "30"},
		{Label: "36", Value: "36"},
	},
	KeyMarginV: {
		{Label: "10", Value: "10"},
		{Label: "25", Value: "25"},
		{Label: "50", Value: "50"},
		{Label: "75", Value: "75"},
	},
}

var dimensions = map[string]string{
	"480p":  "854x480",
	"720p":  "1280x720",
	"1080p": "1920x1080",
}

// Defaults returns the baseline configuration.
func Defaults() Configuration {
	return Configuration{
		Resolution: "720p",
		CRF:        "24",
		Codec:      "libx264",
		Preset:     "medium",
		FontName:   "HelveticaRounded-Bold",
		FontSize:   "24",
		MarginV:    "25",
	}
}

// Keys returns every option key in menu order.
func Keys() []Key {
	return append([]Key(nil), keyOrder...)
}

// ParseKey maps a raw key string onto a catalog key.
func ParseKey(raw string) (Key, bool) {
	key := Key(strings.TrimSpace(raw))
	_, ok := catalog[key]
	return key, ok
}

// Label returns the short display name used on the main menu.
func (k Key) Label() string {
	if label, ok := labels[k]; ok {
		return label
	}
	return string(k)
}

// Title renders the key as a heading, e.g. "font_name" becomes "Font Name".
func (k Key) Title() string {
	words := strings.ReplaceAll(string(k), "_", " ")
	return cases.Title(language.Und).String(words)
}

// Options returns the ordered choice catalog for key.
func Options(key Key) ([]Option, error) {
	opts, ok := catalog[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	return append([]Option(nil), opts...), nil
}

// Apply returns cfg with key set to value. Unknown keys and values outside the
// key's catalog are rejected and cfg is returned unchanged.
func Apply(cfg Configuration, key Key, value string) (Configuration, error) {
	opts, ok := catalog[key]
	if !ok {
		return cfg, fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	if !containsValue(opts, value) {
		return cfg, fmt.Errorf("%w: %s=%q", ErrUnknownValue, key, value)
	}
	next := cfg
	*next.field(key) = value
	return next, nil
}

// Get returns the value chosen for key.
func (c Configuration) Get(key Key) (string, error) {
	if _, ok := catalog[key]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	return *c.field(key), nil
}

// OptionLabel returns the catalog label for the value currently chosen for
// key, falling back to the raw value.
func (c Configuration) OptionLabel(key Key) string {
	value, err := c.Get(key)
	if err != nil {
		return ""
	}
	for _, opt := range catalog[key] {
		if opt.Value == value {
			return opt.Label
		}
	}
	return value
}

// ScaleFor returns the WxH frame size for a resolution value. The second
// return is false for ResolutionSource and unknown values.
func ScaleFor(resolution string) (string, bool) {
	size, ok := dimensions[strings.TrimSpace(resolution)]
	return size, ok
}

func (c *Configuration) field(key Key) *string {
	switch key {
	case KeyResolution:
		return &c.Resolution
	case KeyCRF:
		return &c.CRF
	case KeyCodec:
		return &c.Codec
	case KeyPreset:
		return &c.Preset
	case KeyFontName:
		return &c.FontName
	case KeyFontSize:
		return &c.FontSize
	case KeyMarginV:
		return &c.MarginV
	default:
		panic(fmt.Sprintf("settings: no field for key %q", key))
	}
}

func containsValue(opts []Option, value string) bool {
	for _, opt := range opts {
		if opt.Value == value {
			return true
		}
	}
	return false
}
