package progress

import (
	"iter"
	"math"
	"strconv"
	"strings"
	"time"
)

// DefaultInterval is the minimum wall-clock spacing between emitted events.
const DefaultInterval = 2 * time.Second

// Event is one display update.
type Event struct {
	Percent int
	Bar     string
}

// Option customizes a Decoder.
type Option func(*Decoder)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(d *Decoder) {
		if now != nil {
			d.now = now
		}
	}
}

// WithInterval overrides DefaultInterval.
func WithInterval(interval time.Duration) Option {
	return func(d *Decoder) {
		if interval > 0 {
			d.interval = interval
		}
	}
}

// Decoder converts raw progress lines into throttled events. A Decoder is not
// safe for concurrent use.
type Decoder struct {
	total    time.Duration
	interval time.Duration
	now      func() time.Time

	emitted  bool
	lastEmit time.Time
	percent  int
}

// NewDecoder returns a decoder for an input of the given total duration in
// seconds. A total of zero or less means unknown; such a decoder never emits.
func NewDecoder(totalSeconds float64, opts ...Option) *Decoder {
	d := &Decoder{interval: DefaultInterval, now: time.Now}
	if totalSeconds > 0 && !math.IsInf(totalSeconds, 0) && !math.IsNaN(totalSeconds) {
		d.total = time.Duration(totalSeconds * float64(time.Second))
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Enabled reports whether the decoder knows the total duration.
func (d *Decoder) Enabled() bool {
	return d.total > 0
}

// Percent returns the highest percentage observed so far.
func (d *Decoder) Percent() int {
	return d.percent
}

// Feed consumes one raw line. It returns an event and true when the line moved
// progress forward and the throttle window allows an emission. Other keys,
// progress=end included, are ignored.
func (d *Decoder) Feed(line string) (Event, bool) {
	key, value, ok := strings.Cut(strings.TrimSpace(line), "=")
	if !ok {
		return Event{}, false
	}
	switch strings.TrimSpace(key) {
	case "out_time_us", "out_time_ms":
		micros, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil || micros < 0 {
			return Event{}, false
		}
		return d.observe(time.Duration(micros) * time.Microsecond)
	}
	return Event{}, false
}

func (d *Decoder) observe(elapsed time.Duration) (Event, bool) {
	if d.total <= 0 {
		return Event{}, false
	}
	percent := Percent(elapsed, d.total)
	if percent < d.percent {
		percent = d.percent
	}
	d.percent = percent

	now := d.now()
	if d.emitted && now.Sub(d.lastEmit) < d.interval {
		return Event{}, false
	}
	d.emitted = true
	d.lastEmit = now
	return Event{Percent: percent, Bar: RenderBar(percent)}, true
}

// Events lazily decodes lines into throttled events. The sequence ends when
// lines ends or the consumer stops.
func (d *Decoder) Events(lines iter.Seq[string]) iter.Seq[Event] {
	return func(yield func(Event) bool) {
		for line := range lines {
			if evt, ok := d.Feed(line); ok {
				if !yield(evt) {
					return
				}
			}
		}
	}
}

// Percent returns floor(100 * elapsed / total) clamped to 0..100. Unknown
// totals yield 0.
func Percent(elapsed, total time.Duration) int {
	if total <= 0 || elapsed <= 0 {
		return 0
	}
	if elapsed >= total {
		return 100
	}
	return int(elapsed * 100 / total)
}
