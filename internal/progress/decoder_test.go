package progress_test

import (
	"fmt"
	"slices"
	"strings"
	"testing"
	"time"

	"hardsub/internal/progress"
)

// fakeClock advances by step every time it is read.
type fakeClock struct {
	now  time.Time
	step time.Duration
}

func (c *fakeClock) Now() time.Time {
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

func syntheticStream(totalSeconds, stepMillis int) []string {
	var lines []string
	for ms := 0; ms <= totalSeconds*1000; ms += stepMillis {
		lines = append(lines,
			"frame=1",
			fmt.Sprintf("out_time_us=%d", ms*1000),
			"speed=1.0x",
			"progress=continue",
		)
	}
	return append(lines, "progress=end")
}

func TestEventsAreMonotonicBoundedAndThrottled(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0), step: 250 * time.Millisecond}
	dec := progress.NewDecoder(100, progress.WithClock(clock.Now))

	var (
		emitted []progress.Event
		times   []time.Time
	)
	for _, line := range syntheticStream(100, 500) {
		before := clock.now
		if evt, ok := dec.Feed(line); ok {
			emitted = append(emitted, evt)
			times = append(times, before)
		}
	}

	if len(emitted) == 0 {
		t.Fatal("expected events")
	}
	for i, evt := range emitted {
		if evt.Percent < 0 || evt.Percent > 100 {
			t.Fatalf("event %d percent %d out of range", i, evt.Percent)
		}
		if i > 0 && evt.Percent < emitted[i-1].Percent {
			t.Fatalf("percent decreased: %d -> %d", emitted[i-1].Percent, evt.Percent)
		}
		if i > 0 && times[i].Sub(times[i-1]) < 2*time.Second {
			t.Fatalf("events %d and %d only %s apart", i-1, i, times[i].Sub(times[i-1]))
		}
	}
	if dec.Percent() != 100 {
		t.Fatalf("final percent = %d, want 100", dec.Percent())
	}
}

func TestUnknownDurationNeverEmits(t *testing.T) {
	for _, total := range []float64{0, -5} {
		dec := progress.NewDecoder(total)
		if dec.Enabled() {
			t.Fatalf("decoder with total %v should be disabled", total)
		}
		for _, line := range syntheticStream(10, 100) {
			if _, ok := dec.Feed(line); ok {
				t.Fatalf("decoder with total %v emitted an event", total)
			}
		}
	}
}

func TestFirstEventIsImmediate(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	dec := progress.NewDecoder(10, progress.WithClock(clock.Now))
	evt, ok := dec.Feed("out_time_us=2500000")
	if !ok {
		t.Fatal("first progress line should emit")
	}
	if evt.Percent != 25 {
		t.Fatalf("percent = %d, want 25", evt.Percent)
	}
	if _, ok := dec.Feed("out_time_us=5000000"); ok {
		t.Fatal("second line within the interval should be throttled")
	}
	clock.now = clock.now.Add(2 * time.Second)
	evt, ok = dec.Feed("out_time_us=6000000")
	if !ok || evt.Percent != 60 {
		t.Fatalf("expected 60%% after interval, got %+v ok=%v", evt, ok)
	}
}

func TestOutTimeMsIsMicroseconds(t *testing.T) {
	dec := progress.NewDecoder(4)
	evt, ok := dec.Feed("out_time_ms=1000000")
	if !ok || evt.Percent != 25 {
		t.Fatalf("expected 25%%, got %+v ok=%v", evt, ok)
	}
}

func TestFeedIgnoresNoise(t *testing.T) {
	dec := progress.NewDecoder(10)
	for _, line := range []string{"", "garbage", "out_time_us=N/A", "out_time_us=-1", "out_time=00:00:01.000000", "bitrate=100kbits/s"} {
		if _, ok := dec.Feed(line); ok {
			t.Fatalf("line %q should not emit", line)
		}
	}
}

func TestPercentDoesNotRegress(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0), step: 3 * time.Second}
	dec := progress.NewDecoder(10, progress.WithClock(clock.Now))
	dec.Feed("out_time_us=5000000")
	evt, ok := dec.Feed("out_time_us=1000000")
	if !ok {
		t.Fatal("expected event after interval")
	}
	if evt.Percent != 50 {
		t.Fatalf("percent regressed to %d", evt.Percent)
	}
}

func TestEventsSequence(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0), step: time.Second}
	dec := progress.NewDecoder(100, progress.WithClock(clock.Now), progress.WithInterval(time.Second))
	src := progress.Lines(strings.NewReader("out_time_us=10000000\nout_time_us=20000000\nprogress=end\n"))

	var got []int
	for evt := range dec.Events(src.All()) {
		got = append(got, evt.Percent)
	}
	if err := src.Err(); err != nil {
		t.Fatalf("line source error: %v", err)
	}
	if !slices.Equal(got, []int{10, 20}) {
		t.Fatalf("events = %v", got)
	}
}

func TestEventsStopsWhenConsumerStops(t *testing.T) {
	dec := progress.NewDecoder(100, progress.WithInterval(time.Nanosecond))
	lines := slices.Values([]string{"out_time_us=1000000", "out_time_us=2000000", "out_time_us=3000000"})
	count := 0
	for range dec.Events(lines) {
		count++
		break
	}
	if count != 1 {
		t.Fatalf("expected early stop after 1 event, got %d", count)
	}
}

func TestPercent(t *testing.T) {
	tests := []struct {
		elapsed, total time.Duration
		want           int
	}{
		{0, 10 * time.Second, 0},
		{999 * time.Millisecond, 10 * time.Second, 9},
		{5 * time.Second, 10 * time.Second, 50},
		{15 * time.Second, 10 * time.Second, 100},
		{5 * time.Second, 0, 0},
		{-time.Second, 10 * time.Second, 0},
	}
	for _, tt := range tests {
		if got := progress.Percent(tt.elapsed, tt.total); got != tt.want {
			t.Errorf("Percent(%s, %s) = %d, want %d", tt.elapsed, tt.total, got, tt.want)
		}
	}
}
