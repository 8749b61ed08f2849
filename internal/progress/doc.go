// Package progress turns ffmpeg's machine-readable progress stream into
// throttled display events.
//
// ffmpeg started with "-progress pipe:1" writes blocks of key=value lines to
// stdout; out_time_us (or the historically misnamed out_time_ms, which is also
// microseconds) carries the encoded output position. A Decoder converts those
// positions into whole percentages against a known total duration and emits at
// most one event per interval of wall-clock time, because every event becomes
// an edit of a single rate-limited chat message.
package progress
