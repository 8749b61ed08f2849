// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Prober: runs ffprobe with a bounded timeout and an injectable runner
//
// Duration is the call the burn pipeline relies on; its failures are meant to
// be treated as non-fatal by callers, which simply lose progress reporting.
package ffprobe
