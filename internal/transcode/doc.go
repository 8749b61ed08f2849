// Package transcode supervises one subtitle burn job from font resolution to
// delivery.
//
// Supervisor.Run resolves the configured font, probes the input duration,
// builds the ffmpeg invocation, streams ffmpeg's progress output through a
// progress.Decoder into the caller's Reporter, waits for the process to exit,
// and hands a successful output to Reporter.Deliver. Whatever happens,
// including a panic anywhere in that sequence, the session directory is torn
// down exactly once before Run returns.
//
// Run blocks for the lifetime of the encode; callers run it on its own
// goroutine and consume the returned Result as a message.
package transcode
