// Package settings holds the encoding option catalog and the per-session
// configuration snapshot.
//
// The catalog is fixed at compile time: every Key has an ordered list of
// choices, and Defaults returns the baseline Configuration new sessions start
// from. Configuration is a plain value type; Apply returns an updated copy and
// never mutates its argument, so a snapshot handed to a running job cannot be
// changed underneath it.
package settings
