// Package assets owns the per-session scratch directories that hold uploaded
// inputs and the produced output.
//
// Every session gets exactly one directory under the configured scratch root,
// named from its session identifier, so no two sessions ever share files.
// Directories are created lazily on first upload and removed in full by
// Teardown, which tolerates directories that are already partially or fully
// gone.
package assets
