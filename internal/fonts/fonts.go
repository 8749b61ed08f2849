// Package fonts resolves subtitle font display names to font files on disk.
package fonts

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"hardsub/internal/faults"
)

// ErrNotRegistered is returned for font names absent from the registry.
var ErrNotRegistered = errors.New("font not registered")

// ErrMissingFile is returned when a registered font file does not exist.
var ErrMissingFile = errors.New("font file missing")

// Entry is one registered font.
type Entry struct {
	Name string
	Path string
}

// Registry maps display names to absolute font file paths. It is read-only
// after construction.
type Registry struct {
	dir     string
	entries map[string]string
}

// NewRegistry builds a registry from name to path pairs. Relative paths are
// resolved against dir.
func NewRegistry(dir string, fonts map[string]string) *Registry {
	entries := make(map[string]string, len(fonts))
	for name, path := range fonts {
		name = strings.TrimSpace(name)
		path = strings.TrimSpace(path)
		if name == "" || path == "" {
			continue
		}
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		entries[name] = filepath.Clean(path)
	}
	return &Registry{dir: dir, entries: entries}
}

// Dir returns the directory relative entries are resolved against.
func (r *Registry) Dir() string {
	return r.dir
}

// Lookup returns the registered path for name without touching the disk.
func (r *Registry) Lookup(name string) (string, bool) {
	path, ok := r.entries[name]
	return path, ok
}

// Resolve returns the font file for name. Unregistered names and registered
// files missing from disk are precondition failures.
func (r *Registry) Resolve(name string) (string, error) {
	path, ok := r.entries[name]
	if !ok {
		return "", faults.Wrap(faults.ErrPrecondition, "fonts", "resolve",
			fmt.Sprintf("font %q", name), ErrNotRegistered)
	}
	info, err := os.Stat(path)
	if err != nil {
		return path, faults.Wrap(faults.ErrPrecondition, "fonts", "resolve",
			fmt.Sprintf("font %q at %s", name, path), fmt.Errorf("%w: %w", ErrMissingFile, err))
	}
	if info.IsDir() {
		return path, faults.Wrap(faults.ErrPrecondition, "fonts", "resolve",
			fmt.Sprintf("font %q at %s is a directory", name, path), ErrMissingFile)
	}
	return path, nil
}

// Entries returns every registered font sorted by name.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, 0, len(r.entries))
	for name, path := range r.entries {
		out = append(out, Entry{Name: name, Path: path})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
