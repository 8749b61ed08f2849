package fonts_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"hardsub/internal/faults"
	"hardsub/internal/fonts"
)

func TestResolve(t *testing.T) {
	dir := t.TempDir()
	present := filepath.Join(dir, "Present.ttf")
	if err := os.WriteFile(present, []byte("ttf"), 0o644); err != nil {
		t.Fatal(err)
	}
	abs := filepath.Join(t.TempDir(), "Abs.otf")
	if err := os.WriteFile(abs, []byte("otf"), 0o644); err != nil {
		t.Fatal(err)
	}

	reg := fonts.NewRegistry(dir, map[string]string{
		"Present": "Present.ttf",
		"Missing": "Missing.ttf",
		"Abs":     abs,
		" ":       "ignored.ttf",
	})

	path, err := reg.Resolve("Present")
	if err != nil || path != present {
		t.Fatalf("Resolve(Present) = %q, %v", path, err)
	}
	if path, err := reg.Resolve("Abs"); err != nil || path != abs {
		t.Fatalf("Resolve(Abs) = %q, %v", path, err)
	}

	path, err = reg.Resolve("Missing")
	if !errors.Is(err, faults.ErrPrecondition) || !errors.Is(err, fonts.ErrMissingFile) {
		t.Fatalf("expected precondition/missing file, got %v", err)
	}
	if path != filepath.Join(dir, "Missing.ttf") {
		t.Fatalf("missing font should still report looked-up path, got %q", path)
	}

	_, err = reg.Resolve("Comic Sans")
	if !errors.Is(err, faults.ErrPrecondition) || !errors.Is(err, fonts.ErrNotRegistered) {
		t.Fatalf("expected precondition/not registered, got %v", err)
	}
}

func TestEntriesSorted(t *testing.T) {
	reg := fonts.NewRegistry("/fonts", map[string]string{"b": "b.ttf", "a": "/x/a.ttf"})
	entries := reg.Entries()
	if len(entries) != 2 || entries[0].Name != "a" || entries[1].Name != "b" {
		t.Fatalf("unexpected entries %+v", entries)
	}
	if entries[1].Path != filepath.Join("/fonts", "b.ttf") {
		t.Fatalf("relative path not resolved: %q", entries[1].Path)
	}
}
