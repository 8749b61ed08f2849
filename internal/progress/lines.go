package progress

import (
	"bufio"
	"io"
	"iter"
)

const maxLineBytes = 64 * 1024

// LineSource reads newline-delimited lines from an io.Reader as a lazy
// sequence. Err reports the read error that ended the sequence, if any.
type LineSource struct {
	scanner *bufio.Scanner
}

// Lines wraps r.
func Lines(r io.Reader) *LineSource {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 4096), maxLineBytes)
	return &LineSource{scanner: scanner}
}

// All yields each line without its trailing newline. It can be ranged over once.
func (s *LineSource) All() iter.Seq[string] {
	return func(yield func(string) bool) {
		for s.scanner.Scan() {
			if !yield(s.scanner.Text()) {
				return
			}
		}
	}
}

// Err returns the first non-EOF read error.
func (s *LineSource) Err() error {
	return s.scanner.Err()
}
