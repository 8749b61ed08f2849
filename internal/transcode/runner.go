package transcode

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"unicode/utf8"
)

// Process is a started encoder.
type Process interface {
	// Progress is the process's progress stream (stdout). It reaches EOF when
	// the process closes it.
	Progress() io.Reader
	// Wait blocks until the process exits. Progress must be drained first.
	Wait() error
	// StderrTail returns the trailing error output captured so far.
	StderrTail() string
}

// Runner starts encoder processes.
type Runner interface {
	Start(ctx context.Context, binary string, args []string) (Process, error)
}

// ExecRunner starts real processes. Cancelling ctx kills the process.
type ExecRunner struct {
	// TailChars bounds the captured stderr tail; 0 means 1000.
	TailChars int
}

// Start implements Runner.
func (r ExecRunner) Start(ctx context.Context, binary string, args []string) (Process, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	tail := newTailBuffer(r.TailChars)
	cmd.Stderr = tail
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", binary, err)
	}
	return &execProcess{cmd: cmd, stdout: stdout, tail: tail}, nil
}

type execProcess struct {
	cmd    *exec.Cmd
	stdout io.Reader
	tail   *tailBuffer
}

func (p *execProcess) Progress() io.Reader { return p.stdout }

func (p *execProcess) Wait() error { return p.cmd.Wait() }

func (p *execProcess) StderrTail() string { return p.tail.String() }

// tailBuffer keeps roughly the last limit characters written to it.
type tailBuffer struct {
	mu    sync.Mutex
	limit int
	buf   []byte
}

func newTailBuffer(limit int) *tailBuffer {
	if limit <= 0 {
		limit = 1000
	}
	return &tailBuffer{limit: limit}
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, p...)
	// Keep enough bytes for limit characters of up to four bytes each.
	if maxBytes := t.limit * utf8.UTFMax; len(t.buf) > maxBytes {
		t.buf = append(t.buf[:0], t.buf[len(t.buf)-maxBytes:]...)
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Tail(string(t.buf), t.limit)
}

// Tail returns the last n characters of s with surrounding whitespace trimmed.
// Invalid leading bytes left by byte-level truncation are dropped.
func Tail(s string, n int) string {
	s = strings.TrimSpace(s)
	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		if r != utf8.RuneError || size != 1 {
			break
		}
		s = s[1:]
	}
	if n <= 0 {
		return s
	}
	if count := utf8.RuneCountInString(s); count > n {
		skip := count - n
		for i := range s {
			if skip == 0 {
				s = s[i:]
				break
			}
			skip--
		}
	}
	return strings.TrimSpace(s)
}
