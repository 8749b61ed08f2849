package transcode

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"hardsub/internal/faults"
)

func TestTailKeepsLastCharacters(t *testing.T) {
	if got := Tail("  hello world \n", 5); got != "world" {
		t.Fatalf("Tail = %q", got)
	}
	if got := Tail("short", 100); got != "short" {
		t.Fatalf("Tail = %q", got)
	}
	if got := Tail("ééééé", 2); got != "éé" {
		t.Fatalf("Tail on multibyte = %q", got)
	}
}

func TestTailBufferBoundsMemory(t *testing.T) {
	buf := newTailBuffer(10)
	for i := range 1000 {
		fmt.Fprintf(buf, "line %d\n", i)
	}
	if len(buf.buf) > 40 {
		t.Fatalf("tail buffer grew to %d bytes", len(buf.buf))
	}
	got := buf.String()
	if !strings.HasSuffix(got, "line 999") {
		t.Fatalf("tail = %q", got)
	}
	if n := len([]rune(got)); n > 10 {
		t.Fatalf("tail has %d characters", n)
	}
}

type codedErr int

func (c codedErr) Error() string { return "exit" }
func (c codedErr) ExitCode() int { return int(c) }

func TestProcessErrorClassification(t *testing.T) {
	perr := newProcessError(codedErr(1), "Unknown encoder")
	if perr.ExitCode != 1 {
		t.Fatalf("exit code = %d", perr.ExitCode)
	}
	if !errors.Is(perr, faults.ErrProcess) {
		t.Fatal("process error should match faults.ErrProcess")
	}
	if faults.Category(perr) != "process" {
		t.Fatalf("category = %s", faults.Category(perr))
	}
	if perr.Error() != "ffmpeg exited with status 1" {
		t.Fatalf("Error() = %q", perr.Error())
	}

	unknown := newProcessError(errors.New("signal: killed"), "")
	if unknown.ExitCode != -1 || !strings.Contains(unknown.Error(), "signal: killed") {
		t.Fatalf("unexpected error shape: %+v %q", unknown, unknown.Error())
	}
}
