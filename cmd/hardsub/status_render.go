package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"hardsub/internal/preflight"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

const (
	statusLabelWidth = 28
	statusIndent     = "  "
)

var statusStyles = map[statusKind]struct{ label, color string }{
	statusInfo:  {"INFO", ansiBlue},
	statusOK:    {"OK", ansiGreen},
	statusWarn:  {"WARN", ansiYellow},
	statusError: {"ERROR", ansiRed},
}

// statusReport collects the readiness lines printed by `hardsub check` and
// counts them by kind for the closing summary.
type statusReport struct {
	colorize bool
	lines    []string
	counts   map[statusKind]int
}

func newStatusReport(title string, colorize bool) *statusReport {
	heading := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	r := &statusReport{colorize: colorize, counts: map[statusKind]int{}}
	r.lines = append(r.lines, r.paint(ansiBlue, heading), r.paint(ansiBlue, strings.Repeat("-", len(heading))))
	return r
}

func (r *statusReport) add(label string, kind statusKind, message string) {
	r.counts[kind]++
	r.lines = append(r.lines, renderStatusLine(label, kind, message, r.colorize))
}

func (r *statusReport) addResult(res preflight.Result) {
	r.add(res.Name, resultKind(res), res.Detail)
}

// summary reads like "5 ok, 1 warning, 0 failed".
func (r *statusReport) summary() string {
	warnings := "warnings"
	if r.counts[statusWarn] == 1 {
		warnings = "warning"
	}
	return fmt.Sprintf("%d ok, %d %s, %d failed", r.counts[statusOK], r.counts[statusWarn], warnings, r.counts[statusError])
}

func (r *statusReport) String() string {
	return strings.Join(append(r.lines, "", r.summary()), "\n")
}

func (r *statusReport) paint(color, s string) string {
	if !r.colorize {
		return s
	}
	return color + s + ansiReset
}

func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	style := statusStyles[kind]
	status := "[" + style.label + "]"
	if message != "" {
		status += " " + message
	}
	line := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", status)
	if colorize {
		return style.color + line + ansiReset
	}
	return line
}

func resultKind(r preflight.Result) statusKind {
	switch {
	case !r.Passed:
		return statusError
	case r.Warning:
		return statusWarn
	default:
		return statusOK
	}
}

// isTerminal gates both ANSI color and the carriage-return progress line.
func isTerminal(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
