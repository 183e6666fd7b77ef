// Package relqobserve formats optimizer phase events for a human reading
// a terminal. It is CLI-only and entirely optional, never consulted by
// the optimizer core itself: a color-coded one-line event format using
// github.com/fatih/color, with color turned on when the destination is
// the process's stdout or stderr.
package relqobserve

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

// Event is one phase-boundary notification the optimizer emits.
type Event struct {
	Phase   string
	Summary string // Pretty or String() rendering of the retrieve at this point
}

// Tracer receives Events as the orchestrator runs. optimizer.Options.Tracer
// is nil by default; wiring one in turns on a live phase-by-phase trace.
type Tracer interface {
	Emit(Event)
}

// ColorTracer writes one colorized "=== phase fired" line per phase to
// an io.Writer, followed by an indented summary of the retrieve at that
// point.
type ColorTracer struct {
	w        io.Writer
	useColor bool
}

// NewColorTracer builds a ColorTracer writing to w, with color only when
// w is the *os.File for file descriptor 1 or 2; whether that descriptor
// is attached to a terminal is not checked here.
func NewColorTracer(w io.Writer) *ColorTracer {
	if w == nil {
		w = os.Stderr
	}
	useColor := false
	if f, ok := w.(*os.File); ok {
		useColor = isTerminal(f)
	}
	return &ColorTracer{w: w, useColor: useColor}
}

func (t *ColorTracer) Emit(ev Event) {
	delimiter := t.colorize("===", color.FgYellow)
	phase := t.colorize(ev.Phase, color.FgCyan)
	fmt.Fprintf(t.w, "%s %s fired\n", delimiter, phase)
	if ev.Summary != "" {
		fmt.Fprintln(t.w, indent(ev.Summary))
	}
}

func (t *ColorTracer) colorize(text string, attrs ...color.Attribute) string {
	if !t.useColor {
		return text
	}
	return color.New(attrs...).Sprint(text)
}

func indent(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = "    " + l
	}
	return strings.Join(lines, "\n")
}

// isTerminal is deliberately simplified: a real implementation would use
// golang.org/x/term, but stdout/stderr are the only file descriptors
// this CLI ever writes trace output to.
func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return fd == uintptr(1) || fd == uintptr(2)
}
