package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/algoviz/pkg/domain"
	"github.com/aretw0/algoviz/pkg/navigation"
	"github.com/muesli/termenv"
)

// StepPrinter writes one colored line per displayed step.
type StepPrinter struct {
	w   io.Writer
	out *termenv.Output
}

// NewStepPrinter creates a printer for w. Colors follow the terminal's profile.
func NewStepPrinter(w io.Writer) *StepPrinter {
	return &StepPrinter{w: w, out: termenv.NewOutput(w)}
}

// Line formats a frame. description is the visualizer's rendering of the event.
func (p *StepPrinter) Line(f navigation.Frame, description string) string {
	if f.Event == nil {
		return p.out.String("(not started)").Faint().String()
	}

	pos := fmt.Sprintf("%3d", f.Event.Step)
	if f.Total > 0 {
		pos = fmt.Sprintf("%3d/%d", f.Index+1, f.Total)
	}

	name := p.out.String(fmt.Sprintf("%-18s", f.Event.Name)).Bold()
	switch {
	case f.Event.IsError():
		name = name.Foreground(p.out.Color("#ef4444"))
	case f.Event.Name == "done":
		name = name.Foreground(p.out.Color("#22c55e"))
	default:
		name = name.Foreground(p.out.Color("#818cf8"))
	}

	var b strings.Builder
	b.WriteString(p.out.String("[" + pos + "]").Faint().String())
	b.WriteString(" ")
	b.WriteString(name.String())
	b.WriteString(" ")
	b.WriteString(description)
	if !f.Live {
		b.WriteString(" ")
		b.WriteString(p.out.String("(history)").Italic().Foreground(p.out.Color("#f59e0b")).String())
	}
	return b.String()
}

// Print writes Line followed by a newline.
func (p *StepPrinter) Print(f navigation.Frame, description string) {
	fmt.Fprintln(p.w, p.Line(f, description))
}

// Status writes the terminal summary of a snapshot.
func (p *StepPrinter) Status(snap *domain.Snapshot) {
	switch {
	case snap.Failed():
		fmt.Fprintln(p.w, p.out.String(fmt.Sprintf("failed after %d steps: %v", snap.CurrentStep, snap.Err)).Foreground(p.out.Color("#ef4444")))
	case snap.Halted():
		fmt.Fprintln(p.w, p.out.String(fmt.Sprintf("finished in %d steps", snap.CurrentStep)).Foreground(p.out.Color("#22c55e")))
	}
}
