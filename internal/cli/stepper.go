package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aretw0/algoviz/internal/presentation/tui"
	"github.com/aretw0/algoviz/pkg/navigation"
	"github.com/aretw0/algoviz/pkg/registry"
	"golang.org/x/term"
)

type action int

const (
	actNone action = iota
	actForward
	actBack
	actLive
	actQuit
)

// readAction decodes one key press: n, space, enter, f or right arrow step
// forward; b or left arrow step back; l returns to the live step; q, ctrl-c
// or ctrl-d quit.
func readAction(r *bufio.Reader) (action, error) {
	b, err := r.ReadByte()
	if err != nil {
		return actQuit, err
	}
	switch b {
	case 'n', 'f', ' ', '\r', '\n':
		return actForward, nil
	case 'b':
		return actBack, nil
	case 'l':
		return actLive, nil
	case 'q', 3, 4:
		return actQuit, nil
	case 27: // ESC [ C / ESC [ D
		if next, err := r.ReadByte(); err != nil || next != '[' {
			return actNone, nil
		}
		arrow, err := r.ReadByte()
		if err != nil {
			return actQuit, err
		}
		switch arrow {
		case 'C':
			return actForward, nil
		case 'D':
			return actBack, nil
		}
	}
	return actNone, nil
}

// crlfWriter translates newlines for a terminal in raw mode.
type crlfWriter struct{ w io.Writer }

func (c crlfWriter) Write(p []byte) (int, error) {
	if _, err := io.WriteString(c.w, strings.ReplaceAll(string(p), "\n", "\r\n")); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Stepper drives a session interactively, one key press per step.
type Stepper struct {
	Session registry.Session
	In      io.Reader
	Out     io.Writer
}

// Run starts the session with args and steps through it until the user quits
// or ctx is done.
func (s *Stepper) Run(ctx context.Context, args map[string]any) error {
	out := s.Out
	if f, ok := s.In.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		old, err := term.MakeRaw(int(f.Fd()))
		if err != nil {
			return fmt.Errorf("failed to enter raw mode: %w", err)
		}
		defer term.Restore(int(f.Fd()), old)
		out = crlfWriter{w: s.Out}
	}

	printer := tui.NewStepPrinter(out)
	nav := navigation.New(s.Session)

	fmt.Fprintln(out, "n/→ forward  b/← back  l live  q quit")
	if err := s.Session.Start(ctx, args, false); err != nil {
		return err
	}
	s.show(printer, nav)

	actions := make(chan action)
	go func() {
		defer close(actions)
		r := bufio.NewReader(s.In)
		for {
			act, err := readAction(r)
			select {
			case actions <- act:
			case <-ctx.Done():
				return
			}
			if err != nil || act == actQuit {
				return
			}
		}
	}()

	reported := false
	for {
		var act action
		select {
		case <-ctx.Done():
			return ctx.Err()
		case a, ok := <-actions:
			if !ok {
				return nil
			}
			act = a
		}

		switch act {
		case actQuit:
			return nil
		case actForward:
			if _, scrubbing := nav.Override(); !scrubbing && s.Session.View().Halted() {
				if !reported {
					printer.Status(s.Session.View())
					reported = true
				}
				continue
			}
			if err := nav.Forward(ctx); err != nil {
				return err
			}
		case actBack:
			if !nav.Back() {
				continue
			}
		case actLive:
			nav.Live()
		default:
			continue
		}
		s.show(printer, nav)
	}
}

func (s *Stepper) show(printer *tui.StepPrinter, nav *navigation.Navigator) {
	frame := nav.Current()
	desc := ""
	if frame.Event != nil {
		desc = s.Session.Describe(*frame.Event)
	}
	printer.Print(frame, desc)
}
