// Package turing is the single-tape Turing machine visualizer.
package turing

import (
	"context"
	"fmt"

	"github.com/aretw0/algoviz/pkg/domain"
	"github.com/aretw0/algoviz/pkg/replay"
)

// Checkpoint names.
const (
	// EventFetch carries the matching *Rule, or nil when no rule applies.
	EventFetch = "fetch"
	// EventExecute carries the *Rule that was applied.
	EventExecute = "execute"
	EventDone    = "done"
)

// Machine statuses.
const (
	Running = "running"
	Halted  = "halted"
)

const defaultMaxSteps = 10_000

// Args are the inputs of Run.
type Args struct {
	Program string `json:"program" yaml:"program" mapstructure:"program"`
	// Tape is written to the tape from position 0.
	Tape string `json:"tape" yaml:"tape" mapstructure:"tape"`
	// MaxSteps bounds the number of executed rules. Zero means 10000.
	MaxSteps int `json:"max_steps,omitempty" yaml:"max_steps,omitempty" mapstructure:"max_steps"`
}

// IncrementProgram adds one to a binary number.
const IncrementProgram = `# binary increment
start: right
accept: done
reject: fail

right 0 -> right 0 >
right 1 -> right 1 >
right _ -> carry _ <
carry 1 -> carry 0 <
carry 0 -> done 1 ^
carry _ -> done 1 ^
`

// DefaultArgs seeds the start form.
func DefaultArgs() Args {
	return Args{Program: IncrementProgram, Tape: "1011"}
}

// Manifest describes the visualizer.
var Manifest = domain.Manifest{
	ID: "turing-machine",
	Name: domain.Localized{
		En: "Turing machine",
		Ru: "Машина Тьюринга",
	},
	Description: domain.Localized{
		En: "Turing machine with a single infinite tape and infinite number of states",
		Ru: "Машина Тьюринга с одной бесконечной лентой и бесконечным количеством состояний",
	},
	Author: domain.Localized{
		En: "Alzhanov Maksim",
		Ru: "Альжанов Максим",
	},
	Events: []string{EventFetch, EventExecute, EventDone},
	Tags:   []string{"automata"},
}

// MachineState is the inner state of the machine.
type MachineState struct {
	Status      string `json:"status"`
	Description string `json:"description"`
	State       string `json:"state"`
	Position    int    `json:"position"`
	Step        int    `json:"step"`
}

// Run parses args.Program and executes it on args.Tape until the machine
// accepts, rejects, finds no rule or exceeds the step limit.
// Two rules matching the same configuration fail the run.
//
// State: "machine" (*MachineState), "tape" (*Tape), "program" (*Program).
func Run(ctx context.Context, t replay.Tracer, args Args) error {
	program, err := Parse(args.Program)
	if err != nil {
		return err
	}
	maxSteps := args.MaxSteps
	if maxSteps <= 0 {
		maxSteps = defaultMaxSteps
	}

	tape := NewTape(args.Tape, program.Blank)
	machine := &MachineState{
		Status:      Running,
		Description: "Machine is running",
		State:       program.Start,
	}
	t.Bind("machine", machine)
	t.Bind("tape", tape)
	t.Bind("program", program)

	for {
		if halt(machine, program, maxSteps) {
			break
		}

		rule, err := program.Match(machine.State, tape.Get(machine.Position))
		if err != nil {
			return err
		}
		if err := t.Here(ctx, EventFetch, rule); err != nil {
			return err
		}
		if rule == nil {
			machine.Status = Halted
			machine.State = program.Reject
			machine.Description = "Machine couldn't find a rule for this state, so it rejected."
			break
		}

		tape.Set(machine.Position, rule.Write)
		machine.State = rule.Next
		switch rule.Move {
		case MoveRight:
			machine.Position++
		case MoveLeft:
			machine.Position--
		}
		machine.Step++
		if err := t.Here(ctx, EventExecute, rule); err != nil {
			return err
		}
	}

	return t.Here(ctx, EventDone)
}

func halt(m *MachineState, p *Program, maxSteps int) bool {
	switch {
	case m.Step >= maxSteps:
		m.Description = "Maximum number of steps reached."
	case m.State == p.Accept:
		m.Description = "Machine accepted the input tape."
	case m.State == p.Reject:
		m.Description = "Machine rejected the input tape."
	default:
		return false
	}
	m.Status = Halted
	return true
}

// Describe renders one recorded step as a line of text.
func Describe(ev domain.StoredEvent) string {
	machine, _ := ev.State["machine"].(*MachineState)
	tape, _ := ev.State["tape"].(*Tape)

	var rule *Rule
	if len(ev.Args) > 0 {
		rule, _ = ev.Args[0].(*Rule)
	}

	switch ev.Name {
	case EventFetch:
		if rule == nil {
			return "no rule matches"
		}
		return fmt.Sprintf("fetch %s", rule)
	case EventExecute:
		if rule == nil || machine == nil || tape == nil {
			return ev.Name
		}
		return fmt.Sprintf("execute %s -> state %s at %d, tape %s",
			rule, machine.State, machine.Position, tape.Window(machine.Position-5, machine.Position+5))
	case EventDone:
		if machine == nil || tape == nil {
			return ev.Name
		}
		return fmt.Sprintf("%s Tape: %s", machine.Description, tape)
	}
	return ev.Name
}
