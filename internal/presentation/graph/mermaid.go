// Package graph renders Turing machine programs as Mermaid state diagrams.
package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/algoviz/pkg/domain"
	"github.com/aretw0/algoviz/pkg/visualizers/turing"
)

// Overlay marks the states a run passed through.
type Overlay struct {
	VisitedStates []string
	CurrentState  string
}

// GenerateMermaid produces a Mermaid flowchart of the program's transition graph.
// Shapes:
// - Start: ((Circle))
// - Accept and reject: (((Double circle)))
// - Default: [Rectangle]
// Edges are labelled "read/write move". Overlay styles are applied when overlay is not nil.
func GenerateMermaid(p *turing.Program, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, state := range states(p) {
		opener, closer := "[", "]"
		switch state {
		case p.Start:
			opener, closer = "((", "))"
		case p.Accept, p.Reject:
			opener, closer = "(((", ")))"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", sanitizeMermaidID(state), opener, escapeLabel(state), closer)
	}

	for _, r := range p.Rules {
		label := escapeLabel(fmt.Sprintf("%s/%s %s", r.Read, r.Write, r.Move))
		fmt.Fprintf(&sb, "    %s -- \"%s\" --> %s\n", sanitizeMermaidID(r.State), label, sanitizeMermaidID(r.Next))
	}

	sb.WriteString("    classDef accept stroke:#2e7d32,stroke-width:3px;\n")
	sb.WriteString("    classDef reject stroke:#c62828,stroke-width:3px;\n")
	fmt.Fprintf(&sb, "    class %s accept;\n", sanitizeMermaidID(p.Accept))
	fmt.Fprintf(&sb, "    class %s reject;\n", sanitizeMermaidID(p.Reject))

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Black text keeps contrast on light fills in both themes.
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, state := range overlay.VisitedStates {
			id := sanitizeMermaidID(state)
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true
			fmt.Fprintf(&sb, "    class %s visited;\n", id)
		}
		if overlay.CurrentState != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.CurrentState))
		}
	}

	return sb.String()
}

// OverlayFromSnapshot collects the machine states recorded in a turing-machine
// run. It returns nil when the snapshot carries no machine state.
func OverlayFromSnapshot(snap *domain.Snapshot) *Overlay {
	if snap == nil {
		return nil
	}
	var o Overlay
	for _, ev := range snap.Events {
		if m, ok := ev.State["machine"].(*turing.MachineState); ok {
			o.VisitedStates = append(o.VisitedStates, m.State)
		}
	}
	if m, ok := snap.CurState["machine"].(*turing.MachineState); ok {
		o.CurrentState = m.State
	}
	if o.CurrentState == "" && len(o.VisitedStates) == 0 {
		return nil
	}
	return &o
}

// states lists every state in order of first appearance, start first.
func states(p *turing.Program) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(s string) {
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	add(p.Start)
	for _, r := range p.Rules {
		add(r.State)
		add(r.Next)
	}
	add(p.Accept)
	add(p.Reject)
	return out
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "#quot;")
}

func sanitizeMermaidID(id string) string {
	s := strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_", " ", "_", "\"", "_").Replace(id)
	if s == "" {
		return s
	}
	// Mermaid reserves "end"; prefixing keeps state names verbatim in labels.
	return "s_" + s
}
