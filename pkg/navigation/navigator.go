// Package navigation implements the host-side stepping policy over a replay store.
//
// A Navigator keeps an optional override index into the timeline. While it is
// set, hosts display the recorded step at that index (historical scrubbing);
// moving forward past the end of the recorded history clears it and resumes the
// live run. Scrubbing never resumes the algorithm.
package navigation

import (
	"context"
	"sync"

	"github.com/aretw0/algoviz/pkg/domain"
)

// Stepper is the part of a store a Navigator drives.
type Stepper interface {
	View() *domain.Snapshot
	Next(ctx context.Context) error
}

// Frame is what a host should display.
type Frame struct {
	// Index is the timeline position of Event, -1 before the first checkpoint.
	Index int `json:"index"`

	// Live is false while scrubbing through history.
	Live bool `json:"live"`

	State domain.State        `json:"state"`
	Event *domain.StoredEvent `json:"event"`

	// Total is the number of recorded steps available for scrubbing.
	Total int `json:"total"`
}

// Navigator implements dual-mode stepping: history replay and live stepping.
// Safe for concurrent use.
type Navigator struct {
	src Stepper

	mu         sync.Mutex
	generation uint64
	override   int
	scrubbing  bool
}

// New creates a Navigator over src.
func New(src Stepper) *Navigator {
	return &Navigator{src: src}
}

// sync drops the override when the run changed or history cannot back it. Caller holds n.mu.
func (n *Navigator) sync(snap *domain.Snapshot) {
	if snap.Generation != n.generation {
		n.generation = snap.Generation
		n.scrubbing = false
	}
	if n.scrubbing && (!snap.HasHistory() || n.override >= len(snap.Events)) {
		n.scrubbing = false
	}
}

// Override returns the override index and whether it is set.
func (n *Navigator) Override() (int, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sync(n.src.View())
	return n.override, n.scrubbing
}

// Current returns the frame to display.
func (n *Navigator) Current() Frame {
	snap := n.src.View()

	n.mu.Lock()
	defer n.mu.Unlock()
	n.sync(snap)

	total := 0
	if snap.HasHistory() {
		total = len(snap.Events)
	}

	if n.scrubbing {
		ev := snap.Events[n.override]
		return Frame{
			Index: n.override,
			State: ev.State,
			Event: &ev,
			Total: total,
		}
	}

	return Frame{
		Index: snap.CurrentStep - 1,
		Live:  true,
		State: snap.CurState,
		Event: snap.CurEvent,
		Total: total,
	}
}

// Forward moves one step ahead. Inside recorded history it only moves the
// override; at the frontier it clears the override and resumes the live run.
func (n *Navigator) Forward(ctx context.Context) error {
	snap := n.src.View()

	n.mu.Lock()
	n.sync(snap)
	if n.scrubbing && n.override < len(snap.Events)-1 {
		n.override++
		n.mu.Unlock()
		return nil
	}
	n.scrubbing = false
	n.mu.Unlock()

	return n.src.Next(ctx)
}

// Back moves one step into history. The first step back from live mode lands
// on the checkpoint before the current one. Returns false when nothing moved.
func (n *Navigator) Back() bool {
	snap := n.src.View()

	n.mu.Lock()
	defer n.mu.Unlock()
	n.sync(snap)

	if !snap.HasHistory() {
		return false
	}

	target := snap.CurrentStep - 2
	if n.scrubbing {
		target = n.override - 1
	}
	if target > len(snap.Events)-1 {
		target = len(snap.Events) - 1
	}
	if target < 0 {
		return false
	}

	n.override = target
	n.scrubbing = true
	return true
}

// Seek jumps to timeline index i, clamped into the recorded history.
// Returns false when the timeline is not retained or empty.
func (n *Navigator) Seek(i int) bool {
	snap := n.src.View()

	n.mu.Lock()
	defer n.mu.Unlock()
	n.sync(snap)

	if !snap.HasHistory() {
		return false
	}
	if i < 0 {
		i = 0
	}
	if last := len(snap.Events) - 1; i > last {
		i = last
	}

	n.override = i
	n.scrubbing = true
	return true
}

// Live clears the override without touching the run.
func (n *Navigator) Live() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.scrubbing = false
}
