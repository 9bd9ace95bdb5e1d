package domain

// SnapshotDiff represents the changes between two snapshots.
// It is designed to be serialized to JSON for incremental updates on a client.
type SnapshotDiff struct {
	RunID      string `json:"runId"`
	Generation uint64 `json:"generation"`

	// Reset is set when the run changed; clients must drop their local timeline.
	Reset bool `json:"reset,omitempty"`

	Status      *Status      `json:"status,omitempty"`
	CurrentStep *int         `json:"currentStep,omitempty"`
	CurEvent    *StoredEvent `json:"curEvent,omitempty"`

	// Appended contains only the timeline entries added since the old snapshot.
	Appended Timeline `json:"appended,omitempty"`
}

// Diff calculates the difference between oldSnap and newSnap.
// If oldSnap is nil (initial load) or belongs to another run, the diff carries the whole timeline.
// Returns nil when nothing observable changed.
func Diff(oldSnap, newSnap *Snapshot) *SnapshotDiff {
	if newSnap == nil {
		return nil
	}

	diff := &SnapshotDiff{
		RunID:      newSnap.RunID,
		Generation: newSnap.Generation,
	}

	if oldSnap == nil || oldSnap.Generation != newSnap.Generation {
		diff.Reset = oldSnap != nil
		diff.Status = &newSnap.Status
		diff.CurrentStep = &newSnap.CurrentStep
		diff.CurEvent = newSnap.CurEvent
		diff.Appended = newSnap.Events
		return diff
	}

	if oldSnap.Status != newSnap.Status {
		diff.Status = &newSnap.Status
	}
	if oldSnap.CurrentStep != newSnap.CurrentStep {
		diff.CurrentStep = &newSnap.CurrentStep
	}
	if oldSnap.CurEvent != newSnap.CurEvent {
		diff.CurEvent = newSnap.CurEvent
	}
	diff.Appended = diffTimeline(oldSnap.Events, newSnap.Events)

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

// diffTimeline assumes the append-only behavior of a run's timeline.
func diffTimeline(old, new Timeline) Timeline {
	if len(new) <= len(old) {
		return nil
	}
	return new[len(old):]
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *SnapshotDiff) IsEmpty() bool {
	return !d.Reset &&
		d.Status == nil &&
		d.CurrentStep == nil &&
		d.CurEvent == nil &&
		len(d.Appended) == 0
}
