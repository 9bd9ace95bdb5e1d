package domain

// Snapshot is the immutable projection of a store's condition at one point in time.
// A store publishes a fresh Snapshot on every observable change and never mutates old ones,
// so consumers can detect changes by comparing pointers.
type Snapshot struct {
	// RunID identifies the run the snapshot belongs to ("" before the first start).
	RunID string `json:"runId,omitempty"`

	// Generation increases on every Start; controls bound to an older generation are inert.
	Generation uint64 `json:"generation"`

	Status Status `json:"status"`

	// CurState is the state recorded with CurEvent (nil when state retention is off).
	CurState State `json:"curState"`

	// CurEvent is the latest checkpoint, or the error sentinel after a failed run.
	CurEvent *StoredEvent `json:"curEvent"`

	// CurrentStep counts the checkpoints fired in this run.
	CurrentStep int `json:"currentStep"`

	// Events is the timeline; nil when event retention is off.
	Events Timeline `json:"events"`

	Config Config `json:"config"`

	// Err holds the captured algorithm failure of a halted run.
	Err error `json:"-"`
}

// Halted reports whether the run finished (successfully or not).
func (s *Snapshot) Halted() bool {
	return s != nil && s.Status == StatusHalted
}

// Failed reports whether the run halted with an algorithm error.
func (s *Snapshot) Failed() bool {
	return s.Halted() && s.Err != nil
}

// HasHistory reports whether the timeline can be indexed.
func (s *Snapshot) HasHistory() bool {
	return s != nil && s.Config.StoreEvents && len(s.Events) > 0
}
