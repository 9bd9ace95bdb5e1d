package domain

// Status defines the lifecycle phase of a replay store.
type Status string

const (
	StatusIdle    Status = "idle"    // No run started yet
	StatusRunning Status = "running" // Algorithm suspended at a checkpoint (or about to be)
	StatusHalted  Status = "halted"  // Algorithm returned or failed
)

// State is the working state of a run: field name to value.
// The algorithm mutates it in place between checkpoints; the store copies it at each checkpoint.
type State map[string]any

// Config controls what a store retains and whether runs block at checkpoints.
type Config struct {
	// NoStop runs the algorithm unattended: checkpoints never block.
	NoStop bool `json:"noStop" yaml:"no_stop" mapstructure:"no_stop"`

	// StoreEvents keeps every checkpoint in the timeline.
	StoreEvents bool `json:"storeEvents" yaml:"store_events" mapstructure:"store_events"`

	// StoreStates attaches a deep copy of the working state to every stored event.
	StoreStates bool `json:"storeStates" yaml:"store_states" mapstructure:"store_states"`
}

// DefaultConfig retains both events and states and stops at every checkpoint.
func DefaultConfig() Config {
	return Config{
		StoreEvents: true,
		StoreStates: true,
	}
}
