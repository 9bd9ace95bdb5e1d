package domain

// Localized holds a user-facing string in the supported languages.
type Localized struct {
	En string `json:"en" yaml:"en"`
	Ru string `json:"ru,omitempty" yaml:"ru,omitempty"`
}

// Get returns the text for lang, falling back to English.
func (l Localized) Get(lang string) string {
	if lang == "ru" && l.Ru != "" {
		return l.Ru
	}
	return l.En
}

// Manifest is the static descriptor of a visualizer.
// The store never reads it; hosts use it to list and mount visualizers.
type Manifest struct {
	ID          string    `json:"id" yaml:"id"`
	Name        Localized `json:"name" yaml:"name"`
	Description Localized `json:"description" yaml:"description"`
	Author      Localized `json:"author" yaml:"author"`

	// HandleErrors marks visualizers that render the error sentinel themselves
	// instead of relying on the host's generic failure view.
	HandleErrors bool `json:"handleErrors,omitempty" yaml:"handle_errors,omitempty"`

	// Events lists the checkpoint names the algorithm may emit.
	Events []string `json:"events" yaml:"events"`

	Tags []string `json:"tags,omitempty" yaml:"tags,omitempty"`
}
