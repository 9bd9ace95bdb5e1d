package cli

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParseArgs builds raw algorithm arguments from an optional YAML/JSON file
// and key=value pairs. Values are YAML, so "array=[3,1,2]" yields a list.
// Pairs override keys read from the file.
func ParseArgs(path string, pairs []string) (map[string]any, error) {
	args := map[string]any{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read args file: %w", err)
		}
		// JSON is valid YAML.
		if err := yaml.Unmarshal(data, &args); err != nil {
			return nil, fmt.Errorf("failed to parse args file %s: %w", path, err)
		}
	}

	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid argument %q: expected key=value", pair)
		}
		var value any
		if err := yaml.Unmarshal([]byte(raw), &value); err != nil {
			return nil, fmt.Errorf("invalid value for %s: %w", key, err)
		}
		args[key] = value
	}
	return args, nil
}
