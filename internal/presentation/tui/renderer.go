package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/algoviz/pkg/domain"
	"github.com/charmbracelet/glamour"
	"gopkg.in/yaml.v3"
)

// NewRenderer returns a function that renders markdown using glamour.
// Without a usable renderer the markdown is returned as is.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return func(markdown string) (string, error) { return markdown, nil }
	}
	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// ManifestMarkdown describes a visualizer and its default arguments as markdown.
func ManifestMarkdown(m domain.Manifest, defaults map[string]any, lang string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", m.Name.Get(lang))
	fmt.Fprintf(&b, "`%s`", m.ID)
	if author := m.Author.Get(lang); author != "" {
		fmt.Fprintf(&b, " by %s", author)
	}
	b.WriteString("\n\n")
	if desc := m.Description.Get(lang); desc != "" {
		b.WriteString(desc)
		b.WriteString("\n\n")
	}

	if len(m.Events) > 0 {
		b.WriteString("## Checkpoints\n\n")
		for _, ev := range m.Events {
			fmt.Fprintf(&b, "- `%s`\n", ev)
		}
		b.WriteString("\n")
	}

	if len(defaults) > 0 {
		b.WriteString("## Default arguments\n\n")
		keys := make([]string, 0, len(defaults))
		for k := range defaults {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		ordered := yaml.Node{Kind: yaml.MappingNode}
		for _, k := range keys {
			var v yaml.Node
			if err := v.Encode(defaults[k]); err != nil {
				continue
			}
			ordered.Content = append(ordered.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: k}, &v)
		}
		data, err := yaml.Marshal(&ordered)
		if err == nil {
			fmt.Fprintf(&b, "```yaml\n%s```\n", data)
		}
	}

	if len(m.Tags) > 0 {
		fmt.Fprintf(&b, "\n_%s_\n", strings.Join(m.Tags, ", "))
	}
	return b.String()
}
