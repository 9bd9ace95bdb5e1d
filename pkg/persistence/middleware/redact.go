package middleware

import (
	"context"
	"fmt"
	"regexp"

	"github.com/aretw0/algoviz/pkg/domain"
	"github.com/aretw0/algoviz/pkg/ports"
)

// Mask replaces redacted values.
const Mask = "***"

type redactionMiddleware struct {
	next     ports.TraceSink
	patterns []*regexp.Regexp
}

// NewRedactionMiddleware masks state values whose keys match any of the patterns,
// including keys of nested maps. The entry passed to Append is left untouched.
func NewRedactionMiddleware(patterns []string) (Middleware, error) {
	compiled := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid redaction pattern %q: %w", p, err)
		}
		compiled[i] = re
	}
	return func(next ports.TraceSink) ports.TraceSink {
		return &redactionMiddleware{next: next, patterns: compiled}
	}, nil
}

func (m *redactionMiddleware) Append(ctx context.Context, entry domain.TraceEntry) error {
	if entry.State != nil {
		entry.State = domain.State(m.mask(entry.State))
	}
	return m.next.Append(ctx, entry)
}

func (m *redactionMiddleware) Load(ctx context.Context, runID string) ([]domain.TraceEntry, error) {
	return m.next.Load(ctx, runID)
}

func (m *redactionMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func (m *redactionMiddleware) Delete(ctx context.Context, runID string) error {
	return m.next.Delete(ctx, runID)
}

// mask returns a masked copy of src; nested maps are copied, other values shared.
func (m *redactionMiddleware) mask(src map[string]any) map[string]any {
	out := make(map[string]any, len(src))
	for k, v := range src {
		switch {
		case m.matches(k):
			out[k] = Mask
		case isMap(v):
			out[k] = m.mask(asMap(v))
		default:
			out[k] = v
		}
	}
	return out
}

func (m *redactionMiddleware) matches(key string) bool {
	for _, p := range m.patterns {
		if p.MatchString(key) {
			return true
		}
	}
	return false
}

func isMap(v any) bool {
	switch v.(type) {
	case map[string]any, domain.State:
		return true
	}
	return false
}

func asMap(v any) map[string]any {
	if s, ok := v.(domain.State); ok {
		return s
	}
	return v.(map[string]any)
}
