package registry_test

import (
	"strings"
	"testing"

	"github.com/aretw0/algoviz/pkg/domain"
	"github.com/aretw0/algoviz/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeString_SizeLimit(t *testing.T) {
	limit := registry.DefaultMaxArgSize

	tests := []struct {
		name    string
		size    int
		wantErr bool
	}{
		{"under limit", limit - 1, false},
		{"exact limit", limit, false},
		{"over limit", limit + 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := registry.SanitizeString(strings.Repeat("a", tt.size))
			if tt.wantErr {
				assert.ErrorIs(t, err, registry.ErrArgTooLarge)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSanitizeString_ControlChars(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "q0 1 -> q1 0 R", "q0 1 -> q1 0 R"},
		{"safe controls", "line1\nline2\tcol\r", "line1\nline2\tcol\r"},
		{"ansi", "\x1b[31mred\x1b[0m", "[31mred[0m"},
		{"null", "a\x00b", "ab"},
		{"bell", "ding\x07", "ding"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := registry.SanitizeString(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSanitizeString_InvalidUTF8(t *testing.T) {
	_, err := registry.SanitizeString("bad\xff")
	assert.ErrorIs(t, err, registry.ErrInvalidUTF8)
}

func TestSanitizeString_EnvOverride(t *testing.T) {
	t.Setenv(registry.EnvMaxArgSize, "10")

	_, err := registry.SanitizeString("12345678901")
	assert.ErrorIs(t, err, registry.ErrArgTooLarge)

	_, err = registry.SanitizeString("12345")
	assert.NoError(t, err)
}

func TestSession_SanitizesStringArgs(t *testing.T) {
	s := counter().NewSession()
	require.NoError(t, s.Start(testCtx(t), map[string]any{"label": "\x1b[1mbold", "to": 1}, true))
	assert.Equal(t, "[1mbold", s.View().CurState["label"])

	t.Setenv(registry.EnvMaxArgSize, "4")
	s = counter().NewSession()
	err := s.Start(testCtx(t), map[string]any{"label": "too long"}, true)
	assert.ErrorIs(t, err, registry.ErrInvalidArgs)
	assert.Equal(t, domain.StatusIdle, s.View().Status)
}
