package registry

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// DefaultMaxArgSize bounds any single string argument, e.g. a Turing program.
	DefaultMaxArgSize = 16 * 1024
	// EnvMaxArgSize overrides DefaultMaxArgSize.
	EnvMaxArgSize = "ALGOVIZ_MAX_ARG_SIZE"
)

var (
	ErrArgTooLarge = errors.New("argument exceeds maximum allowed size")
	ErrInvalidUTF8 = errors.New("argument contains invalid UTF-8 sequences")
)

// SanitizeString rejects oversized or non UTF-8 text and strips control
// characters other than newline, tab and carriage return.
func SanitizeString(s string) (string, error) {
	limit := maxArgSize()
	if len(s) > limit {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrArgTooLarge, len(s), limit)
	}
	if !utf8.ValidString(s) {
		return "", ErrInvalidUTF8
	}

	clean := true
	for _, r := range s {
		if unicode.IsControl(r) && !isSafeControl(r) {
			clean = false
			break
		}
	}
	if clean {
		return s, nil
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if !unicode.IsControl(r) || isSafeControl(r) {
			b.WriteRune(r)
		}
	}
	return b.String(), nil
}

// sanitizeArgs returns a copy of raw with every nested string sanitized.
func sanitizeArgs(raw map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(raw))
	for k, v := range raw {
		clean, err := sanitizeValue(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
		out[k] = clean
	}
	return out, nil
}

func sanitizeValue(v any) (any, error) {
	switch t := v.(type) {
	case string:
		return SanitizeString(t)
	case map[string]any:
		return sanitizeArgs(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			clean, err := sanitizeValue(item)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = clean
		}
		return out, nil
	default:
		return v, nil
	}
}

func isSafeControl(r rune) bool {
	return r == '\n' || r == '\t' || r == '\r'
}

func maxArgSize() int {
	if val := os.Getenv(EnvMaxArgSize); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			return size
		}
	}
	return DefaultMaxArgSize
}
