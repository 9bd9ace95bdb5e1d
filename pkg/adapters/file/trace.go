// Package file stores run traces as JSON Lines files in a directory.
package file

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/aretw0/algoviz/pkg/domain"
)

const ext = ".jsonl"

// TraceSink implements ports.TraceSink using the local filesystem.
// Each run is one file, one JSON entry per line.
type TraceSink struct {
	BasePath string

	mu sync.Mutex
}

// New creates a new TraceSink with the given base path.
// If basePath is empty, it defaults to ".algoviz/traces".
func New(basePath string) *TraceSink {
	if basePath == "" {
		basePath = filepath.Join(".algoviz", "traces")
	}
	return &TraceSink{BasePath: basePath}
}

func (s *TraceSink) path(runID string) (string, error) {
	if runID == "" {
		return "", fmt.Errorf("runID cannot be empty")
	}
	if strings.ContainsAny(runID, `/\`) || runID == "." || runID == ".." {
		return "", fmt.Errorf("invalid runID %q", runID)
	}
	return filepath.Join(s.BasePath, runID+ext), nil
}

// Append writes entry as a new line of the run's file.
func (s *TraceSink) Append(ctx context.Context, entry domain.TraceEntry) error {
	path, err := s.path(entry.RunID)
	if err != nil {
		return err
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal trace entry: %w", err)
	}
	data = append(data, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.BasePath, 0755); err != nil {
		return fmt.Errorf("failed to ensure trace directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open trace file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write trace entry: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close trace file: %w", err)
	}
	return nil
}

// Load reads the run's file. A torn last line (from an interrupted write) is skipped.
func (s *TraceSink) Load(ctx context.Context, runID string) ([]domain.TraceEntry, error) {
	path, err := s.path(runID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domain.ErrTraceNotFound
		}
		return nil, fmt.Errorf("failed to read trace file: %w", err)
	}
	defer f.Close()

	var lines [][]byte
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		if raw := scanner.Bytes(); len(raw) > 0 {
			lines = append(lines, append([]byte(nil), raw...))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan trace file: %w", err)
	}

	entries := make([]domain.TraceEntry, 0, len(lines))
	for i, raw := range lines {
		var entry domain.TraceEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			if i == len(lines)-1 {
				break
			}
			return nil, fmt.Errorf("failed to unmarshal trace entry %d: %w", i+1, err)
		}
		entries = append(entries, entry)
	}
	if len(entries) == 0 {
		return nil, domain.ErrTraceNotFound
	}
	return entries, nil
}

// Delete removes the run's file.
func (s *TraceSink) Delete(ctx context.Context, runID string) error {
	path, err := s.path(runID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete trace file: %w", err)
	}
	return nil
}

// List returns all stored run IDs.
func (s *TraceSink) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list traces: %w", err)
	}

	runs := []string{}
	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == ext {
			runs = append(runs, strings.TrimSuffix(entry.Name(), ext))
		}
	}
	return runs, nil
}
