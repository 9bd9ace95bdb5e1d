// Package redis stores run traces in Redis lists, indexed by a sorted set.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aretw0/algoviz/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// farFuture is the index score of traces without a TTL (2100-01-01).
const farFuture = 4102444800

// TraceSink implements ports.TraceSink using Redis.
type TraceSink struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*TraceSink)

// WithTTL sets the expiration of traces, refreshed on every append.
func WithTTL(ttl time.Duration) Option {
	return func(s *TraceSink) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix for traces.
func WithPrefix(prefix string) Option {
	return func(s *TraceSink) {
		s.prefix = prefix
	}
}

// New creates a new Redis trace sink with options.
func New(address, password string, db int, opts ...Option) *TraceSink {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis trace sink from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *TraceSink {
	s := &TraceSink{
		client: client,
		prefix: "algoviz:trace:",
		ttl:    0, // No expiration by default
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *TraceSink) key(runID string) string {
	return s.prefix + runID
}

func (s *TraceSink) indexKey() string {
	return s.prefix + "index"
}

// Append pushes entry onto the run's list and refreshes the index.
func (s *TraceSink) Append(ctx context.Context, entry domain.TraceEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal trace entry: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, s.key(entry.RunID), data)

	// Score = Now + TTL, so List can prune runs whose list already expired.
	score := float64(farFuture)
	if s.ttl > 0 {
		pipe.Expire(ctx, s.key(entry.RunID), s.ttl)
		score = float64(time.Now().Add(s.ttl).Unix())
	}
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{
		Score:  score,
		Member: entry.RunID,
	})

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append to redis: %w", err)
	}
	return nil
}

// Load returns the run's entries in append order.
func (s *TraceSink) Load(ctx context.Context, runID string) ([]domain.TraceEntry, error) {
	vals, err := s.client.LRange(ctx, s.key(runID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read from redis: %w", err)
	}
	if len(vals) == 0 {
		return nil, domain.ErrTraceNotFound
	}

	entries := make([]domain.TraceEntry, len(vals))
	for i, v := range vals {
		if err := json.Unmarshal([]byte(v), &entries[i]); err != nil {
			return nil, fmt.Errorf("failed to unmarshal trace entry %d: %w", i, err)
		}
	}
	return entries, nil
}

// Delete removes the run's list and index entry.
func (s *TraceSink) Delete(ctx context.Context, runID string) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.key(runID))
	pipe.ZRem(ctx, s.indexKey(), runID)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete from redis: %w", err)
	}
	return nil
}

// List returns the stored run IDs, pruning expired ones from the index first.
func (s *TraceSink) List(ctx context.Context) ([]string, error) {
	now := float64(time.Now().Unix())
	if err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", fmt.Sprintf("%f", now)).Err(); err != nil {
		return nil, fmt.Errorf("failed to prune expired traces: %w", err)
	}

	runs, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list traces: %w", err)
	}
	return runs, nil
}

// Close closes the redis client.
func (s *TraceSink) Close() error {
	return s.client.Close()
}
