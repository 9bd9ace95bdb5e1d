// Package config loads algoviz.yaml.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/algoviz/pkg/domain"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up in the working directory.
const DefaultPath = "algoviz.yaml"

// EnvTraceKey overrides trace.encryption_key.
const EnvTraceKey = "ALGOVIZ_TRACE_KEY"

// Trace backends.
const (
	TraceNone   = "none"
	TraceMemory = "memory"
	TraceFile   = "file"
	TraceRedis  = "redis"
)

// Config represents the structure of algoviz.yaml.
type Config struct {
	Log       LogConfig     `yaml:"log" json:"log"`
	Server    ServerConfig  `yaml:"server" json:"server"`
	Retention domain.Config `yaml:"retention" json:"retention"`
	Trace     TraceConfig   `yaml:"trace" json:"trace"`
	// Lang selects manifest texts: "en" or "ru".
	Lang string `yaml:"lang" json:"lang"`
}

type LogConfig struct {
	Level string `yaml:"level" json:"level"`
	// File, when set, receives a JSON copy of every log record.
	File string `yaml:"file" json:"file"`
}

type ServerConfig struct {
	Addr        string   `yaml:"addr" json:"addr"`
	MaxSessions int      `yaml:"max_sessions" json:"max_sessions"`
	CORSOrigins []string `yaml:"cors_origins" json:"cors_origins"`
}

type TraceConfig struct {
	Backend string      `yaml:"backend" json:"backend"`
	Dir     string      `yaml:"dir" json:"dir"`
	Redis   RedisConfig `yaml:"redis" json:"redis"`
	// Redact lists regular expressions; matching state keys are masked before export.
	Redact []string `yaml:"redact" json:"redact"`
	// EncryptionKey is a base64 AES-256 key. When set, exported args and state are encrypted.
	EncryptionKey string `yaml:"encryption_key" json:"encryption_key"`
	// FallbackKeys decrypt traces written with rotated keys.
	FallbackKeys []string `yaml:"fallback_keys" json:"fallback_keys"`
}

type RedisConfig struct {
	Addr     string        `yaml:"addr" json:"addr"`
	Password string        `yaml:"password" json:"password"`
	DB       int           `yaml:"db" json:"db"`
	Prefix   string        `yaml:"prefix" json:"prefix"`
	TTL      time.Duration `yaml:"ttl" json:"ttl"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Log: LogConfig{Level: "warn"},
		Server: ServerConfig{
			Addr:        ":8080",
			MaxSessions: 64,
			CORSOrigins: []string{"*"},
		},
		Retention: domain.DefaultConfig(),
		Trace: TraceConfig{
			Backend: TraceNone,
			Dir:     filepath.Join(".algoviz", "traces"),
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Prefix: "algoviz:trace:",
			},
		},
		Lang: "en",
	}
}

// Load reads a configuration file (YAML or JSON) on top of Default.
// A missing file is not an error: the defaults are returned.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg.applyEnv()
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	} else {
		// Default to YAML
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	cfg.Retention.NoStop = false
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if key := os.Getenv(EnvTraceKey); key != "" {
		c.Trace.EncryptionKey = key
	}
}

// Validate checks enumerated fields.
func (c Config) Validate() error {
	switch c.Trace.Backend {
	case "", TraceNone, TraceMemory, TraceFile, TraceRedis:
	default:
		return fmt.Errorf("unknown trace backend %q", c.Trace.Backend)
	}
	switch c.Lang {
	case "", "en", "ru":
	default:
		return fmt.Errorf("unsupported lang %q", c.Lang)
	}
	if c.Server.MaxSessions < 0 {
		return fmt.Errorf("server.max_sessions must not be negative")
	}
	return nil
}
