// Package config loads tracewall's YAML configuration. Missing file means
// defaults; a present file overrides only the fields it sets.
package config

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/tracewall/tracewall/internal/gate"
	"github.com/tracewall/tracewall/internal/provenance"
)

// LimitsConfig bounds the verifier's input sizes.
type LimitsConfig struct {
	MaxSegmentBytes int `yaml:"max_segment_bytes"`
	MaxSegments     int `yaml:"max_segments"`
	MaxTotalBytes   int `yaml:"max_total_bytes"`
}

// DaemonConfig configures the spool watcher.
type DaemonConfig struct {
	InboxDir   string `yaml:"inbox_dir"`
	OutboxDir  string `yaml:"outbox_dir"`
	Workers    int    `yaml:"workers"`
	DebounceMS int    `yaml:"debounce_ms"`
}

// Config holds all configurable parameters.
type Config struct {
	Mode        string       `yaml:"mode"`
	Limits      LimitsConfig `yaml:"limits"`
	JournalPath string       `yaml:"journal_path"`
	StorePath   string       `yaml:"store_path"`
	Daemon      DaemonConfig `yaml:"daemon"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	base := filepath.Join(home, ".tracewall")
	return &Config{
		Mode: string(gate.ModeBlock),
		Limits: LimitsConfig{
			MaxSegmentBytes: provenance.DefaultMaxSegmentBytes,
			MaxSegments:     provenance.DefaultMaxSegments,
			MaxTotalBytes:   provenance.DefaultMaxTotalBytes,
		},
		JournalPath: filepath.Join(base, "journal.jsonl"),
		StorePath:   filepath.Join(base, "attestations.db"),
		Daemon: DaemonConfig{
			InboxDir:   filepath.Join(base, "inbox"),
			OutboxDir:  filepath.Join(base, "outbox"),
			Workers:    4,
			DebounceMS: 200,
		},
	}
}

// GateMode returns the configured enforcement mode, failing closed on an
// unknown label.
func (c *Config) GateMode() (gate.Mode, error) {
	return gate.ParseMode(c.Mode)
}

// VerifyLimits converts the configured limits, substituting defaults for
// unset or non-positive values.
func (c *Config) VerifyLimits() provenance.Limits {
	l := provenance.DefaultLimits()
	if c.Limits.MaxSegmentBytes > 0 {
		l.MaxSegmentBytes = c.Limits.MaxSegmentBytes
	}
	if c.Limits.MaxSegments > 0 {
		l.MaxSegments = c.Limits.MaxSegments
	}
	if c.Limits.MaxTotalBytes > 0 {
		l.MaxTotalBytes = c.Limits.MaxTotalBytes
	}
	return l
}

// Load reads configuration from a YAML file. Empty path falls back to
// ~/.tracewall/config.yaml. Missing file returns defaults. Invalid YAML or
// an invalid mode returns an error.
func Load(path string) (*Config, error) {
	cfg, _, err := LoadWithHash(path)
	return cfg, err
}

// LoadWithHash loads configuration and returns the SHA-256 of the raw YAML
// bytes on disk. When no file exists the hash is the digest of empty input.
func LoadWithHash(path string) (*Config, string, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return DefaultConfig(), emptyHash(), nil
		}
		path = filepath.Join(home, ".tracewall", "config.yaml")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), emptyHash(), nil
		}
		return nil, "", fmt.Errorf("failed to read config: %w", err)
	}

	h := sha256.Sum256(data)

	// Start with defaults, YAML overwrites only specified fields
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}
	if _, err := cfg.GateMode(); err != nil {
		return nil, "", err
	}

	return cfg, "sha256:" + hex.EncodeToString(h[:]), nil
}

func emptyHash() string {
	h := sha256.Sum256(nil)
	return "sha256:" + hex.EncodeToString(h[:])
}

// DefaultConfigYAML returns a commented YAML string for init.
func DefaultConfigYAML() string {
	return `# tracewall configuration
# Generated by: tracewall init
#
# Enforcement mode on a violation:
#   block   - deny, discard the text
#   rewrite - neutralize violating spans and re-verify once
mode: block

# Input size limits. The verifier refuses oversized input rather than
# truncating it.
limits:
  max_segment_bytes: 1000000
  max_segments: 1000
  max_total_bytes: 10000000

# Hash-chained attestation journal (JSONL, append-only).
journal_path: ~/.tracewall/journal.jsonl

# SQLite attestation store.
store_path: ~/.tracewall/attestations.db

# Spool daemon: watches inbox_dir for request files, writes results to
# outbox_dir.
daemon:
  inbox_dir: ~/.tracewall/inbox
  outbox_dir: ~/.tracewall/outbox
  workers: 4
  debounce_ms: 200
`
}
