package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tracewall/tracewall/internal/gate"
	"github.com/tracewall/tracewall/internal/provenance"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestMissingFileReturnsDefaults(t *testing.T) {
	cfg, hash, err := LoadWithHash(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	def := DefaultConfig()
	if cfg.Mode != def.Mode {
		t.Errorf("mode = %q, want default %q", cfg.Mode, def.Mode)
	}
	if cfg.Daemon.Workers != def.Daemon.Workers {
		t.Errorf("workers = %d, want %d", cfg.Daemon.Workers, def.Daemon.Workers)
	}
	if !strings.HasPrefix(hash, "sha256:") {
		t.Errorf("hash = %q", hash)
	}
}

func TestPartialYAMLMergesOverDefaults(t *testing.T) {
	path := writeConfig(t, "mode: rewrite\nlimits:\n  max_segments: 7\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Mode != "rewrite" {
		t.Errorf("mode = %q", cfg.Mode)
	}
	if cfg.Limits.MaxSegments != 7 {
		t.Errorf("max_segments = %d, want 7", cfg.Limits.MaxSegments)
	}
	// Unset fields keep defaults.
	if cfg.Limits.MaxTotalBytes != provenance.DefaultMaxTotalBytes {
		t.Errorf("max_total_bytes = %d, want default", cfg.Limits.MaxTotalBytes)
	}
	if cfg.JournalPath == "" {
		t.Error("journal_path lost its default")
	}
}

func TestInvalidModeRejected(t *testing.T) {
	path := writeConfig(t, "mode: permissive\n")
	if _, err := Load(path); err == nil {
		t.Error("invalid mode accepted")
	}
}

func TestInvalidYAMLRejected(t *testing.T) {
	path := writeConfig(t, "mode: [unterminated\n")
	if _, err := Load(path); err == nil {
		t.Error("malformed YAML accepted")
	}
}

func TestGateMode(t *testing.T) {
	cfg := DefaultConfig()
	m, err := cfg.GateMode()
	if err != nil || m != gate.ModeBlock {
		t.Errorf("default gate mode = %v (%v)", m, err)
	}
}

func TestVerifyLimitsSubstitutesDefaults(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Limits = LimitsConfig{MaxSegmentBytes: 0, MaxSegments: -1, MaxTotalBytes: 512}
	l := cfg.VerifyLimits()
	if l.MaxSegmentBytes != provenance.DefaultMaxSegmentBytes {
		t.Errorf("MaxSegmentBytes = %d, want default", l.MaxSegmentBytes)
	}
	if l.MaxSegments != provenance.DefaultMaxSegments {
		t.Errorf("MaxSegments = %d, want default", l.MaxSegments)
	}
	if l.MaxTotalBytes != 512 {
		t.Errorf("MaxTotalBytes = %d, want 512", l.MaxTotalBytes)
	}
}

func TestDefaultConfigYAMLParses(t *testing.T) {
	path := writeConfig(t, DefaultConfigYAML())
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Mode != "block" {
		t.Errorf("mode = %q", cfg.Mode)
	}
	if cfg.Daemon.DebounceMS != 200 {
		t.Errorf("debounce_ms = %d", cfg.Daemon.DebounceMS)
	}
}
