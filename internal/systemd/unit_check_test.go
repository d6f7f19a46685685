package systemd

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func setUnitPaths(t *testing.T, unitPath, hashPath string) {
	t.Helper()
	oldPaths := UnitFilePaths
	oldHash := UnitHashPath
	UnitFilePaths = []string{unitPath}
	UnitHashPath = hashPath
	t.Cleanup(func() {
		UnitFilePaths = oldPaths
		UnitHashPath = oldHash
	})
}

func TestCheckUnitFileIntegrity(t *testing.T) {
	content := []byte("[Unit]\nDescription=tracewall spool daemon\n")
	h := sha256.Sum256(content)
	goodHash := hex.EncodeToString(h[:])

	tests := []struct {
		name       string
		unitData   []byte // nil means no unit file
		storedHash string // "" means no hash file
		wantWarn   bool
	}{
		{"no unit file", nil, goodHash, false},
		{"no stored hash", content, "", false},
		{"stored hash invalid", content, "short", false},
		{"hash matches", content, goodHash, false},
		{"unit file modified", content, strings.Repeat("a", 64), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			unitPath := filepath.Join(tmpDir, "tracewalld.service")
			hashPath := filepath.Join(tmpDir, "unit-file.sha256")
			if tt.unitData != nil {
				if err := os.WriteFile(unitPath, tt.unitData, 0644); err != nil {
					t.Fatal(err)
				}
			}
			if tt.storedHash != "" {
				if err := os.WriteFile(hashPath, []byte(tt.storedHash+"\n"), 0600); err != nil {
					t.Fatal(err)
				}
			}
			setUnitPaths(t, unitPath, hashPath)

			msg := CheckUnitFileIntegrity()
			if tt.wantWarn && msg == "" {
				t.Error("expected a warning, got none")
			}
			if !tt.wantWarn && msg != "" {
				t.Errorf("unexpected warning: %q", msg)
			}
			if tt.wantWarn && !strings.Contains(msg, "modified since installation") {
				t.Errorf("warning = %q", msg)
			}
		})
	}
}

func TestRecordUnitFileHash(t *testing.T) {
	tmpDir := t.TempDir()
	content := []byte("[Unit]\nDescription=tracewall spool daemon\n")
	unitPath := filepath.Join(tmpDir, "tracewalld.service")
	if err := os.WriteFile(unitPath, content, 0644); err != nil {
		t.Fatal(err)
	}
	hashPath := filepath.Join(tmpDir, "unit-file.sha256")
	setUnitPaths(t, unitPath, hashPath)

	if err := RecordUnitFileHash(); err != nil {
		t.Fatalf("RecordUnitFileHash: %v", err)
	}

	data, err := os.ReadFile(hashPath)
	if err != nil {
		t.Fatal(err)
	}
	h := sha256.Sum256(content)
	if got := strings.TrimSpace(string(data)); got != hex.EncodeToString(h[:]) {
		t.Errorf("stored hash = %s", got)
	}
}

func TestRecordUnitFileHashNoUnit(t *testing.T) {
	setUnitPaths(t, "/nonexistent/tracewalld.service", filepath.Join(t.TempDir(), "h"))
	if err := RecordUnitFileHash(); err == nil {
		t.Error("expected error when no unit file exists")
	}
}
