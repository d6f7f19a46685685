// Package store persists attestations in SQLite so past decisions can be
// queried by input digest long after the journal has rotated.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/tracewall/tracewall/internal/attest"
	"github.com/tracewall/tracewall/internal/verify"
)

// Record is one persisted attestation row.
type Record struct {
	ID          int64              `json:"id"`
	RecordedAt  time.Time          `json:"recorded_at"`
	Attestation attest.Attestation `json:"attestation"`
}

// Counts aggregates decisions seen so far.
type Counts struct {
	Pass      int `json:"pass"`
	Blocked   int `json:"blocked"`
	Rewritten int `json:"rewritten"`
}

// Store manages the attestation database.
type Store struct {
	db     *sql.DB
	dbPath string
	mu     sync.RWMutex
}

// Open creates or opens the attestation store at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	s := &Store{db: db, dbPath: path}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize store schema: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS attestations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		recorded_at TEXT NOT NULL,
		checker_version TEXT NOT NULL,
		input_sha256 TEXT NOT NULL,
		output_sha256 TEXT NOT NULL,
		decision TEXT NOT NULL,
		violations_json TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_attestations_input ON attestations(input_sha256);
	CREATE INDEX IF NOT EXISTS idx_attestations_decision ON attestations(decision);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record appends an attestation and returns its row ID.
func (s *Store) Record(a attest.Attestation) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	violationsJSON, err := json.Marshal(a.Violations)
	if err != nil {
		return 0, fmt.Errorf("failed to encode violations: %w", err)
	}

	res, err := s.db.Exec(`
		INSERT INTO attestations (recorded_at, checker_version, input_sha256,
			output_sha256, decision, violations_json)
		VALUES (?, ?, ?, ?, ?, ?)
	`, time.Now().UTC().Format(attest.TimestampFormat), a.CheckerVersion,
		a.InputSHA256, a.OutputSHA256, a.Decision, violationsJSON)
	if err != nil {
		return 0, fmt.Errorf("failed to record attestation: %w", err)
	}
	return res.LastInsertId()
}

// ByInput returns attestations whose input digest matches, newest first.
func (s *Store) ByInput(inputSHA string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, recorded_at, checker_version, input_sha256, output_sha256,
			decision, violations_json
		FROM attestations
		WHERE input_sha256 = ?
		ORDER BY id DESC
	`, inputSHA)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

// Recent returns the newest attestations, up to limit.
func (s *Store) Recent(limit int) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, recorded_at, checker_version, input_sha256, output_sha256,
			decision, violations_json
		FROM attestations
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

// DecisionCounts aggregates rows per decision.
func (s *Store) DecisionCounts() (Counts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`SELECT decision, COUNT(*) FROM attestations GROUP BY decision`)
	if err != nil {
		return Counts{}, err
	}
	defer rows.Close()

	var c Counts
	for rows.Next() {
		var decision string
		var n int
		if err := rows.Scan(&decision, &n); err != nil {
			return Counts{}, err
		}
		switch verify.Decision(decision) {
		case verify.Pass:
			c.Pass = n
		case verify.Blocked:
			c.Blocked = n
		case verify.Rewritten:
			c.Rewritten = n
		}
	}
	return c, rows.Err()
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	var out []Record
	for rows.Next() {
		var r Record
		var recordedAt string
		var violationsJSON []byte
		if err := rows.Scan(&r.ID, &recordedAt, &r.Attestation.CheckerVersion,
			&r.Attestation.InputSHA256, &r.Attestation.OutputSHA256,
			&r.Attestation.Decision, &violationsJSON); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(violationsJSON, &r.Attestation.Violations); err != nil {
			return nil, fmt.Errorf("failed to decode violations for row %d: %w", r.ID, err)
		}
		if r.Attestation.Violations == nil {
			r.Attestation.Violations = [][2]int{}
		}
		if ts, err := time.Parse(attest.TimestampFormat, recordedAt); err == nil {
			r.RecordedAt = ts
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
