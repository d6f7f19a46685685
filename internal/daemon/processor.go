package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tracewall/tracewall/internal/attest"
	"github.com/tracewall/tracewall/internal/gate"
	"github.com/tracewall/tracewall/internal/provenance"
	"github.com/tracewall/tracewall/internal/store"
)

// ProcessorConfig holds runtime configuration for request processing.
type ProcessorConfig struct {
	Dirs    DirConfig
	Mode    gate.Mode
	Limits  provenance.Limits
	Journal *attest.Journal // optional
	Store   *store.Store    // optional
}

// Processor handles the request lifecycle.
type Processor struct {
	cfg ProcessorConfig
}

// NewProcessor creates a processor with the given configuration.
func NewProcessor(cfg ProcessorConfig) *Processor {
	if cfg.Mode == "" {
		cfg.Mode = gate.ModeBlock
	}
	return &Processor{cfg: cfg}
}

// Process handles a single request file through its full lifecycle:
// read → validate → move to processing → gate → write result to outbox.
func (p *Processor) Process(_ context.Context, jobPath string) error {
	// Structural symlink defense: reject symlinks before reading. Without
	// this, a symlink to a valid JSON file anywhere on the filesystem would
	// be processed as a legitimate request.
	fi, err := os.Lstat(jobPath)
	if err != nil {
		return fmt.Errorf("stat request file: %w", err)
	}
	if fi.Mode()&os.ModeSymlink != 0 {
		return fmt.Errorf("rejected symlink: %s", filepath.Base(jobPath))
	}

	data, err := os.ReadFile(jobPath)
	if err != nil {
		return fmt.Errorf("read request file: %w", err)
	}

	var job Job
	if err := json.Unmarshal(data, &job); err != nil {
		_ = os.Remove(jobPath)
		return p.writeFailedResult(filepath.Base(jobPath), fmt.Sprintf("invalid JSON: %v", err))
	}

	if err := ValidateJob(&job); err != nil {
		_ = os.Remove(jobPath)
		return p.writeFailedResult(job.ID, fmt.Sprintf("validation failed: %v", err))
	}

	// Park in processing state. Uses moveFile to handle bind mounts (EXDEV).
	processingPath := filepath.Join(p.cfg.Dirs.ProcessingDir(), job.ID+".json")
	if err := moveFile(jobPath, processingPath); err != nil {
		return fmt.Errorf("move to processing: %w", err)
	}

	result := p.execute(&job)

	if err := p.writeResult(result); err != nil {
		return fmt.Errorf("write result: %w", err)
	}

	_ = os.Remove(processingPath)
	return nil
}

// execute gates the job's segments and records the attestation.
func (p *Processor) execute(job *Job) *Result {
	mode := p.cfg.Mode
	if job.Mode != "" {
		mode = gate.Mode(job.Mode)
	}

	outcome, err := gate.Run(job.Segments, mode, p.cfg.Limits)
	if err != nil {
		return &Result{
			ID:          job.ID,
			Status:      ResultFailed,
			Error:       err.Error(),
			CompletedAt: time.Now().UTC(),
		}
	}

	p.record(job.ID, outcome.Attestation)

	return &Result{
		ID:          job.ID,
		Status:      ResultDone,
		Decision:    string(outcome.Decision),
		Output:      outcome.Output,
		Violations:  outcome.Violations,
		Attestation: &outcome.Attestation,
		CompletedAt: time.Now().UTC(),
	}
}

// record appends the attestation to the journal and store when configured.
// Recording failures must not change the decision already made, so they are
// reported on stderr and the result still ships.
func (p *Processor) record(jobID string, a attest.Attestation) {
	if p.cfg.Journal != nil {
		if err := p.cfg.Journal.Record(a); err != nil {
			fmt.Fprintf(os.Stderr, "tracewalld: journal %s: %v\n", jobID, err)
		}
	}
	if p.cfg.Store != nil {
		if _, err := p.cfg.Store.Record(a); err != nil {
			fmt.Fprintf(os.Stderr, "tracewalld: store %s: %v\n", jobID, err)
		}
	}
}

// writeResult writes a result to the outbox directory atomically.
func (p *Processor) writeResult(r *Result) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	filename := r.ID + ".json"
	tmpPath := filepath.Join(p.cfg.Dirs.Outbox, filename+".tmp")
	finalPath := filepath.Join(p.cfg.Dirs.Outbox, filename)

	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("write temp: %w", err)
	}
	return os.Rename(tmpPath, finalPath)
}

// writeFailedResult writes a minimal failed result when the request can't
// be parsed.
func (p *Processor) writeFailedResult(id string, errMsg string) error {
	if id == "" || !validID.MatchString(id) {
		id = fmt.Sprintf("unknown-%d", time.Now().UnixNano())
	}
	r := &Result{
		ID:          id,
		Status:      ResultFailed,
		Error:       errMsg,
		CompletedAt: time.Now().UTC(),
	}
	return p.writeResult(r)
}
