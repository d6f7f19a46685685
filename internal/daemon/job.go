// Package daemon implements the tracewall spool service. Verification
// requests arrive as JSON files in the inbox directory, are gated, and
// results are written to the outbox directory.
package daemon

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/tracewall/tracewall/internal/attest"
	"github.com/tracewall/tracewall/internal/gate"
	"github.com/tracewall/tracewall/internal/provenance"
)

// validID matches alphanumeric characters, dashes, and underscores only.
var validID = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Job is a verification request dropped into the inbox.
type Job struct {
	ID        string               `json:"id"`
	Mode      string               `json:"mode,omitempty"`
	Segments  []provenance.Segment `json:"segments"`
	Source    string               `json:"source,omitempty"`
	CreatedAt time.Time            `json:"created_at,omitempty"`
}

// Result is written to the outbox after gating a job.
type Result struct {
	ID          string              `json:"id"`
	Status      string              `json:"status"`
	Decision    string              `json:"decision,omitempty"`
	Output      string              `json:"output,omitempty"`
	Violations  [][2]int            `json:"violations,omitempty"`
	Attestation *attest.Attestation `json:"attestation,omitempty"`
	Error       string              `json:"error,omitempty"`
	CompletedAt time.Time           `json:"completed_at"`
}

// Result status values.
const (
	ResultDone   = "done"
	ResultFailed = "failed"
)

// ValidateJob checks that a job has all required fields and safe values.
func ValidateJob(j *Job) error {
	if j.ID == "" {
		return fmt.Errorf("job ID is required")
	}
	if strings.Contains(j.ID, "..") {
		return fmt.Errorf("job ID must not contain '..'")
	}
	if !validID.MatchString(j.ID) {
		return fmt.Errorf("job ID contains invalid characters: only alphanumeric, dash, and underscore allowed")
	}
	if j.Mode != "" {
		if _, err := gate.ParseMode(j.Mode); err != nil {
			return err
		}
	}
	if len(j.Segments) == 0 {
		return fmt.Errorf("job has no segments")
	}
	return nil
}
