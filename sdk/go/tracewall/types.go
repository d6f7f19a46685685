package tracewall

import (
	"fmt"

	"github.com/tracewall/tracewall/internal/attest"
	"github.com/tracewall/tracewall/internal/provenance"
	"github.com/tracewall/tracewall/internal/verify"
)

// Decision is the verification outcome.
type Decision string

const (
	Pass      Decision = Decision(verify.Pass)
	Blocked   Decision = Decision(verify.Blocked)
	Rewritten Decision = Decision(verify.Rewritten)
)

// Segment is one provenance-tagged piece of input text.
type Segment struct {
	Text     string // segment body, must be valid UTF-8
	Channel  string // "trusted" or "untrusted"
	SourceID string // opaque source identifier
}

// Result is a verification outcome.
type Result struct {
	Decision    Decision
	Output      string
	Violations  [][2]int
	Attestation attest.Attestation
}

// Allowed returns true if the decision permits the text downstream.
func (r Result) Allowed() bool {
	return r.Decision == Pass || r.Decision == Rewritten
}

// BlockedError is returned when the gate denies the text.
type BlockedError struct {
	Decision    Decision
	Violations  [][2]int
	Attestation attest.Attestation
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("tracewall blocked: %d violating span(s)", len(e.Violations))
}

// toInternalSegments maps SDK segments to internal ones.
func toInternalSegments(segments []Segment) []provenance.Segment {
	out := make([]provenance.Segment, len(segments))
	for i, s := range segments {
		out[i] = provenance.Segment{Text: s.Text, Channel: provenance.Channel(s.Channel), SourceID: s.SourceID}
	}
	return out
}
