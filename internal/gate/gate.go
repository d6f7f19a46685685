// Package gate is the enforcement layer in front of the verifier. It runs
// the pipeline at most twice per call: a first verification, and, in
// rewrite mode, a neutralize-and-reverify cycle. A second-pass violation is
// terminal; there is no retry loop.
package gate

import (
	"fmt"

	"github.com/tracewall/tracewall/internal/attest"
	"github.com/tracewall/tracewall/internal/provenance"
	"github.com/tracewall/tracewall/internal/verify"
)

// Mode selects the enforcement behavior on a first-pass violation.
type Mode string

const (
	// ModeBlock denies on any violation; the original text is discarded.
	ModeBlock Mode = "block"
	// ModeRewrite neutralizes violating spans and re-verifies once.
	ModeRewrite Mode = "rewrite"
)

// ParseMode validates a caller-supplied mode label.
func ParseMode(label string) (Mode, error) {
	switch Mode(label) {
	case ModeBlock, ModeRewrite:
		return Mode(label), nil
	default:
		return "", fmt.Errorf("invalid mode %q: must be %q or %q", label, ModeBlock, ModeRewrite)
	}
}

// Outcome is the result of one gate invocation.
type Outcome struct {
	Decision       verify.Decision    `json:"decision"`
	Output         string             `json:"output"`
	Violations     [][2]int           `json:"violations"`
	Attestation    attest.Attestation `json:"attestation"`
	RewriteApplied bool               `json:"rewrite_applied"`
}

// Allowed reports whether the gated text may proceed downstream.
func (o *Outcome) Allowed() bool {
	return o.Decision == verify.Pass || o.Decision == verify.Rewritten
}

// Run gates the segments in the given mode. Errors (invalid segment,
// malformed text, resource limits) abort the call before any decision is
// made: callers must treat them at least as conservatively as Blocked.
//
// The state machine is Verify1 → {Allow | Deny | Neutralize → Verify2 →
// {Allow | Deny}}. On Pass the allowed output is the normalized text, so the
// attested output digest always covers text the checker actually inspected.
func Run(segments []provenance.Segment, mode Mode, limits provenance.Limits) (*Outcome, error) {
	if _, err := ParseMode(string(mode)); err != nil {
		return nil, err
	}

	r1, err := verify.Segments(segments, limits)
	if err != nil {
		return nil, err
	}

	if r1.OK() {
		output := r1.Normalized.Text()
		return &Outcome{
			Decision:    verify.Pass,
			Output:      output,
			Violations:  r1.ViolationSpans(),
			Attestation: attest.New(verify.Pass, r1.InputSHA, output, r1.ViolationSpans()),
		}, nil
	}

	if mode == ModeBlock {
		return &Outcome{
			Decision:    verify.Blocked,
			Output:      "",
			Violations:  r1.ViolationSpans(),
			Attestation: attest.New(verify.Blocked, r1.InputSHA, "", r1.ViolationSpans()),
		}, nil
	}

	// Neutralize and re-enter the pipeline from the normalizer stage. Only
	// the marker regions this call spliced are exempt from detection; a
	// marker-shaped region already present in the input is not.
	neutralized, markerRegions := Neutralize(r1)
	r2 := verify.Reverify(neutralized, markerRegions)

	if r2.OK() {
		output := r2.Normalized.Text()
		return &Outcome{
			Decision:       verify.Rewritten,
			Output:         output,
			Violations:     r1.ViolationSpans(),
			Attestation:    attest.New(verify.Rewritten, r1.InputSHA, output, r1.ViolationSpans()),
			RewriteApplied: true,
		}, nil
	}

	// Neutralization was insufficient. Terminal: never a second rewrite.
	return &Outcome{
		Decision:       verify.Blocked,
		Output:         "",
		Violations:     r1.ViolationSpans(),
		Attestation:    attest.New(verify.Blocked, r1.InputSHA, "", r1.ViolationSpans()),
		RewriteApplied: true,
	}, nil
}
