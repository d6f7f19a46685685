// Package attest builds and checks the hash-based attestation record
// produced for every verification call. Attestations are value objects,
// fully derived from the normalized input, the produced output, and the
// decision: recomputing one from the same inputs always yields
// byte-identical JSON.
package attest

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/tracewall/tracewall/internal/verify"
)

// EmptySHA256 is the digest recorded as output_sha256 for blocked decisions.
const EmptySHA256 = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"

// Attestation is the serializable verification record. Field order and
// naming are part of the compatibility contract: all fields are concrete
// types (no maps) so json.Marshal emits them deterministically, and the
// struct carries exactly these fields and no others.
type Attestation struct {
	CheckerVersion string   `json:"checker_version"`
	InputSHA256    string   `json:"input_sha256"`
	OutputSHA256   string   `json:"output_sha256"`
	Decision       string   `json:"decision"`
	Violations     [][2]int `json:"violations"`
}

// New derives an attestation from a pipeline result and the text the gate
// produced. Output is empty for blocked decisions; the output digest is then
// the digest of the empty string. Violation spans are recorded as
// normalized-coordinate pairs: never source text snippets.
func New(decision verify.Decision, inputSHA, output string, violations [][2]int) Attestation {
	if violations == nil {
		violations = [][2]int{}
	}
	outputSHA := verify.Digest(output)
	if decision == verify.Blocked {
		outputSHA = EmptySHA256
	}
	return Attestation{
		CheckerVersion: verify.Version,
		InputSHA256:    inputSHA,
		OutputSHA256:   outputSHA,
		Decision:       string(decision),
		Violations:     violations,
	}
}

// Marshal returns the canonical JSON encoding.
func (a Attestation) Marshal() ([]byte, error) {
	return json.Marshal(a)
}

// Check recomputes the hash contract against the produced output text.
// Downstream verifiers use this to recheck decision/hash consistency
// without re-running detection.
func (a Attestation) Check(output string) error {
	switch verify.Decision(a.Decision) {
	case verify.Blocked:
		if a.OutputSHA256 != EmptySHA256 {
			return fmt.Errorf("blocked attestation output_sha256 is %s, want digest of empty string", a.OutputSHA256)
		}
	case verify.Pass, verify.Rewritten:
		got := verify.Digest(output)
		if a.OutputSHA256 != got {
			return fmt.Errorf("output_sha256 mismatch: attested %s, recomputed %s", a.OutputSHA256, got)
		}
	default:
		return fmt.Errorf("unknown decision %q", a.Decision)
	}
	if verify.Decision(a.Decision) != verify.Blocked && len(a.Violations) > 0 && a.Decision == string(verify.Pass) {
		return fmt.Errorf("pass attestation carries %d violations", len(a.Violations))
	}
	return nil
}

// HashLine returns "sha256:<hex>" of the given bytes.
func HashLine(line []byte) string {
	h := sha256.Sum256(line)
	return "sha256:" + hex.EncodeToString(h[:])
}
