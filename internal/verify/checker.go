// Package verify runs the verification pipeline: merge → normalize →
// detect → check provenance. It enforces a single property: no imperative
// whose characters originate from an untrusted channel may be treated as
// safe. The pipeline is pure and deterministic; the same segments always
// produce the same result, across runs and processes. The checker holds no
// state between calls, so concurrent verifications need no coordination.
package verify

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/tracewall/tracewall/internal/imperative"
	"github.com/tracewall/tracewall/internal/normalize"
	"github.com/tracewall/tracewall/internal/provenance"
)

// Version identifies the checker, including its compiled-in vocabulary and
// confusable tables. Bump when any static table changes.
const Version = "tracewall-1.0.0"

// Decision is the outcome of a verification or gate pass.
type Decision string

const (
	Pass      Decision = "pass"
	Blocked   Decision = "blocked"
	Rewritten Decision = "rewritten"
)

// Violation is the proof that one imperative span contains untrusted text.
// One counter-example per span is sufficient; exhaustive per-character lists
// are not retained.
type Violation struct {
	Span                 imperative.Span
	FirstUntrustedOffset int
	SourceID             string
}

// Result is the output of a single pipeline pass.
type Result struct {
	Decision   Decision
	Normalized normalize.Result
	Spans      []imperative.Span
	Violations []Violation
	InputSHA   string // hex digest of the normalized input
}

// OK reports whether the pass found no violations.
func (r *Result) OK() bool {
	return len(r.Violations) == 0
}

// ViolationSpans returns the violation character spans in normalized
// coordinates, ordered left to right. Always non-nil.
func (r *Result) ViolationSpans() [][2]int {
	spans := make([][2]int, 0, len(r.Violations))
	for _, v := range r.Violations {
		spans = append(spans, [2]int{v.Span.Start, v.Span.End})
	}
	return spans
}

// Segments verifies caller-supplied segments end to end.
func Segments(segments []provenance.Segment, limits provenance.Limits) (*Result, error) {
	m, err := provenance.Merge(segments, limits)
	if err != nil {
		return nil, err
	}
	return Merged(m), nil
}

// Merged runs the pipeline from the normalizer stage on an already-merged
// buffer.
func Merged(m provenance.Merged) *Result {
	return merged(m, nil)
}

// Reverify runs the pipeline on a neutralized buffer, skipping detection
// inside the given regions (rune coordinates of the buffer). The enforcement
// gate re-enters here after neutralization, passing the marker regions it
// spliced; text in those regions has already been defused and must not
// re-match. Marker runes are normalization-stable, so the coordinates hold.
func Reverify(m provenance.Merged, protected [][2]int) *Result {
	return merged(m, protected)
}

func merged(m provenance.Merged, protected [][2]int) *Result {
	norm := normalize.Normalize(m)
	var spans []imperative.Span
	if len(protected) > 0 {
		spans = imperative.DetectSkipping(norm.Text(), protected)
	} else {
		spans = imperative.Detect(norm.Text())
	}
	violations := checkSpans(spans, norm.Tags)

	decision := Pass
	if len(violations) > 0 {
		decision = Blocked
	}

	return &Result{
		Decision:   decision,
		Normalized: norm,
		Spans:      spans,
		Violations: violations,
		InputSHA:   Digest(norm.Text()),
	}
}

// checkSpans walks each span left to right and records a violation at the
// first untrusted rune; a span with no untrusted rune is dropped. At most
// one violation per span, O(total normalized length) overall.
func checkSpans(spans []imperative.Span, tags []provenance.Tag) []Violation {
	var violations []Violation
	for _, s := range spans {
		for i := s.Start; i < s.End && i < len(tags); i++ {
			if tags[i].Channel == provenance.Untrusted {
				violations = append(violations, Violation{
					Span:                 s,
					FirstUntrustedOffset: i,
					SourceID:             tags[i].SourceID,
				})
				break
			}
		}
	}
	return violations
}

// Digest returns the lowercase hex SHA-256 of the text.
func Digest(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}
