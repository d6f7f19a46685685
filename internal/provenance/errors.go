package provenance

import "fmt"

// SegmentError reports a malformed segment (unrecognized channel label).
// Rejected before any processing: callers must treat it as fail-closed.
type SegmentError struct {
	Index int
	Label string
}

func (e *SegmentError) Error() string {
	return fmt.Sprintf("invalid segment %d: unrecognized channel %q (must be %q or %q)",
		e.Index, e.Label, Trusted, Untrusted)
}

// TextError reports input that cannot be normalized (invalid UTF-8).
// Fail-closed: dropping the offending bytes could hide an untrusted
// imperative, so the whole call is rejected instead.
type TextError struct {
	Index    int
	SourceID string
}

func (e *TextError) Error() string {
	return fmt.Sprintf("malformed text in segment %d (source %q): invalid UTF-8", e.Index, e.SourceID)
}

// LimitError reports input exceeding a configured resource bound. This is an
// operational limit, not a security decision.
type LimitError struct {
	Limit string
	Max   int
	Got   int
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("resource limit exceeded: %s is %d, maximum %d", e.Limit, e.Got, e.Max)
}
