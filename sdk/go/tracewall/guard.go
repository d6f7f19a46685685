package tracewall

import "context"

// ToolFunc is the function signature that Wrap guards. The input is the
// gated text: on Pass the normalized merge of the segments, on Rewritten
// the neutralized form.
type ToolFunc func(ctx context.Context, input string) (any, error)

// GuardedFunc accepts tagged segments instead of raw text.
type GuardedFunc func(ctx context.Context, segments []Segment) (any, error)

// Wrap returns a GuardedFunc that gates the segments before calling fn.
// If the gate denies the text, fn is never called and a *BlockedError is
// returned. Verification errors (malformed input, limits) are returned
// as-is and must be treated at least as conservatively as Blocked.
func (c *Client) Wrap(fn ToolFunc) GuardedFunc {
	return func(ctx context.Context, segments []Segment) (any, error) {
		result, err := c.Gate(segments)
		if err != nil {
			return nil, err
		}
		if !result.Allowed() {
			return nil, &BlockedError{
				Decision:    result.Decision,
				Violations:  result.Violations,
				Attestation: result.Attestation,
			}
		}
		return fn(ctx, result.Output)
	}
}
