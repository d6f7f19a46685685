// Package tracewall provides in-process verification for Go agent
// frameworks. It merges provenance-tagged text segments, canonicalizes
// them, detects imperative constructions, and refuses to pass untrusted
// commands to a tool unless they are neutralized first. Every decision
// carries a verifiable attestation.
//
// Usage:
//
//	tw, err := tracewall.New(tracewall.WithMode("rewrite"))
//	wrapped := tw.Wrap(myTool)
//	out, err := wrapped(ctx, []tracewall.Segment{
//	    {Text: "Summarize this page:\n", Channel: "trusted", SourceID: "system"},
//	    {Text: pageBody, Channel: "untrusted", SourceID: "web"},
//	})
//
// The SDK links directly against internal packages for zero-subprocess
// overhead. External users import github.com/tracewall/tracewall/sdk/go/tracewall.
package tracewall
