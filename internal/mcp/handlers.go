package mcp

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/tracewall/tracewall/internal/attest"
	"github.com/tracewall/tracewall/internal/gate"
	"github.com/tracewall/tracewall/internal/provenance"
	"github.com/tracewall/tracewall/internal/verify"
)

// --- Input/Output types ---

// SegmentInput is one tagged text segment.
type SegmentInput struct {
	Text     string `json:"text" jsonschema:"segment text"`
	Channel  string `json:"channel" jsonschema:"provenance channel (trusted/untrusted)"`
	SourceID string `json:"source_id,omitempty" jsonschema:"opaque source identifier"`
}

// VerifyInput defines parameters for the tracewall_verify tool.
type VerifyInput struct {
	Segments []SegmentInput `json:"segments" jsonschema:"tagged text segments in order"`
}

// VerifyOutput contains the verification decision and attestation.
type VerifyOutput struct {
	Decision    string              `json:"decision"`
	Violations  [][2]int            `json:"violations"`
	Normalized  string              `json:"normalized,omitempty"`
	Attestation *attest.Attestation `json:"attestation,omitempty"`
	Error       string              `json:"error,omitempty"`
}

// GateInput defines parameters for the tracewall_gate tool.
type GateInput struct {
	Segments []SegmentInput `json:"segments" jsonschema:"tagged text segments in order"`
	Mode     string         `json:"mode,omitempty" jsonschema:"enforcement mode (block/rewrite), defaults to configured mode"`
}

// GateOutput contains the enforcement decision.
type GateOutput struct {
	Decision    string              `json:"decision"`
	Allowed     bool                `json:"allowed"`
	Output      string              `json:"output,omitempty"`
	Violations  [][2]int            `json:"violations"`
	Attestation *attest.Attestation `json:"attestation,omitempty"`
	Error       string              `json:"error,omitempty"`
}

// HistoryInput defines parameters for the tracewall_history tool.
type HistoryInput struct {
	InputSHA256 string `json:"input_sha256" jsonschema:"hex SHA-256 of the merged input text"`
}

// HistoryOutput lists recorded attestations for the digest.
type HistoryOutput struct {
	Attestations []attest.Attestation `json:"attestations"`
}

// --- Handlers ---

func toSegments(in []SegmentInput) []provenance.Segment {
	out := make([]provenance.Segment, len(in))
	for i, s := range in {
		out[i] = provenance.Segment{Text: s.Text, Channel: provenance.Channel(s.Channel), SourceID: s.SourceID}
	}
	return out
}

func (s *Server) handleVerify(_ context.Context, _ *mcpsdk.CallToolRequest, input VerifyInput) (*mcpsdk.CallToolResult, VerifyOutput, error) {
	res, err := verify.Segments(toSegments(input.Segments), s.limits)
	if err != nil {
		return &mcpsdk.CallToolResult{IsError: true}, VerifyOutput{Error: err.Error()}, nil
	}

	decision := verify.Blocked
	output := ""
	if res.OK() {
		decision = verify.Pass
		output = res.Normalized.Text()
	}
	att := attest.New(decision, res.InputSHA, output, res.ViolationSpans())

	return nil, VerifyOutput{
		Decision:    string(decision),
		Violations:  res.ViolationSpans(),
		Normalized:  output,
		Attestation: &att,
	}, nil
}

func (s *Server) handleGate(_ context.Context, _ *mcpsdk.CallToolRequest, input GateInput) (*mcpsdk.CallToolResult, GateOutput, error) {
	mode := s.mode
	if input.Mode != "" {
		parsed, err := gate.ParseMode(input.Mode)
		if err != nil {
			return &mcpsdk.CallToolResult{IsError: true}, GateOutput{Error: err.Error()}, nil
		}
		mode = parsed
	}

	outcome, err := gate.Run(toSegments(input.Segments), mode, s.limits)
	if err != nil {
		return &mcpsdk.CallToolResult{IsError: true}, GateOutput{Error: err.Error()}, nil
	}

	s.record(outcome.Attestation)

	out := GateOutput{
		Decision:    string(outcome.Decision),
		Allowed:     outcome.Allowed(),
		Output:      outcome.Output,
		Violations:  outcome.Violations,
		Attestation: &outcome.Attestation,
	}
	if !outcome.Allowed() {
		return &mcpsdk.CallToolResult{IsError: true}, out, nil
	}
	return nil, out, nil
}

func (s *Server) handleHistory(_ context.Context, _ *mcpsdk.CallToolRequest, input HistoryInput) (*mcpsdk.CallToolResult, HistoryOutput, error) {
	records, err := s.store.ByInput(input.InputSHA256)
	if err != nil {
		return nil, HistoryOutput{}, err
	}
	out := HistoryOutput{Attestations: make([]attest.Attestation, 0, len(records))}
	for _, r := range records {
		out.Attestations = append(out.Attestations, r.Attestation)
	}
	return nil, out, nil
}

// record appends the attestation to the journal and store. Recording
// failures must not change a decision already made.
func (s *Server) record(a attest.Attestation) {
	if s.journal != nil {
		_ = s.journal.Record(a)
	}
	if s.store != nil {
		_, _ = s.store.Record(a)
	}
}
