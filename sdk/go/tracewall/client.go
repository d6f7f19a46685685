package tracewall

import (
	"fmt"
	"sync"

	"github.com/tracewall/tracewall/internal/attest"
	"github.com/tracewall/tracewall/internal/gate"
	"github.com/tracewall/tracewall/internal/provenance"
	"github.com/tracewall/tracewall/internal/store"
	"github.com/tracewall/tracewall/internal/verify"
)

// Client holds the verification pipeline for in-process enforcement.
// Safe for concurrent use.
type Client struct {
	mode    gate.Mode
	limits  provenance.Limits
	journal *attest.Journal
	store   *store.Store
	mu      sync.Mutex
}

// New creates a Client with the given options.
func New(opts ...Option) (*Client, error) {
	cfg := clientConfig{mode: string(gate.ModeBlock)}
	for _, o := range opts {
		o(&cfg)
	}

	mode, err := gate.ParseMode(cfg.mode)
	if err != nil {
		return nil, fmt.Errorf("tracewall: %w", err)
	}

	limits := provenance.DefaultLimits()
	if cfg.maxSegment > 0 {
		limits.MaxSegmentBytes = cfg.maxSegment
	}
	if cfg.maxSegments > 0 {
		limits.MaxSegments = cfg.maxSegments
	}
	if cfg.maxTotal > 0 {
		limits.MaxTotalBytes = cfg.maxTotal
	}

	c := &Client{mode: mode, limits: limits}

	if cfg.journalPath != "" {
		c.journal, err = attest.OpenJournal(cfg.journalPath)
		if err != nil {
			return nil, fmt.Errorf("tracewall: failed to open journal: %w", err)
		}
	}
	if cfg.storePath != "" {
		c.store, err = store.Open(cfg.storePath)
		if err != nil {
			if c.journal != nil {
				c.journal.Close()
			}
			return nil, fmt.Errorf("tracewall: failed to open store: %w", err)
		}
	}

	return c, nil
}

// Close releases the journal and store, when configured.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var firstErr error
	if c.journal != nil {
		if err := c.journal.Close(); err != nil {
			firstErr = err
		}
		c.journal = nil
	}
	if c.store != nil {
		if err := c.store.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		c.store = nil
	}
	return firstErr
}

// Check verifies the segments without enforcement or recording.
func (c *Client) Check(segments []Segment) (Result, error) {
	res, err := verify.Segments(toInternalSegments(segments), c.limits)
	if err != nil {
		return Result{}, err
	}

	decision := Blocked
	output := ""
	if res.OK() {
		decision = Pass
		output = res.Normalized.Text()
	}
	return Result{
		Decision:    decision,
		Output:      output,
		Violations:  res.ViolationSpans(),
		Attestation: attest.New(verify.Decision(decision), res.InputSHA, output, res.ViolationSpans()),
	}, nil
}

// Gate enforces the configured mode on the segments and records the
// attestation. A denied decision is still a successful call; use
// Result.Allowed or compare against Blocked.
func (c *Client) Gate(segments []Segment) (Result, error) {
	outcome, err := gate.Run(toInternalSegments(segments), c.mode, c.limits)
	if err != nil {
		return Result{}, err
	}

	c.record(outcome.Attestation)

	return Result{
		Decision:    Decision(outcome.Decision),
		Output:      outcome.Output,
		Violations:  outcome.Violations,
		Attestation: outcome.Attestation,
	}, nil
}

// record appends the attestation to the journal and store when configured.
// Recording failures do not change the decision already made.
func (c *Client) record(a attest.Attestation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.journal != nil {
		_ = c.journal.Record(a)
	}
	if c.store != nil {
		_, _ = c.store.Record(a)
	}
}
