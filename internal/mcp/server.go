// Package mcp exposes tracewall verification over the Model Context
// Protocol, so agent frameworks can gate text without shelling out.
package mcp

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/tracewall/tracewall/internal/attest"
	"github.com/tracewall/tracewall/internal/config"
	"github.com/tracewall/tracewall/internal/gate"
	"github.com/tracewall/tracewall/internal/provenance"
	"github.com/tracewall/tracewall/internal/store"
)

// Config holds MCP server configuration.
type Config struct {
	ConfigPath string
}

// Server wraps the MCP SDK server with tracewall enforcement.
type Server struct {
	mcpServer *mcpsdk.Server
	cfg       *config.Config
	mode      gate.Mode
	limits    provenance.Limits
	journal   *attest.Journal
	store     *store.Store
}

// New creates an MCP server with loaded configuration, journal, and store.
func New(cfg Config) (*Server, error) {
	conf, err := config.Load(cfg.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	mode, err := conf.GateMode()
	if err != nil {
		return nil, err
	}

	journal, err := attest.OpenJournal(conf.JournalPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	st, err := store.Open(conf.StorePath)
	if err != nil {
		journal.Close()
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	s := &Server{
		cfg:     conf,
		mode:    mode,
		limits:  conf.VerifyLimits(),
		journal: journal,
		store:   st,
	}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    "tracewall",
			Version: "0.1.0",
		},
		nil,
	)

	s.registerTools()
	return s, nil
}

// Run starts the MCP server on stdio transport. Blocks until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

// Close releases the journal and store.
func (s *Server) Close() error {
	var firstErr error
	if s.journal != nil {
		if err := s.journal.Close(); err != nil {
			firstErr = err
		}
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// registerTools adds all tracewall tools to the MCP server.
func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "tracewall_verify",
		Description: "Verify tagged text segments without enforcement (dry-run). Returns the decision, violating spans, and a signed attestation.",
	}, s.handleVerify)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "tracewall_gate",
		Description: "Gate tagged text segments. Blocked text returns no output; in rewrite mode violating spans are neutralized and re-verified.",
	}, s.handleGate)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "tracewall_history",
		Description: "Look up recorded attestations by input digest.",
	}, s.handleHistory)
}
