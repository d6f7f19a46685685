package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tracewall/tracewall/internal/integrity"
	tracemcp "github.com/tracewall/tracewall/internal/mcp"
)

func init() {
	rootCmd.AddCommand(mcpCmd)
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP tool server for agent integration",
	Long: "Runs tracewall as an MCP (Model Context Protocol) server over stdio.\n" +
		"Exposes tools: tracewall_verify, tracewall_gate, tracewall_history.",
	RunE: runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	if err := integrity.Verify(); err != nil {
		return err
	}

	srv, err := tracemcp.New(tracemcp.Config{ConfigPath: configPath})
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nShutting down MCP server...")
		cancel()
	}()

	fmt.Fprintln(os.Stderr, "tracewall MCP server running on stdio")
	return srv.Run(ctx)
}
