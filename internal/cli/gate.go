package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tracewall/tracewall/internal/attest"
	"github.com/tracewall/tracewall/internal/config"
	"github.com/tracewall/tracewall/internal/gate"
	"github.com/tracewall/tracewall/internal/store"
)

var (
	gateMode     string
	gateFormat   string
	gateNoRecord bool
)

func init() {
	rootCmd.AddCommand(gateCmd)
	gateCmd.Flags().StringVar(&gateMode, "mode", "", "Enforcement mode (block|rewrite), overrides config")
	gateCmd.Flags().StringVarP(&gateFormat, "format", "f", "text", "Output format (text|json)")
	gateCmd.Flags().BoolVar(&gateNoRecord, "no-record", false, "Skip journal and store recording")
}

var gateCmd = &cobra.Command{
	Use:   "gate <file>",
	Short: "Gate tagged segments and print the allowed output",
	Long: "Reads a JSON array of {text, channel, source_id} segments (use \"-\" for\n" +
		"stdin) and enforces the configured mode. In block mode a violation\n" +
		"denies the text; in rewrite mode violating spans are neutralized and\n" +
		"re-verified once. The attestation is appended to the journal and the\n" +
		"attestation store unless --no-record is set.\n\n" +
		"Exit code 0 when the text is allowed, 1 when it is blocked.",
	Args: cobra.ExactArgs(1),
	RunE: runGate,
}

func runGate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	mode, err := cfg.GateMode()
	if err != nil {
		return err
	}
	if gateMode != "" {
		mode, err = gate.ParseMode(gateMode)
		if err != nil {
			return err
		}
	}

	segments, err := readSegments(args[0])
	if err != nil {
		return err
	}

	outcome, err := gate.Run(segments, mode, cfg.VerifyLimits())
	if err != nil {
		return err
	}

	if !gateNoRecord {
		if err := record(cfg, outcome.Attestation); err != nil {
			fmt.Fprintf(os.Stderr, "tracewall: record attestation: %v\n", err)
		}
	}

	switch gateFormat {
	case "json":
		out, err := json.MarshalIndent(outcome, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
	default:
		fmt.Printf("decision: %s\n", outcome.Decision)
		if outcome.Allowed() {
			fmt.Println(outcome.Output)
		} else {
			for _, v := range outcome.Violations {
				fmt.Printf("violation: [%d,%d)\n", v[0], v[1])
			}
		}
	}

	if !outcome.Allowed() {
		os.Exit(1)
	}
	return nil
}

// record appends the attestation to the configured journal and store.
func record(cfg *config.Config, a attest.Attestation) error {
	journal, err := attest.OpenJournal(cfg.JournalPath)
	if err != nil {
		return err
	}
	defer journal.Close()
	if err := journal.Record(a); err != nil {
		return err
	}

	st, err := store.Open(cfg.StorePath)
	if err != nil {
		return err
	}
	defer st.Close()
	_, err = st.Record(a)
	return err
}
