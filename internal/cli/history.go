package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tracewall/tracewall/internal/config"
	"github.com/tracewall/tracewall/internal/store"
)

var historyLimit int

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum number of records to show")
}

var historyCmd = &cobra.Command{
	Use:   "history [input-sha256]",
	Short: "Query recorded attestations",
	Long: "With an input digest, lists attestations recorded for that exact merged\n" +
		"input. Without arguments, shows the most recent attestations and the\n" +
		"per-decision totals.",
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.StorePath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	var records []store.Record
	if len(args) == 1 {
		records, err = st.ByInput(args[0])
	} else {
		records, err = st.Recent(historyLimit)
	}
	if err != nil {
		return err
	}

	for _, r := range records {
		out, _ := json.Marshal(r.Attestation)
		fmt.Printf("%d\t%s\t%s\n", r.ID, r.RecordedAt.Format("2006-01-02T15:04:05.000Z"), out)
	}

	if len(args) == 0 {
		counts, err := st.DecisionCounts()
		if err != nil {
			return err
		}
		fmt.Printf("totals: pass=%d blocked=%d rewritten=%d\n", counts.Pass, counts.Blocked, counts.Rewritten)
	}
	return nil
}
