package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tracewall/tracewall/internal/attest"
	"github.com/tracewall/tracewall/internal/config"
	"github.com/tracewall/tracewall/internal/verify"
)

var checkFormat string

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().StringVarP(&checkFormat, "format", "f", "text", "Output format (text|json)")
}

var checkCmd = &cobra.Command{
	Use:   "check <file>",
	Short: "Verify tagged segments without enforcement (dry-run)",
	Long: "Reads a JSON array of {text, channel, source_id} segments (use \"-\" for\n" +
		"stdin), runs the full verification pipeline, and prints the decision\n" +
		"with violating spans and an attestation.\n\n" +
		"Exit code 0 on pass, 1 on violations.",
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

// checkReport is the JSON output shape of the check command.
type checkReport struct {
	Decision    string             `json:"decision"`
	Violations  [][2]int           `json:"violations"`
	Normalized  string             `json:"normalized,omitempty"`
	Attestation attest.Attestation `json:"attestation"`
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	segments, err := readSegments(args[0])
	if err != nil {
		return err
	}

	res, err := verify.Segments(segments, cfg.VerifyLimits())
	if err != nil {
		return err
	}

	decision := verify.Blocked
	output := ""
	if res.OK() {
		decision = verify.Pass
		output = res.Normalized.Text()
	}
	att := attest.New(decision, res.InputSHA, output, res.ViolationSpans())

	switch checkFormat {
	case "json":
		out, err := json.MarshalIndent(checkReport{
			Decision:    string(decision),
			Violations:  res.ViolationSpans(),
			Normalized:  output,
			Attestation: att,
		}, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
	default:
		fmt.Printf("decision: %s\n", decision)
		for _, v := range res.Violations {
			fmt.Printf("violation: [%d,%d) %s %q (source %s)\n",
				v.Span.Start, v.Span.End, v.Span.Category, v.Span.Text, v.SourceID)
		}
		line, _ := att.Marshal()
		fmt.Printf("attestation: %s\n", line)
	}

	if !res.OK() {
		os.Exit(1)
	}
	return nil
}
