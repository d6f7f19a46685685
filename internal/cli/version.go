package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tracewall/tracewall/internal/integrity"
	"github.com/tracewall/tracewall/internal/verify"
)

const version = "0.1.0"

func init() {
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		info := map[string]string{
			"version": version,
			"name":    "tracewall",
			"checker": verify.Version,
		}
		if hash, err := integrity.HashSelf(); err == nil {
			info["binary_sha256"] = hash
		}
		out, _ := json.MarshalIndent(info, "", "  ")
		fmt.Println(string(out))
	},
}
