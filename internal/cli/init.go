package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tracewall/tracewall/internal/config"
	"github.com/tracewall/tracewall/internal/integrity"
)

var (
	initForce    bool
	initChecksum bool
)

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config file")
	initCmd.Flags().BoolVar(&initChecksum, "record-checksum", false, "Record the binary's hash as the integrity baseline")
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a commented default config file",
	RunE:  runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	path := configPath
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolve home directory: %w", err)
		}
		path = filepath.Join(home, ".tracewall", "config.yaml")
	}

	if _, err := os.Stat(path); err == nil && !initForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(config.DefaultConfigYAML()), 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	fmt.Printf("wrote %s\n", path)

	if initChecksum {
		sumPath := filepath.Join(filepath.Dir(path), "binary.sha256")
		if err := integrity.RecordSelf(sumPath); err != nil {
			return fmt.Errorf("record binary checksum: %w", err)
		}
		fmt.Printf("wrote %s\n", sumPath)
	}
	return nil
}
