package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tracewall/tracewall/internal/attest"
	"github.com/tracewall/tracewall/internal/config"
	"github.com/tracewall/tracewall/internal/daemon"
	"github.com/tracewall/tracewall/internal/integrity"
	"github.com/tracewall/tracewall/internal/store"
	"github.com/tracewall/tracewall/internal/systemd"
)

var (
	watchPoll         bool
	watchPollInterval time.Duration
	watchPrintUnit    bool
)

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().BoolVar(&watchPoll, "poll", false, "Poll the inbox instead of using fsnotify (for NFS)")
	watchCmd.Flags().DurationVar(&watchPollInterval, "poll-interval", 0, "Polling interval when --poll is set")
	watchCmd.Flags().BoolVar(&watchPrintUnit, "print-unit", false, "Print the systemd unit template and exit")
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the spool daemon",
	Long: "Watches the configured inbox directory for verification request files,\n" +
		"gates each one, and writes the result to the outbox. Attestations are\n" +
		"recorded in the journal and the attestation store.",
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	if watchPrintUnit {
		fmt.Print(systemd.DaemonTemplate())
		return nil
	}

	if err := integrity.Verify(); err != nil {
		return err
	}
	if warn := systemd.CheckUnitFileIntegrity(); warn != "" {
		fmt.Fprintf(os.Stderr, "tracewalld: WARNING %s\n", warn)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	mode, err := cfg.GateMode()
	if err != nil {
		return err
	}

	journal, err := attest.OpenJournal(cfg.JournalPath)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer journal.Close()

	st, err := store.Open(cfg.StorePath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	d, err := daemon.New(daemon.Config{
		Dirs: daemon.DirConfig{
			Inbox:  cfg.Daemon.InboxDir,
			Outbox: cfg.Daemon.OutboxDir,
		},
		Mode:         mode,
		Limits:       cfg.VerifyLimits(),
		Journal:      journal,
		Store:        st,
		Workers:      cfg.Daemon.Workers,
		Debounce:     time.Duration(cfg.Daemon.DebounceMS) * time.Millisecond,
		PollMode:     watchPoll,
		PollInterval: watchPollInterval,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nShutting down daemon...")
		cancel()
	}()

	fmt.Fprintf(os.Stderr, "tracewalld watching %s (mode %s)\n", cfg.Daemon.InboxDir, mode)
	return d.Run(ctx)
}
