package daemon

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/tracewall/tracewall/internal/attest"
	"github.com/tracewall/tracewall/internal/gate"
	"github.com/tracewall/tracewall/internal/provenance"
	"github.com/tracewall/tracewall/internal/store"
)

// Config holds full daemon configuration.
type Config struct {
	Dirs         DirConfig
	Mode         gate.Mode
	Limits       provenance.Limits
	Journal      *attest.Journal
	Store        *store.Store
	Workers      int
	Debounce     time.Duration
	PollMode     bool
	PollInterval time.Duration
}

// Daemon watches the inbox directory and gates verification requests.
type Daemon struct {
	cfg       Config
	processor *Processor
}

// New creates a daemon with validated configuration.
func New(cfg Config) (*Daemon, error) {
	if cfg.Dirs.Inbox == "" || cfg.Dirs.Outbox == "" {
		return nil, fmt.Errorf("inbox and outbox directories are required")
	}
	if _, err := gate.ParseMode(string(cfg.Mode)); err != nil {
		return nil, err
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = pollDefault
	}

	processor := NewProcessor(ProcessorConfig{
		Dirs:    cfg.Dirs,
		Mode:    cfg.Mode,
		Limits:  cfg.Limits,
		Journal: cfg.Journal,
		Store:   cfg.Store,
	})

	return &Daemon{cfg: cfg, processor: processor}, nil
}

// Run starts the daemon. Blocks until ctx is cancelled. On startup it
// processes any existing inbox files and fails orphaned processing files.
func (d *Daemon) Run(ctx context.Context) error {
	if err := EnsureDirs(d.cfg.Dirs); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	// PID file lock prevents duplicate instances racing on the same spool.
	pidPath := filepath.Join(filepath.Dir(d.cfg.Dirs.Inbox), "tracewalld.pid")
	if err := acquirePIDLock(pidPath); err != nil {
		return fmt.Errorf("acquire PID lock: %w", err)
	}
	defer func() { _ = os.Remove(pidPath) }()

	if err := d.recoverOrphans(); err != nil {
		return fmt.Errorf("recover orphans: %w", err)
	}

	handler := func(path string) {
		if err := d.processor.Process(ctx, path); err != nil {
			fmt.Fprintf(os.Stderr, "tracewalld: process %s: %v\n", filepath.Base(path), err)
		}
	}

	if err := ScanExisting(d.cfg.Dirs.Inbox, handler); err != nil {
		return fmt.Errorf("scan existing: %w", err)
	}

	if d.cfg.PollMode {
		pw := NewPollWatcher(d.cfg.Dirs.Inbox, handler, d.cfg.PollInterval)
		return pw.Run(ctx)
	}

	w := NewInboxWatcher(d.cfg.Dirs.Inbox, handler)
	w.SetWorkers(d.cfg.Workers)
	w.SetDebounce(d.cfg.Debounce)
	return w.Run(ctx)
}

// recoverOrphans fails files left in processing/. These are requests that
// were in flight when the daemon stopped.
func (d *Daemon) recoverOrphans() error {
	procDir := d.cfg.Dirs.ProcessingDir()
	entries, err := os.ReadDir(procDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, e := range entries {
		if e.IsDir() || !isJobFile(e.Name()) {
			continue
		}
		id := e.Name()[:len(e.Name())-5] // strip .json
		result := &Result{
			ID:          id,
			Status:      ResultFailed,
			Error:       "interrupted: request was processing when daemon stopped",
			CompletedAt: time.Now().UTC(),
		}
		if err := d.processor.writeResult(result); err != nil {
			fmt.Fprintf(os.Stderr, "tracewalld: recover orphan %s: %v\n", id, err)
		}
		_ = os.Remove(filepath.Join(procDir, e.Name()))
	}
	return nil
}

// acquirePIDLock writes the current PID to the file and checks for stale locks.
func acquirePIDLock(path string) error {
	if data, err := os.ReadFile(path); err == nil {
		pid, err := strconv.Atoi(string(data))
		if err == nil {
			if process, err := os.FindProcess(pid); err == nil {
				if err := process.Signal(syscall.Signal(0)); err == nil {
					return fmt.Errorf("another daemon is running (PID %d)", pid)
				}
			}
		}
		// Stale PID file, remove it.
		_ = os.Remove(path)
	}

	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0600)
}
