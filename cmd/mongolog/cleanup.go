package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/lixenwraith/mongolog"
	"github.com/spf13/cobra"
)

func newCleanupCmd(opts *rootOptions) *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete log files past the retention limits",
		Long: `Delete managed log files older than retention_days and, when
max_log_file_count is set, all but the newest max_log_file_count files.
With --watch the cleanup repeats every cleanup_interval_mins until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			manager, err := mongolog.NewManager(cfg, mongolog.WithOnError(func(err error, path string) {
				fmt.Fprintf(cmd.ErrOrStderr(), "failed to delete %s: %v\n", path, err)
			}))
			if err != nil {
				return err
			}

			if !watch {
				n := manager.CleanupOldLogfiles()
				fmt.Fprintf(out, "deleted %d log files from %s\n", n, cfg.Directory)
				return nil
			}

			if cfg.CleanupIntervalMins <= 0 {
				return fmt.Errorf("--watch needs cleanup_interval_mins > 0")
			}
			interval := time.Duration(cfg.CleanupIntervalMins * float64(time.Minute))
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			fmt.Fprintf(out, "cleaning %s every %s\n", cfg.Directory, interval)
			if err := manager.RunCleanup(ctx, interval); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "keep running and clean up periodically")
	return cmd
}
