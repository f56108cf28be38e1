package main

import (
	"errors"
	"fmt"

	"github.com/lixenwraith/mongolog"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/bson"
)

// emitOptions describe the single entry written by emit
type emitOptions struct {
	severity  string
	component string
	id        int64
	logCtx    string
	message   string
	attr      string
}

func newEmitCmd(opts *rootOptions) *cobra.Command {
	e := &emitOptions{}

	cmd := &cobra.Command{
		Use:   "emit",
		Short: "Write one entry to a new log file",
		Long: `Create a new log file in the configured directory, write one entry to it
and print the file path. --attr takes an Extended JSON document.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}

			entry := mongolog.Entry{
				Severity:  mongolog.Severity(e.severity),
				Component: e.component,
				ID:        mongolog.NewLogID(e.id),
				Context:   e.logCtx,
				Message:   e.message,
			}
			if e.attr != "" {
				var attr bson.D
				if err := bson.UnmarshalExtJSON([]byte(e.attr), false, &attr); err != nil {
					return fmt.Errorf("invalid --attr: %w", err)
				}
				entry.Attr = attr
			}

			var createErr error
			manager, err := mongolog.NewManager(cfg, mongolog.WithOnWarn(func(err error, path string) {
				createErr = err
			}))
			if err != nil {
				return err
			}

			w := manager.CreateLogWriter()
			if createErr != nil {
				_ = w.Close()
				return createErr
			}

			var writeErrs []error
			w.OnError(func(err error) {
				writeErrs = append(writeErrs, err)
			})
			w.Write(entry)
			if err := w.Close(); err != nil {
				writeErrs = append(writeErrs, err)
			}
			if len(writeErrs) > 0 {
				return errors.Join(writeErrs...)
			}

			fmt.Fprintln(cmd.OutOrStdout(), w.LogFilePath())
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&e.severity, "severity", "s", string(mongolog.SeverityInfo), "severity code: F, E, W, I or D1 to D5")
	f.StringVar(&e.component, "component", "cli", "component name")
	f.Int64Var(&e.id, "id", 0, "numeric log id")
	f.StringVar(&e.logCtx, "ctx", "", "context the entry was logged in")
	f.StringVarP(&e.message, "message", "m", "", "log message")
	f.StringVar(&e.attr, "attr", "", "attribute document as Extended JSON")
	return cmd
}
