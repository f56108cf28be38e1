package main

import (
	"fmt"

	"github.com/lixenwraith/mongolog"
	"github.com/lixenwraith/mongolog/sanitizer"
	"github.com/spf13/cobra"
)

func newCatCmd() *cobra.Command {
	var (
		component string
		severity  string
		raw       bool
	)

	cmd := &cobra.Command{
		Use:   "cat FILE...",
		Short: "Print log files in readable form",
		Long: `Print the records of one or more log files, one line per record.
Compressed files are decompressed, including files that are still being written.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			san := sanitizer.New().Policy(sanitizer.PolicyTerminal)
			if raw {
				san = sanitizer.New()
			}
			for _, path := range args {
				records, err := mongolog.ReadLogFile(path)
				if err != nil {
					return err
				}
				for _, rec := range records {
					if component != "" && rec.Component != component {
						continue
					}
					if severity != "" && string(rec.Severity) != severity {
						continue
					}
					fmt.Fprintln(out, san.Sanitize(rec.String()))
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&component, "component", "", "only print records of this component")
	cmd.Flags().StringVarP(&severity, "severity", "s", "", "only print records with this severity code")
	cmd.Flags().BoolVar(&raw, "raw", false, "print control characters unescaped")
	return cmd
}
