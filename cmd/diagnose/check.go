package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newCheckCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Load the corpus, fit the vector space and report its shape",
		Long: `check performs the same startup the search service does. It exits with
status 2 when the reference data cannot back a vector space.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()

			exec, _, err := opts.openExecutor(ctx, cmd)
			if err != nil {
				if !opts.outputJSON {
					color.NoColor = color.NoColor || opts.noColor
					color.New(color.FgRed).Fprintln(cmd.ErrOrStderr(), "✗ corpus check failed")
				}
				return err
			}
			stats := exec.Stats()

			out := cmd.OutOrStdout()
			if opts.outputJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(stats)
			}

			color.NoColor = color.NoColor || opts.noColor
			color.New(color.FgGreen).Fprintf(out, "✓ corpus loaded from %s\n", stats.Source)
			fmt.Fprintf(out, "rows:        %d\n", stats.Rows)
			fmt.Fprintf(out, "vocabulary:  %d terms (%s)\n", stats.VocabularySize, stats.Granularity)
			fmt.Fprintf(out, "threshold:   %g\n", stats.Threshold)
			fmt.Fprintf(out, "order:       %s, fallback %t\n", stats.Order, stats.Fallback)
			if n := len(stats.DegradedRows); n > 0 {
				color.New(color.FgYellow).Fprintf(out, "! %d rows have empty searchable text: %v\n", n, stats.DegradedRows)
			}
			return nil
		},
	}
}
