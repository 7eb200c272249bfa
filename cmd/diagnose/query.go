package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/normsearch/normsearch/internal/searcher/executor"
)

func newQueryCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "query <text>...",
		Short: "Run one query and print the matching reference entries",
		Example: `  diagnose query "fissura na viga"
  diagnose query --granularity char --threshold 0.05 fissurada`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()

			exec, _, err := opts.openExecutor(ctx, cmd)
			if err != nil {
				return err
			}
			result, err := exec.Execute(ctx, strings.Join(args, " "))
			if err != nil {
				return fmt.Errorf("query: %w", err)
			}

			out := cmd.OutOrStdout()
			if opts.outputJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}
			color.NoColor = color.NoColor || opts.noColor
			printResult(out, result)
			return nil
		},
	}
}

func printResult(w io.Writer, result *executor.SearchResult) {
	heading := color.New(color.Bold)
	dim := color.New(color.Faint)

	heading.Fprintf(w, "query:      %q\n", result.Query)
	fmt.Fprintf(w, "normalized: %q\n", result.Normalized)
	fmt.Fprintf(w, "path:       %s\n", pathColor(result.Path).Sprint(result.Path))
	fmt.Fprintf(w, "hits:       %d (showing %d)\n", result.TotalHits, len(result.Results))

	for i, r := range result.Results {
		fmt.Fprintln(w)
		heading.Fprintf(w, "%d. %s", i+1, r.Manifestation)
		dim.Fprintf(w, "  [row %d, score %.4f]\n", r.Row, r.Score)
		fmt.Fprintf(w, "   %s, section %s\n", r.Standard, r.Section)
		fmt.Fprintf(w, "   %s\n", r.Excerpt)
		if r.Recommendations != "" {
			fmt.Fprintf(w, "   recommendations: %s\n", r.Recommendations)
		}
		if r.RelatedQueries != "" {
			dim.Fprintf(w, "   related: %s\n", r.RelatedQueries)
		}
	}
}

func pathColor(p executor.Path) *color.Color {
	switch p {
	case executor.PathVector:
		return color.New(color.FgGreen)
	case executor.PathFallback, executor.PathExact:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgRed)
	}
}
