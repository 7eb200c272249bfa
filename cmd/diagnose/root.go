package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/normsearch/normsearch/internal/corpus"
	"github.com/normsearch/normsearch/internal/searcher/executor"
	"github.com/normsearch/normsearch/pkg/config"
	"github.com/normsearch/normsearch/pkg/logger"
)

// options are the flags shared by every subcommand.
type options struct {
	configPath  string
	corpusPath  string
	granularity string
	order       string
	threshold   float64
	maxResults  int
	noFallback  bool
	outputJSON  bool
	noColor     bool
	verbose     bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "diagnose",
		Short: "Inspect the normsearch reference corpus and retrieval pipeline",
		Long: `diagnose loads the reference corpus exactly as the search service does and
lets an operator run queries against it or verify that it loads.

Retrieval flags override the values from the config file for this run only.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "config file path (default: built-in defaults plus NS_* env vars)")
	flags.StringVar(&opts.corpusPath, "corpus", "", "override corpus.path")
	flags.StringVar(&opts.granularity, "granularity", "", "override retrieval.granularity (word|char)")
	flags.StringVar(&opts.order, "order", "", "override retrieval.order (vector_first|exact_first)")
	flags.Float64Var(&opts.threshold, "threshold", 0, "override retrieval.threshold")
	flags.IntVar(&opts.maxResults, "max-results", 0, "override retrieval.maxResults")
	flags.BoolVar(&opts.noFallback, "no-fallback", false, "disable the manifestation substring fallback")
	flags.BoolVar(&opts.outputJSON, "json", false, "output in JSON format")
	flags.BoolVar(&opts.noColor, "no-color", false, "disable colored output")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log loader and query details to stderr")

	root.AddCommand(newQueryCmd(opts))
	root.AddCommand(newCheckCmd(opts))
	return root
}

// loadConfig reads the config file and applies flag overrides that were set
// explicitly on the command line.
func (o *options) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("corpus") {
		cfg.Corpus.Path = o.corpusPath
	}
	if flags.Changed("granularity") {
		cfg.Retrieval.Granularity = o.granularity
	}
	if flags.Changed("order") {
		cfg.Retrieval.Order = o.order
	}
	if flags.Changed("threshold") {
		cfg.Retrieval.Threshold = o.threshold
	}
	if flags.Changed("max-results") {
		cfg.Retrieval.MaxResults = o.maxResults
	}
	if o.noFallback {
		cfg.Retrieval.FallbackEnabled = false
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openExecutor installs the CLI logger and builds the retrieval pipeline.
func (o *options) openExecutor(ctx context.Context, cmd *cobra.Command) (*executor.Executor, *config.Config, error) {
	cfg, err := o.loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}

	var logOut io.Writer = io.Discard
	level := "warn"
	if o.verbose {
		logOut = cmd.ErrOrStderr()
		level = "debug"
	}
	slog.SetDefault(logger.New(logOut, level, "text"))

	src, closer, err := corpus.OpenSource(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	defer closer.Close()

	exec, err := executor.Open(ctx, src, cfg.Corpus, cfg.Retrieval)
	if err != nil {
		return nil, nil, err
	}
	return exec, cfg, nil
}
