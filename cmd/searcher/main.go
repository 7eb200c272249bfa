package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/normsearch/normsearch/internal/corpus"
	"github.com/normsearch/normsearch/internal/searcher/cache"
	"github.com/normsearch/normsearch/internal/searcher/executor"
	"github.com/normsearch/normsearch/internal/searcher/handler"
	"github.com/normsearch/normsearch/pkg/config"
	apperrors "github.com/normsearch/normsearch/pkg/errors"
	"github.com/normsearch/normsearch/pkg/health"
	"github.com/normsearch/normsearch/pkg/logger"
	"github.com/normsearch/normsearch/pkg/metrics"
	"github.com/normsearch/normsearch/pkg/middleware"
	pkgredis "github.com/normsearch/normsearch/pkg/redis"
)

// Exit codes.
const (
	exitConfig   = 1
	exitDataLoad = 2
	exitServe    = 3
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(exitConfig)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting search service",
		"port", cfg.Server.Port,
		"source", cfg.Corpus.Source,
		"granularity", cfg.Retrieval.Granularity,
		"threshold", cfg.Retrieval.Threshold,
		"order", cfg.Retrieval.Order,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	exec, redisClient, err := bootstrap(ctx, cfg)
	if err != nil {
		slog.Error("startup failed", "error", err)
		if apperrors.IsDataLoad(err) {
			os.Exit(exitDataLoad)
		}
		os.Exit(exitConfig)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}
	stats := exec.Stats()
	slog.Info("retrieval core ready",
		"rows", stats.Rows,
		"degraded_rows", len(stats.DegradedRows),
		"vocabulary", stats.VocabularySize,
	)

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New(nil)
		m.SetCorpus(stats.Rows, len(stats.DegradedRows), stats.VocabularySize, stats.Granularity)
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port)
		defer shutdownMetrics(context.Background())
	}

	var queryCache *cache.QueryCache
	checker := health.NewChecker()
	checker.Register("corpus", health.CorpusCheck(func() (int, int) {
		s := exec.Stats()
		return s.Rows, len(s.DegradedRows)
	}))
	if redisClient != nil {
		queryCache = cache.New(redisClient, cfg.Redis.CacheTTL, exec.Fingerprint())
		checker.Register("redis", health.PingCheck(redisClient))
		slog.Info("search cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
	}

	h := handler.New(exec, queryCache, m)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("GET /api/v1/corpus/stats", h.CorpusStats)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	chain = middleware.Timeout(cfg.Server.WriteTimeout)(chain)
	if m != nil {
		chain = middleware.Metrics(m)(chain)
	}
	chain = middleware.RequestID(chain)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("search service listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(exitServe)
	}
	slog.Info("search service stopped")
}

// bootstrap loads the corpus and fits the vector space while the optional
// Redis connection is established. A Redis failure only disables caching.
func bootstrap(ctx context.Context, cfg *config.Config) (*executor.Executor, *pkgredis.Client, error) {
	var (
		exec        *executor.Executor
		redisClient *pkgredis.Client
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		src, closer, err := corpus.OpenSource(gctx, cfg)
		if err != nil {
			return err
		}
		defer closer.Close()
		exec, err = executor.Open(gctx, src, cfg.Corpus, cfg.Retrieval)
		return err
	})
	if cfg.Redis.Enabled {
		g.Go(func() error {
			client, err := pkgredis.NewClient(gctx, cfg.Redis)
			if err != nil {
				slog.Warn("redis unavailable, search caching disabled", "error", err)
				return nil
			}
			redisClient = client
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if redisClient != nil {
			redisClient.Close()
		}
		return nil, nil, err
	}
	return exec, redisClient, nil
}
