package corpus

import (
	"context"
	"fmt"
	"io"

	"github.com/normsearch/normsearch/pkg/config"
	apperrors "github.com/normsearch/normsearch/pkg/errors"
	"github.com/normsearch/normsearch/pkg/postgres"
	"github.com/normsearch/normsearch/pkg/sqlite"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// OpenSource builds the Source named by cfg.Corpus. The returned closer
// releases any database handle and must be called once loading is done.
func OpenSource(ctx context.Context, cfg *config.Config) (Source, io.Closer, error) {
	switch cfg.Corpus.Source {
	case config.SourceCSV:
		return NewCSVFile(cfg.Corpus.Path), nopCloser{}, nil
	case config.SourcePostgres:
		client, err := postgres.New(ctx, cfg.Postgres)
		if err != nil {
			return nil, nil, apperrors.DataLoad("connecting to reference database: %v", err)
		}
		src, err := NewSQLSource(client.DB, postgres.DriverName, cfg.Corpus.Table, cfg.Corpus.OrderBy)
		if err != nil {
			client.Close()
			return nil, nil, err
		}
		return src, client, nil
	case config.SourceSQLite:
		path := cfg.SQLite.Path
		if path == "" {
			path = cfg.Corpus.Path
		}
		db, err := sqlite.Open(ctx, path)
		if err != nil {
			return nil, nil, apperrors.DataLoad("opening reference database %s: %v", path, err)
		}
		src, err := NewSQLSource(db, sqlite.DriverName, cfg.Corpus.Table, cfg.Corpus.OrderBy)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		return src, db, nil
	}
	return nil, nil, fmt.Errorf("unknown corpus source %q", cfg.Corpus.Source)
}
