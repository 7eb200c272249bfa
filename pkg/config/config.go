// Package config loads and validates normsearch configuration from YAML files
// with environment-variable overrides. It provides typed structs for the
// server, the reference corpus source, the retrieval options and the
// optional backing services (Postgres, SQLite, Redis).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	apperrors "github.com/normsearch/normsearch/pkg/errors"
)

// Corpus source kinds.
const (
	SourceCSV      = "csv"
	SourcePostgres = "postgres"
	SourceSQLite   = "sqlite"
)

// Searchable field selections.
const (
	FieldsExcerpt              = "excerpt"
	FieldsManifestationExcerpt = "manifestation_excerpt"
)

// Vectorization granularities.
const (
	GranularityWord = "word"
	GranularityChar = "char"
)

// Pipeline orderings.
const (
	OrderVectorFirst = "vector_first"
	OrderExactFirst  = "exact_first"
)

// Config is the top-level application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Corpus    CorpusConfig    `yaml:"corpus"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Postgres  PostgresConfig  `yaml:"postgres"`
	SQLite    SQLiteConfig    `yaml:"sqlite"`
	Redis     RedisConfig     `yaml:"redis"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// CorpusConfig selects where the reference table is read from and which of
// its fields feed the vector space.
type CorpusConfig struct {
	Source       string `yaml:"source"`
	Path         string `yaml:"path"`
	Table        string `yaml:"table"`
	OrderBy      string `yaml:"orderBy"`
	SearchFields string `yaml:"searchFields"`
}

// RetrievalConfig is the single option surface of the retrieval core.
type RetrievalConfig struct {
	Granularity     string  `yaml:"granularity"`
	Threshold       float64 `yaml:"threshold"`
	MinFragment     int     `yaml:"minFragment"`
	MaxFragment     int     `yaml:"maxFragment"`
	FallbackEnabled bool    `yaml:"fallbackEnabled"`
	Order           string  `yaml:"order"`
	MaxResults      int     `yaml:"maxResults"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
	ConnectAttempts int           `yaml:"connectAttempts"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// SQLiteConfig holds the SQLite database used when corpus.source is sqlite.
// An empty Path falls back to corpus.path.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// RedisConfig holds Redis connection and result-cache parameters.
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"poolSize"`
	CacheTTL time.Duration `yaml:"cacheTTL"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided), applies environment-variable
// overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the built-in configuration without reading files or the
// environment.
func Default() *Config {
	return defaultConfig()
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Corpus: CorpusConfig{
			Source:       SourceCSV,
			Path:         "data/base_normas_com_recomendacoes_consultas.csv",
			Table:        "reference_entries",
			OrderBy:      "id",
			SearchFields: FieldsExcerpt,
		},
		Retrieval: RetrievalConfig{
			Granularity:     GranularityWord,
			Threshold:       0.1,
			MinFragment:     3,
			MaxFragment:     5,
			FallbackEnabled: true,
			Order:           OrderVectorFirst,
			MaxResults:      0,
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "normsearch",
			User:            "normsearch",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    5,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
			ConnectAttempts: 5,
		},
		Redis: RedisConfig{
			Enabled:  false,
			Addr:     "localhost:6379",
			PoolSize: 10,
			CacheTTL: 10 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
		},
	}
}

// Validate checks enumerated options and numeric ranges.
func (c *Config) Validate() error {
	switch c.Corpus.Source {
	case SourceCSV, SourcePostgres, SourceSQLite:
	default:
		return apperrors.InvalidInput("corpus.source %q must be one of csv, postgres, sqlite", c.Corpus.Source)
	}
	switch c.Corpus.SearchFields {
	case FieldsExcerpt, FieldsManifestationExcerpt:
	default:
		return apperrors.InvalidInput("corpus.searchFields %q must be excerpt or manifestation_excerpt", c.Corpus.SearchFields)
	}
	r := c.Retrieval
	switch r.Granularity {
	case GranularityWord, GranularityChar:
	default:
		return apperrors.InvalidInput("retrieval.granularity %q must be word or char", r.Granularity)
	}
	switch r.Order {
	case OrderVectorFirst, OrderExactFirst:
	default:
		return apperrors.InvalidInput("retrieval.order %q must be vector_first or exact_first", r.Order)
	}
	if r.Threshold < 0 || r.Threshold >= 1 {
		return apperrors.InvalidInput("retrieval.threshold %v must be in [0, 1)", r.Threshold)
	}
	if r.MinFragment < 1 || r.MaxFragment < r.MinFragment {
		return apperrors.InvalidInput("retrieval fragment range [%d, %d] is invalid", r.MinFragment, r.MaxFragment)
	}
	if r.MaxResults < 0 {
		return apperrors.InvalidInput("retrieval.maxResults must not be negative")
	}
	return nil
}

// applyEnvOverrides reads NS_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("NS_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("NS_CORPUS_SOURCE"); v != "" {
		cfg.Corpus.Source = strings.ToLower(v)
	}
	if v := os.Getenv("NS_CORPUS_PATH"); v != "" {
		cfg.Corpus.Path = v
	}
	if v := os.Getenv("NS_CORPUS_TABLE"); v != "" {
		cfg.Corpus.Table = v
	}
	if v := os.Getenv("NS_RETRIEVAL_GRANULARITY"); v != "" {
		cfg.Retrieval.Granularity = strings.ToLower(v)
	}
	if v := os.Getenv("NS_RETRIEVAL_THRESHOLD"); v != "" {
		if th, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Retrieval.Threshold = th
		}
	}
	if v := os.Getenv("NS_RETRIEVAL_ORDER"); v != "" {
		cfg.Retrieval.Order = strings.ToLower(v)
	}
	if v := os.Getenv("NS_RETRIEVAL_FALLBACK"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			cfg.Retrieval.FallbackEnabled = enabled
		}
	}
	if v := os.Getenv("NS_RETRIEVAL_MAX_RESULTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Retrieval.MaxResults = n
		}
	}
	if v := os.Getenv("NS_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("NS_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.Port = port
		}
	}
	if v := os.Getenv("NS_POSTGRES_DATABASE"); v != "" {
		cfg.Postgres.Database = v
	}
	if v := os.Getenv("NS_POSTGRES_USER"); v != "" {
		cfg.Postgres.User = v
	}
	if v := os.Getenv("NS_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("NS_POSTGRES_SSLMODE"); v != "" {
		cfg.Postgres.SSLMode = v
	}
	if v := os.Getenv("NS_SQLITE_PATH"); v != "" {
		cfg.SQLite.Path = v
	}
	if v := os.Getenv("NS_REDIS_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			cfg.Redis.Enabled = enabled
		}
	}
	if v := os.Getenv("NS_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("NS_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("NS_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("NS_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}
