package corpus

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/normsearch/normsearch/internal/indexer/normalizer"
	"github.com/normsearch/normsearch/pkg/config"
	apperrors "github.com/normsearch/normsearch/pkg/errors"
)

// Corpus is the ordered, immutable reference table. Row order matches the
// source and is the tie-break order for ranking.
type Corpus struct {
	source     string
	entries    []ReferenceEntry
	searchable []string
	degraded   []int
}

// LoadOptions controls how searchable text is derived from each entry.
type LoadOptions struct {
	// SearchFields is config.FieldsExcerpt or config.FieldsManifestationExcerpt.
	SearchFields string
	// Normalize defaults to normalizer.Normalize.
	Normalize normalizer.Func
	Logger    *slog.Logger
}

// Load reads src once and derives the searchable text of every row. Any
// failure is a DataLoadError (apperrors.ErrDataLoad). Rows whose searchable
// text normalizes to empty are tolerated and reported by DegradedRows unless
// every row is empty.
func Load(ctx context.Context, src Source, opts LoadOptions) (*Corpus, error) {
	if opts.Normalize == nil {
		opts.Normalize = normalizer.Normalize
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default().With("component", "corpus-loader")
	}
	fields, err := searchFields(opts.SearchFields)
	if err != nil {
		return nil, err
	}

	table, err := src.ReadTable(ctx)
	if err != nil {
		return nil, apperrors.DataLoad("source %s unreadable: %v", src.Name(), err)
	}
	positions, err := mapColumns(table.Columns)
	if err != nil {
		return nil, apperrors.DataLoad("source %s: %v", src.Name(), err)
	}
	if len(table.Rows) == 0 {
		return nil, apperrors.DataLoad("source %s has no rows", src.Name())
	}

	c := &Corpus{
		source:     src.Name(),
		entries:    make([]ReferenceEntry, 0, len(table.Rows)),
		searchable: make([]string, 0, len(table.Rows)),
	}
	for i, record := range table.Rows {
		var entry ReferenceEntry
		for field, pos := range positions {
			if pos < len(record) {
				entry.set(field, strings.TrimSpace(record[pos]))
			}
		}
		parts := make([]string, 0, len(fields))
		for _, f := range fields {
			parts = append(parts, entry.field(f))
		}
		text := opts.Normalize(strings.Join(parts, " "))
		if text == "" {
			c.degraded = append(c.degraded, i)
		}
		c.entries = append(c.entries, entry)
		c.searchable = append(c.searchable, text)
	}

	if len(c.degraded) == len(c.entries) {
		return nil, apperrors.DataLoad(
			"source %s: all %d rows are empty after normalization of %s",
			src.Name(), len(c.entries), strings.Join(fields, "+"),
		)
	}
	if len(c.degraded) > 0 {
		opts.Logger.Warn("reference rows with empty searchable text",
			"source", src.Name(),
			"rows", c.degraded,
			"count", len(c.degraded),
		)
	}
	opts.Logger.Info("reference corpus loaded",
		"source", src.Name(),
		"rows", len(c.entries),
		"degraded", len(c.degraded),
		"fields", fields,
	)
	return c, nil
}

func (c *Corpus) Source() string {
	return c.source
}

func (c *Corpus) Len() int {
	return len(c.entries)
}

// Entry returns a copy of row i.
func (c *Corpus) Entry(i int) ReferenceEntry {
	return c.entries[i]
}

// SearchableText returns the normalized text indexed for row i.
func (c *Corpus) SearchableText(i int) string {
	return c.searchable[i]
}

// SearchableTexts returns a copy of all searchable texts in row order.
func (c *Corpus) SearchableTexts() []string {
	out := make([]string, len(c.searchable))
	copy(out, c.searchable)
	return out
}

// DegradedRows lists the zero-based rows whose searchable text is empty.
func (c *Corpus) DegradedRows() []int {
	out := make([]int, len(c.degraded))
	copy(out, c.degraded)
	return out
}

func searchFields(selection string) ([]string, error) {
	switch selection {
	case "", config.FieldsExcerpt:
		return []string{FieldExcerpt}, nil
	case config.FieldsManifestationExcerpt:
		return []string{FieldManifestation, FieldExcerpt}, nil
	}
	return nil, apperrors.InvalidInput("unknown search fields %q", selection)
}

func mapColumns(columns []string) (map[string]int, error) {
	positions := make(map[string]int, len(RequiredFields))
	for i, col := range columns {
		key := strings.ToLower(strings.TrimSpace(col))
		field, ok := columnAliases[key]
		if !ok {
			continue
		}
		if _, dup := positions[field]; dup {
			return nil, fmt.Errorf("column %q given twice", field)
		}
		positions[field] = i
	}
	var missing []string
	for _, f := range RequiredFields {
		if _, ok := positions[f]; !ok {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}
	return positions, nil
}
