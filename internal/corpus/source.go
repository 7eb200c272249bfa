package corpus

import "context"

// Table is the raw tabular form of a reference source: one header row and
// the data rows in source order.
type Table struct {
	Columns []string
	Rows    [][]string
}

// Source yields the reference table. Implementations must preserve the
// source's row order.
type Source interface {
	Name() string
	ReadTable(ctx context.Context) (*Table, error)
}
