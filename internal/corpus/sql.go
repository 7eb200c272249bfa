package corpus

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	"github.com/normsearch/normsearch/pkg/sqlite"
)

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// SQLSource reads the reference table from a database table. It works with
// any database/sql driver; normsearch wires lib/pq and modernc sqlite.
type SQLSource struct {
	db      *sql.DB
	driver  string
	table   string
	orderBy string
}

// NewSQLSource reads every column of table. Rows are returned ordered by
// orderBy when set and present in the table. Otherwise SQLite tables are read
// in rowid (insertion) order and other databases in their natural scan order.
func NewSQLSource(db *sql.DB, driver, table, orderBy string) (*SQLSource, error) {
	if !identPattern.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	if orderBy != "" && !identPattern.MatchString(orderBy) {
		return nil, fmt.Errorf("invalid order column %q", orderBy)
	}
	return &SQLSource{db: db, driver: driver, table: table, orderBy: orderBy}, nil
}

func (s *SQLSource) Name() string {
	return s.driver + ":" + s.table
}

func (s *SQLSource) ReadTable(ctx context.Context) (*Table, error) {
	order, err := s.orderColumn(ctx)
	if err != nil {
		return nil, err
	}
	query := "SELECT * FROM " + s.table
	if order != "" {
		query += " ORDER BY " + order
	}
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", s.table, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading columns of %s: %w", s.table, err)
	}

	table := &Table{Columns: columns}
	values := make([]sql.NullString, len(columns))
	dest := make([]any, len(columns))
	for i := range values {
		dest[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scanning %s: %w", s.table, err)
		}
		record := make([]string, len(columns))
		for i, v := range values {
			if v.Valid {
				record[i] = v.String
			}
		}
		table.Rows = append(table.Rows, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s: %w", s.table, err)
	}
	return table, nil
}

func (s *SQLSource) orderColumn(ctx context.Context) (string, error) {
	if s.orderBy != "" {
		rows, err := s.db.QueryContext(ctx, "SELECT * FROM "+s.table+" WHERE 1 = 0")
		if err != nil {
			return "", fmt.Errorf("querying %s: %w", s.table, err)
		}
		columns, err := rows.Columns()
		rows.Close()
		if err != nil {
			return "", fmt.Errorf("reading columns of %s: %w", s.table, err)
		}
		for _, c := range columns {
			if strings.EqualFold(c, s.orderBy) {
				return s.orderBy, nil
			}
		}
	}
	if s.driver == sqlite.DriverName {
		return "rowid", nil
	}
	return "", nil
}
