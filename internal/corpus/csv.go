package corpus

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

const utf8BOM = "\ufeff"

// CSVSource reads the reference table from a UTF-8 CSV file whose first
// record is the header.
type CSVSource struct {
	path   string
	reader io.Reader
}

func NewCSVFile(path string) *CSVSource {
	return &CSVSource{path: path}
}

// NewCSVReader reads from r instead of a file; name is only used in logs
// and errors.
func NewCSVReader(name string, r io.Reader) *CSVSource {
	return &CSVSource{path: name, reader: r}
}

func (s *CSVSource) Name() string {
	return "csv:" + s.path
}

func (s *CSVSource) ReadTable(ctx context.Context) (*Table, error) {
	r := s.reader
	if r == nil {
		f, err := os.Open(s.path)
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", s.path, err)
		}
		defer f.Close()
		r = f
	}

	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return &Table{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading header of %s: %w", s.path, err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}

	table := &Table{Columns: header}
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", s.path, err)
		}
		table.Rows = append(table.Rows, record)
	}
	return table, nil
}
