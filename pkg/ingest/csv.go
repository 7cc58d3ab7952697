// Package ingest reads uploaded CSV files into in-memory tables.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ekaya-inc/ekaya-insights/pkg/models"
)

// DefaultMaxRows is the row cap applied when the caller passes a non-positive limit.
const DefaultMaxRows = 50000

const utf8BOM = "\ufeff"

// ParseError reports an input stream that could not be read as CSV.
type ParseError struct {
	// Line is the 1-based line of the failing record, or 0 if unknown.
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("failed to parse CSV at line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("failed to parse CSV: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ReadTable parses r as CSV using the first line as header.
//
// Reading stops once maxRows data rows have been read; the table is then
// marked Truncated and no error is returned. An empty or header-only input
// yields a table with no rows. Callers decide whether that is an error.
func ReadTable(r io.Reader, maxRows int) (*models.Table, error) {
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}

	reader := csv.NewReader(r)
	reader.ReuseRecord = true
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return &models.Table{}, nil
	}
	if err != nil {
		return nil, newParseError(err)
	}

	keys, columns := headerKeys(header)
	table := &models.Table{Columns: columns}

	for {
		if len(table.Rows) >= maxRows {
			table.Truncated = true
			break
		}

		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, newParseError(err)
		}

		row := make(models.Row, len(columns))
		for i, key := range keys {
			if i < len(record) {
				row[key] = record[i]
			} else {
				row[key] = ""
			}
		}
		table.Rows = append(table.Rows, row)
	}

	return table, nil
}

// headerKeys returns the key for each header cell along with the de-duplicated
// column list in first-seen order.
func headerKeys(header []string) ([]string, []string) {
	keys := make([]string, len(header))
	columns := make([]string, 0, len(header))
	seen := make(map[string]bool, len(header))

	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, utf8BOM)
		}
		name = strings.TrimSpace(name)
		keys[i] = name
		if !seen[name] {
			seen[name] = true
			columns = append(columns, name)
		}
	}
	return keys, columns
}

func newParseError(err error) *ParseError {
	var csvErr *csv.ParseError
	if errors.As(err, &csvErr) {
		return &ParseError{Line: csvErr.Line, Err: csvErr.Err}
	}
	return &ParseError{Err: err}
}
