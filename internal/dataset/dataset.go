// Package dataset reads the tab-delimited input datasets and writes the
// run's report files. It is deliberately thin: column layout and rendering
// only, no reconciliation logic.
package dataset

import (
	"encoding/csv"
	"os"

	"github.com/MarkBruyneel/WorldCat/pkg/errors"
	"github.com/MarkBruyneel/WorldCat/pkg/reconcile"
)

// Table is a loaded tabular dataset.
type Table struct {
	Columns []string
	Rows    []reconcile.Row
}

// ReadTSV loads a tab-delimited file with a header row.
func ReadTSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}
	defer f.Close() //nolint:errcheck // read-only

	r := csv.NewReader(f)
	r.Comma = '\t'
	r.LazyQuotes = true
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, errors.WrapParse("tsv", path, err)
	}
	if len(records) == 0 {
		return nil, &errors.ParseError{Format: "tsv", File: path, Message: "empty file"}
	}

	t := &Table{Columns: records[0]}
	for _, rec := range records[1:] {
		row := make(reconcile.Row, len(t.Columns))
		for i, col := range t.Columns {
			if i < len(rec) {
				row[col] = rec[i]
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// HasColumn reports whether the table carries a column.
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Require returns a configuration error unless every named column is
// present. Column presence is a precondition of each run mode.
func (t *Table) Require(names ...string) error {
	for _, name := range names {
		if !t.HasColumn(name) {
			return &errors.ConfigError{Key: name, Message: "input dataset is missing a required column"}
		}
	}
	return nil
}

// writeTSV writes rows with a header, tab-delimited.
func writeTSV(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.WrapIO("create", path, err)
	}

	w := csv.NewWriter(f)
	w.Comma = '\t'

	if err := w.Write(header); err != nil {
		f.Close() //nolint:errcheck // write error dominates
		return errors.WrapIO("write", path, err)
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			f.Close() //nolint:errcheck // write error dominates
			return errors.WrapIO("write", path, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		f.Close() //nolint:errcheck // write error dominates
		return errors.WrapIO("write", path, err)
	}
	return errors.WrapIO("close", path, f.Close())
}

// none renders a missing value the way the reports expect it.
func none(s string) string {
	if s == "" {
		return "None"
	}
	return s
}
