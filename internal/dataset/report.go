package dataset

import (
	"os"
	"strconv"
	"strings"

	"github.com/MarkBruyneel/WorldCat/pkg/bib"
	"github.com/MarkBruyneel/WorldCat/pkg/errors"
	"github.com/MarkBruyneel/WorldCat/pkg/reconcile"
)

// RecordColumn maps one report column onto a record field.
type RecordColumn struct {
	Name   string
	Render func(bib.FlatRecord) string
}

// BriefColumns is the column set for records fetched from the brief
// endpoint.
var BriefColumns = []RecordColumn{
	{"OCLC_nr", renderOCLC},
	{"Publisher", func(r bib.FlatRecord) string { return none(r.Publisher) }},
	{"Author", func(r bib.FlatRecord) string { return none(r.Author) }},
	{"Title", func(r bib.FlatRecord) string { return none(r.Title) }},
	{"Holding", func(r bib.FlatRecord) string { return r.HoldingString() }},
	{"ISBN1", func(r bib.FlatRecord) string { return none(r.ISBN1) }},
	{"ISBN2", func(r bib.FlatRecord) string { return none(r.ISBN2) }},
	{"Pub_year", renderYear},
}

// FullColumns is the column set for records fetched from the full bib
// endpoint: the physical attributes and per-location access fields it
// yields, nothing carried over from the brief shape.
var FullColumns = []RecordColumn{
	{"OCLC_nr", renderOCLC},
	{"Physical_Attributes", func(r bib.FlatRecord) string { return none(r.PhysicalDescription) }},
	{"Publication_Date", func(r bib.FlatRecord) string { return none(r.PublicationDate) }},
	{"Pub_year", renderYear},
	{"materialSpecified", func(r bib.FlatRecord) string { return none(r.MaterialSpecified) }},
	{"uri", func(r bib.FlatRecord) string { return none(r.URI) }},
}

func renderOCLC(r bib.FlatRecord) string {
	if r.OCLCNumber == 0 {
		return "None"
	}
	return strconv.FormatInt(r.OCLCNumber, 10)
}

func renderYear(r bib.FlatRecord) string {
	if r.PublicationYear == 0 {
		return "None"
	}
	return strconv.Itoa(r.PublicationYear)
}

// WriteRecords writes the fetched-record table. searchCol names the
// trailing column holding the identifier that produced each record.
func WriteRecords(path string, recs []bib.FlatRecord, cols []RecordColumn, searchCol string) error {
	header := make([]string, 0, len(cols)+1)
	for _, c := range cols {
		header = append(header, c.Name)
	}
	if searchCol != "" {
		header = append(header, searchCol)
	}

	rows := make([][]string, 0, len(recs))
	for _, rec := range recs {
		row := make([]string, 0, len(header))
		for _, c := range cols {
			row = append(row, c.Render(rec))
		}
		if searchCol != "" {
			row = append(row, none(rec.SourceID))
		}
		rows = append(rows, row)
	}
	return writeTSV(path, header, rows)
}

// WriteAbbreviatedRecords writes the record table without the catalog
// number column, collapsing rows that become identical once it is gone.
func WriteAbbreviatedRecords(path string, recs []bib.FlatRecord, cols []RecordColumn, searchCol string) error {
	kept := make([]RecordColumn, 0, len(cols))
	for _, c := range cols {
		if c.Name != "OCLC_nr" {
			kept = append(kept, c)
		}
	}

	header := make([]string, 0, len(kept)+1)
	for _, c := range kept {
		header = append(header, c.Name)
	}
	if searchCol != "" {
		header = append(header, searchCol)
	}

	seen := make(map[string]struct{}, len(recs))
	rows := make([][]string, 0, len(recs))
	for _, rec := range recs {
		row := make([]string, 0, len(header))
		for _, c := range kept {
			row = append(row, c.Render(rec))
		}
		if searchCol != "" {
			row = append(row, none(rec.SourceID))
		}
		key := strings.Join(row, "\x1f")
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		rows = append(rows, row)
	}
	return writeTSV(path, header, rows)
}

// WriteReconciled writes the joined table: the original input columns
// followed by the record columns, the optional similarity ratio, and the
// catalog permalink. Cells on an absent side render as None.
func WriteReconciled(path string, rows []reconcile.ReconciledRow, sourceCols []string, cols []RecordColumn, withRatio bool) error {
	header := make([]string, 0, len(sourceCols)+len(cols)+2)
	header = append(header, sourceCols...)
	for _, c := range cols {
		header = append(header, c.Name)
	}
	if withRatio {
		header = append(header, "Title_Similarity")
	}
	header = append(header, "OCLC_Link")

	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		row := make([]string, 0, len(header))
		for _, col := range sourceCols {
			if r.HasSource {
				row = append(row, none(r.Source[col]))
			} else {
				row = append(row, "None")
			}
		}
		for _, c := range cols {
			if r.HasRecord {
				row = append(row, c.Render(r.Record))
			} else {
				row = append(row, "None")
			}
		}
		if withRatio {
			row = append(row, strconv.FormatFloat(r.TitleSimilarityRatio, 'f', 2, 64))
		}
		row = append(row, none(r.Permalink))
		out = append(out, row)
	}
	return writeTSV(path, header, out)
}

// WriteNotFound writes the identifiers that produced no usable record,
// comma-separated on a single line.
func WriteNotFound(path string, ids []string) error {
	body := strings.Join(ids, ", ") + "\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return errors.WrapIO("write", path, err)
	}
	return nil
}
