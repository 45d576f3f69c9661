// Package reconcile merges normalized catalog records back into the
// original input dataset: a full outer join on a shared key, explicit
// post-join filters, exact-duplicate removal, and an advisory title
// similarity score.
package reconcile

import (
	"sort"
	"strconv"
	"strings"

	"github.com/MarkBruyneel/WorldCat/pkg/bib"
)

// DefaultPermalinkPrefix is the catalog permalink prefix used when the
// configuration does not override it.
const DefaultPermalinkPrefix = "https://vu.on.worldcat.org/search?queryString="

// Row is one original input row, keyed by column name.
type Row map[string]string

// ReconciledRow is one output unit: an input row outer-joined with a
// fetched record. Exactly one side may be absent.
type ReconciledRow struct {
	Source Row            // nil when no input row matched
	Record bib.FlatRecord // zero value when no record matched

	HasSource bool
	HasRecord bool

	// TitleSimilarityRatio compares the row's free-text source with the
	// returned title. Advisory only; the pipeline never filters on it.
	TitleSimilarityRatio float64

	// Permalink is the constructed catalog link for the record.
	Permalink string
}

// Merge performs a full outer join of original rows and flat records.
// A row matches a record when row[joinKey] equals recordKey(record); rows
// without a match and records without a match both appear in the output,
// one-sided.
func Merge(original []Row, flat []bib.FlatRecord, joinKey string, recordKey func(bib.FlatRecord) string) []ReconciledRow {
	matched := make([]bool, len(flat))
	out := make([]ReconciledRow, 0, len(original)+len(flat))

	for _, row := range original {
		key := row[joinKey]
		found := false
		for i, rec := range flat {
			if key != "" && recordKey(rec) == key {
				out = append(out, ReconciledRow{
					Source:    row,
					Record:    rec,
					HasSource: true,
					HasRecord: true,
				})
				matched[i] = true
				found = true
			}
		}
		if !found {
			out = append(out, ReconciledRow{Source: row, HasSource: true})
		}
	}

	for i, rec := range flat {
		if !matched[i] {
			out = append(out, ReconciledRow{Record: rec, HasRecord: true})
		}
	}

	return out
}

// OCLCKey keys a record by its OCLC number for joins on catalog numbers.
// Records without one key to the empty string and never match.
func OCLCKey(rec bib.FlatRecord) string {
	if rec.OCLCNumber == 0 {
		return ""
	}
	return strconv.FormatInt(rec.OCLCNumber, 10)
}

// SourceIDKey keys a record by the identifier that produced it, for joins
// on search-key aliases such as the material id.
func SourceIDKey(rec bib.FlatRecord) string {
	return rec.SourceID
}

// WithRecord drops rows whose join key never resolved to a record. The
// dropped rows are the "not found" side reported separately.
func WithRecord(rows []ReconciledRow) []ReconciledRow {
	out := make([]ReconciledRow, 0, len(rows))
	for _, r := range rows {
		if r.HasRecord {
			out = append(out, r)
		}
	}
	return out
}

// WithSourceField drops rows whose input side is absent or leaves the
// named column empty. This is an explicit post-join filter, not a join
// condition.
func WithSourceField(rows []ReconciledRow, field string) []ReconciledRow {
	out := make([]ReconciledRow, 0, len(rows))
	for _, r := range rows {
		if r.HasSource && r.Source[field] != "" {
			out = append(out, r)
		}
	}
	return out
}

// WithKnownDate drops rows whose record carries the catalog's unknown-date
// placeholder.
func WithKnownDate(rows []ReconciledRow) []ReconciledRow {
	out := make([]ReconciledRow, 0, len(rows))
	for _, r := range rows {
		if r.HasRecord && r.Record.HasUnknownDate() {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Dedupe removes rows that are identical across all output columns,
// keeping the first occurrence. Near-duplicates are left alone.
func Dedupe(rows []ReconciledRow) []ReconciledRow {
	seen := make(map[string]struct{}, len(rows))
	out := make([]ReconciledRow, 0, len(rows))
	for _, r := range rows {
		k := r.fingerprint()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}
	return out
}

// fingerprint renders every output column of a row into a canonical string.
func (r ReconciledRow) fingerprint() string {
	var sb strings.Builder

	keys := make([]string, 0, len(r.Source))
	for k := range r.Source {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(r.Source[k])
		sb.WriteByte('\x1f')
	}

	rec := r.Record
	for _, f := range []string{
		strconv.FormatInt(rec.OCLCNumber, 10),
		rec.Publisher, rec.Author, rec.Title, rec.HoldingString(),
		rec.ISBN1, rec.ISBN2, rec.PhysicalDescription,
		rec.PublicationDate, strconv.Itoa(rec.PublicationYear),
		rec.Format, rec.MaterialSpecified, rec.URI, rec.SourceID,
		strconv.FormatFloat(r.TitleSimilarityRatio, 'g', -1, 64),
	} {
		sb.WriteString(f)
		sb.WriteByte('\x1f')
	}

	return sb.String()
}

// Permalink constructs the catalog permalink for an OCLC number. An empty
// prefix falls back to the default.
func Permalink(prefix string, oclc int64) string {
	if oclc == 0 {
		return ""
	}
	if prefix == "" {
		prefix = DefaultPermalinkPrefix
	}
	return prefix + strconv.FormatInt(oclc, 10)
}

// ScoreTitles fills TitleSimilarityRatio on each row by comparing the
// cleaned free-text source (sourceField on the input row) against the
// record title passed through clean. Rows missing either side score 0.
func ScoreTitles(rows []ReconciledRow, sourceField string, clean func(string) string) {
	for i := range rows {
		r := &rows[i]
		if !r.HasSource || !r.HasRecord || r.Record.Title == "" {
			continue
		}
		src := r.Source[sourceField]
		if src == "" {
			continue
		}
		r.TitleSimilarityRatio = Ratio(src, clean(r.Record.Title))
	}
}

// Permalinks fills Permalink on each row that has a record.
func Permalinks(rows []ReconciledRow, prefix string) {
	for i := range rows {
		if rows[i].HasRecord {
			rows[i].Permalink = Permalink(prefix, rows[i].Record.OCLCNumber)
		}
	}
}
