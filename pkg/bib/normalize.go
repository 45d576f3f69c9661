package bib

import (
	"encoding/json"
	"strconv"

	"github.com/MarkBruyneel/WorldCat/pkg/errors"
)

// document is a generic JSON object with tolerant accessors. Every field
// extraction goes through these; a missing or mistyped field yields the
// zero value instead of an error.
type document map[string]any

// get walks a key path and returns the value at the end, or nil.
func (d document) get(keys ...string) any {
	var cur any = map[string]any(d)
	for _, k := range keys {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = m[k]
	}
	return cur
}

// str returns the string at the key path, or "".
func (d document) str(keys ...string) string {
	if s, ok := d.get(keys...).(string); ok {
		return s
	}
	return ""
}

// list returns the array at the key path, or nil.
func (d document) list(keys ...string) []any {
	if l, ok := d.get(keys...).([]any); ok {
		return l
	}
	return nil
}

// object returns the element at index i of the array at the key path as a
// document, or nil.
func (d document) object(i int, keys ...string) document {
	l := d.list(keys...)
	if i < 0 || i >= len(l) {
		return nil
	}
	if m, ok := l[i].(map[string]any); ok {
		return document(m)
	}
	return nil
}

// number parses the value at the key path as an integer. The API is loose
// here: OCLC numbers arrive as JSON strings in some shapes and as numbers
// in others.
func (d document) number(keys ...string) int64 {
	switch v := d.get(keys...).(type) {
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0
		}
		return n
	case float64:
		return int64(v)
	default:
		return 0
	}
}

// NormalizeBrief flattens a brief-record response (the briefRecords
// container) into FlatRecords tagged with sourceID. An empty or absent
// record list yields an empty slice, not an error.
func NormalizeBrief(raw []byte, sourceID string) ([]FlatRecord, error) {
	doc, err := parse(raw)
	if err != nil {
		return nil, err
	}

	// The response's own numberOfRecords field is unreliable; iterate the
	// actual list.
	records := doc.list("briefRecords")
	out := make([]FlatRecord, 0, len(records))
	for i := range records {
		rec := doc.object(i, "briefRecords")
		if rec == nil {
			continue
		}

		r := FlatRecord{
			SourceID:        sourceID,
			OCLCNumber:      rec.number("oclcNumber"),
			Publisher:       rec.str("publisher"),
			Author:          rec.str("creator"),
			Title:           rec.str("title"),
			Holding:         holdsItem(rec),
			PublicationDate: rec.str("date"),
			Format:          format(rec),
		}
		r.PublicationYear = Year(r.PublicationDate)
		r.ISBN1, r.ISBN2 = isbnPair(rec)

		out = append(out, r)
	}
	return out, nil
}

// NormalizeFull flattens a full-record response (the bibRecords container)
// into FlatRecords tagged with sourceID. An edition with N digital-access
// locations yields N records sharing the edition's scalar fields; an
// edition without locations yields exactly one.
func NormalizeFull(raw []byte, sourceID string) ([]FlatRecord, error) {
	doc, err := parse(raw)
	if err != nil {
		return nil, err
	}

	records := doc.list("bibRecords")
	out := make([]FlatRecord, 0, len(records))
	for i := range records {
		rec := doc.object(i, "bibRecords")
		if rec == nil {
			continue
		}

		base := FlatRecord{
			SourceID:            sourceID,
			OCLCNumber:          rec.number("identifier", "oclcNumber"),
			PhysicalDescription: rec.str("description", "physicalDescription"),
			PublicationDate:     rec.str("date", "publicationDate"),
		}
		base.PublicationYear = Year(base.PublicationDate)

		locations := rec.list("digitalAccessAndLocations")
		if len(locations) == 0 {
			out = append(out, base)
			continue
		}

		for j := range locations {
			loc := rec.object(j, "digitalAccessAndLocations")
			r := base
			if loc != nil {
				r.URI = loc.str("uri")
				r.MaterialSpecified = loc.str("materialSpecified")
			}
			out = append(out, r)
		}
	}
	return out, nil
}

// parse decodes a raw response body into a generic document.
func parse(raw []byte) (document, error) {
	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, errors.WrapParse("json", "", err)
	}
	return doc, nil
}

// holdsItem reads the first institution holdings indicator as a tri-state:
// nil when the field is missing or unrecognizable.
func holdsItem(rec document) *bool {
	ind := rec.object(0, "institutionHoldingIndicators")
	if ind == nil {
		return nil
	}

	var held bool
	switch v := ind.get("holdsItem").(type) {
	case bool:
		held = v
	case float64:
		if v != 0 && v != 1 {
			return nil
		}
		held = v == 1
	default:
		return nil
	}
	return &held
}

// format prefers the specific format and falls back to the general one.
func format(rec document) string {
	if f := rec.str("specificFormat"); f != "" {
		return f
	}
	return rec.str("generalFormat")
}

// isbnPair returns the first two ISBNs on a record. A record listing fewer
// than two yields none at all, matching the reference extraction.
func isbnPair(rec document) (string, string) {
	isbns := rec.list("isbns")
	if len(isbns) < 2 {
		return "", ""
	}
	first, _ := isbns[0].(string)
	second, _ := isbns[1].(string)
	return first, second
}

// Year derives a publication year from a raw date string: every non-digit
// is stripped, the remainder parsed as an integer, and its trailing four
// digits taken. A date with no digits yields 0.
func Year(date string) int {
	digits := make([]byte, 0, len(date))
	for i := 0; i < len(date); i++ {
		if date[i] >= '0' && date[i] <= '9' {
			digits = append(digits, date[i])
		}
	}
	if len(digits) == 0 {
		return 0
	}

	n, err := strconv.ParseInt(string(digits), 10, 64)
	if err != nil {
		// Absurdly long digit runs overflow; keep the trailing digits.
		if len(digits) > 18 {
			n, err = strconv.ParseInt(string(digits[len(digits)-18:]), 10, 64)
		}
		if err != nil {
			return 0
		}
	}
	return int(n % 10000)
}
