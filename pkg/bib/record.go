// Package bib flattens raw catalog API responses into uniform bibliographic
// records. A response carries zero or more editions in one of two container
// shapes (brief records or full records); each edition flattens to one
// record, multiplied by its digital-access locations when it has any.
package bib

// UnknownDate is the catalog's placeholder for an unknown publication date.
// Records carrying it stay in the flat output but are excluded from the
// final merged report.
const UnknownDate = "uuuu"

// FlatRecord is the normalized representation of one bibliographic edition,
// or of one (edition, digital-access location) pair when the edition lists
// locations. Missing fields hold the type's zero value; Holding is nil when
// the catalog reported no holdings indicator.
type FlatRecord struct {
	// SourceID is the identifier whose query produced this record.
	SourceID string

	OCLCNumber          int64 // 0 when absent
	Publisher           string
	Author              string
	Title               string
	Holding             *bool
	ISBN1               string
	ISBN2               string
	PhysicalDescription string
	PublicationDate     string // raw date string from the record
	PublicationYear     int    // trailing 4 digits of the date, 0 when none
	Format              string

	// Digital-access location. Empty on brief records and on full records
	// without locations.
	MaterialSpecified string
	URI               string
}

// HasUnknownDate reports whether the record carries the catalog's
// unknown-date placeholder.
func (r FlatRecord) HasUnknownDate() bool {
	return r.PublicationDate == UnknownDate
}

// HoldingString renders the tri-state holdings indicator the way the
// reports expect it: "True", "False", or "None".
func (r FlatRecord) HoldingString() string {
	if r.Holding == nil {
		return "None"
	}
	if *r.Holding {
		return "True"
	}
	return "False"
}
