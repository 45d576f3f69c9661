package bib

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const briefResponse = `{
	"numberOfRecords": 99,
	"briefRecords": [
		{
			"oclcNumber": "44959645",
			"title": "The wealth of networks",
			"creator": "Yochai Benkler",
			"date": "c2006",
			"publisher": "Yale University Press",
			"specificFormat": "Book",
			"isbns": ["0300110561", "9780300110562"],
			"institutionHoldingIndicators": [{"oclcNumber": "44959645", "holdsItem": true}]
		},
		{
			"oclcNumber": "1015336",
			"title": "Another edition",
			"date": "uuuu",
			"generalFormat": "Book"
		}
	]
}`

func TestNormalizeBrief(t *testing.T) {
	records, err := NormalizeBrief([]byte(briefResponse), "9780300110562")
	require.NoError(t, err)
	require.Len(t, records, 2, "iterate the record list, not numberOfRecords")

	first := records[0]
	assert.Equal(t, "9780300110562", first.SourceID)
	assert.Equal(t, int64(44959645), first.OCLCNumber)
	assert.Equal(t, "Yale University Press", first.Publisher)
	assert.Equal(t, "Yochai Benkler", first.Author)
	assert.Equal(t, "The wealth of networks", first.Title)
	assert.Equal(t, "c2006", first.PublicationDate)
	assert.Equal(t, 2006, first.PublicationYear)
	assert.Equal(t, "Book", first.Format)
	assert.Equal(t, "0300110561", first.ISBN1)
	assert.Equal(t, "9780300110562", first.ISBN2)
	require.NotNil(t, first.Holding)
	assert.True(t, *first.Holding)
	assert.Equal(t, "True", first.HoldingString())

	second := records[1]
	assert.Equal(t, "Book", second.Format, "generalFormat fallback")
	assert.Nil(t, second.Holding)
	assert.Equal(t, "None", second.HoldingString())
	assert.True(t, second.HasUnknownDate())
	assert.Equal(t, "", second.ISBN1)
	assert.Equal(t, "", second.ISBN2)
}

func TestNormalizeBriefMissingEverything(t *testing.T) {
	records, err := NormalizeBrief([]byte(`{"briefRecords":[{}]}`), "x")
	require.NoError(t, err)
	require.Len(t, records, 1)

	r := records[0]
	assert.Zero(t, r.OCLCNumber)
	assert.Empty(t, r.Publisher)
	assert.Empty(t, r.Author)
	assert.Empty(t, r.Title)
	assert.Nil(t, r.Holding)
	assert.Empty(t, r.PublicationDate)
	assert.Zero(t, r.PublicationYear)
}

func TestNormalizeBriefZeroHits(t *testing.T) {
	for _, raw := range []string{`{"numberOfRecords":0,"briefRecords":[]}`, `{"numberOfRecords":3}`} {
		records, err := NormalizeBrief([]byte(raw), "x")
		require.NoError(t, err)
		assert.Empty(t, records)
	}
}

func TestNormalizeBriefMalformed(t *testing.T) {
	_, err := NormalizeBrief([]byte(`{"briefRecords": [`), "x")
	assert.Error(t, err)
}

func TestNormalizeBriefSingleISBNDropsBoth(t *testing.T) {
	records, err := NormalizeBrief([]byte(`{"briefRecords":[{"isbns":["0300110561"]}]}`), "x")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Empty(t, records[0].ISBN1)
	assert.Empty(t, records[0].ISBN2)
}

func TestNormalizeBriefHoldingNumeric(t *testing.T) {
	raw := `{"briefRecords":[
		{"institutionHoldingIndicators":[{"holdsItem": 1.0}]},
		{"institutionHoldingIndicators":[{"holdsItem": 0.0}]}
	]}`
	records, err := NormalizeBrief([]byte(raw), "x")
	require.NoError(t, err)
	require.Len(t, records, 2)

	require.NotNil(t, records[0].Holding)
	assert.True(t, *records[0].Holding)
	require.NotNil(t, records[1].Holding)
	assert.False(t, *records[1].Holding)
}

const fullResponse = `{
	"numberOfRecords": 1,
	"bibRecords": [
		{
			"identifier": {"oclcNumber": "123"},
			"description": {"physicalDescription": "xii, 515 pages"},
			"digitalAccessAndLocations": [
				{"uri": "https://example.org/a", "materialSpecified": "Table of contents"},
				{"uri": "https://example.org/b"},
				{"uri": "https://example.org/c", "materialSpecified": "Full text"}
			]
		}
	]
}`

func TestNormalizeFullCrossProduct(t *testing.T) {
	records, err := NormalizeFull([]byte(fullResponse), "123")
	require.NoError(t, err)
	require.Len(t, records, 3, "one record per digital-access location")

	uris := map[string]bool{}
	for _, r := range records {
		assert.Equal(t, int64(123), r.OCLCNumber)
		assert.Equal(t, "xii, 515 pages", r.PhysicalDescription)
		uris[r.URI] = true
	}
	assert.Len(t, uris, 3, "each location keeps its own uri")
	assert.Empty(t, records[1].MaterialSpecified)
}

func TestNormalizeFullNoLocations(t *testing.T) {
	raw := `{"bibRecords":[{"identifier":{"oclcNumber":"77"},"description":{"physicalDescription":"1 vol."}}]}`
	records, err := NormalizeFull([]byte(raw), "77")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Empty(t, records[0].URI)
	assert.Empty(t, records[0].MaterialSpecified)
}

func TestNormalizeFullTwoEditionsMixedLocations(t *testing.T) {
	raw := `{"bibRecords":[
		{"identifier":{"oclcNumber":"123"},"digitalAccessAndLocations":[{"uri":"u1"}]},
		{"identifier":{"oclcNumber":"123"},"digitalAccessAndLocations":[{"uri":"u2"},{"uri":"u3"}]}
	]}`
	records, err := NormalizeFull([]byte(raw), "123")
	require.NoError(t, err)
	assert.Len(t, records, 3)
	for _, r := range records {
		assert.Equal(t, "123", r.SourceID)
		assert.Equal(t, int64(123), r.OCLCNumber)
	}
}

func TestYear(t *testing.T) {
	tests := []struct {
		date string
		want int
	}{
		{"c2020", 2020},
		{"2006", 2006},
		{"[1998]", 1998},
		{"19нн", 19},
		{"no digits at all", 0},
		{"", 0},
		{"197?", 197},
		{"between 1990 and 1995", 19901995 % 10000},
	}

	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			assert.Equal(t, tt.want, Year(tt.date))
		})
	}
}
