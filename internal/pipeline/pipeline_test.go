package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MarkBruyneel/WorldCat/internal/appcontext"
	"github.com/MarkBruyneel/WorldCat/internal/dataset"
	"github.com/MarkBruyneel/WorldCat/internal/worldcat"
	"github.com/MarkBruyneel/WorldCat/pkg/errors"
	"github.com/MarkBruyneel/WorldCat/pkg/logging"
	"github.com/MarkBruyneel/WorldCat/pkg/reconcile"
)

// zeroHit is the envelope the catalog returns for a query with no matches;
// it stays under the store's not-found size threshold.
const zeroHit = `{"numberOfRecords":0}`

type response struct {
	body   []byte
	status worldcat.FetchStatus
	err    error
}

// fakeFetcher serves canned responses by query and can fail transiently a
// set number of times per query.
type fakeFetcher struct {
	brief map[string]response
	full  map[string]response

	transient map[string]int

	briefCalls []string
	fullCalls  []string
}

func (f *fakeFetcher) serve(m map[string]response, query string) ([]byte, worldcat.FetchStatus, error) {
	if f.transient[query] > 0 {
		f.transient[query]--
		err := errors.NewAPIError(503, "/brief-bibs", "service unavailable")
		return nil, worldcat.StatusTransient, err
	}
	if r, ok := m[query]; ok {
		return r.body, r.status, r.err
	}
	return []byte(zeroHit), worldcat.StatusOK, nil
}

func (f *fakeFetcher) BriefBibs(_ context.Context, query string) ([]byte, worldcat.FetchStatus, error) {
	f.briefCalls = append(f.briefCalls, query)
	return f.serve(f.brief, query)
}

func (f *fakeFetcher) Bibs(_ context.Context, query string) ([]byte, worldcat.FetchStatus, error) {
	f.fullCalls = append(f.fullCalls, query)
	return f.serve(f.full, query)
}

func newTestPipeline(t *testing.T, f Fetcher) (*Pipeline, *appcontext.Context) {
	t.Helper()
	store, err := worldcat.NewStore(filepath.Join(t.TempDir(), "wc_data"))
	require.NoError(t, err)
	run := appcontext.New(store.Dir(), t.TempDir(), logging.NewNopLogger())
	return New(f, store, run, WithRetry(2, time.Millisecond)), run
}

func readOutput(t *testing.T, run *appcontext.Context, mode, kind, ext string) string {
	t.Helper()
	path := filepath.Join(run.OutputDir, mode+"_"+kind+"_"+run.RunDate+"."+ext)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

const briefRecord = `{
	"numberOfRecords": 1,
	"briefRecords": [{
		"oclcNumber": "44959645",
		"title": "Applied Statistics",
		"creator": "Doe, J.",
		"date": "2006",
		"publisher": "Wiley",
		"specificFormat": "PrintBook",
		"isbns": ["0306406152", "9780306406157"],
		"institutionHoldingIndicators": [{"holdsItem": true}]
	}]
}`

func publisherTable() *dataset.Table {
	return &dataset.Table{
		Columns: []string{"Material id", "ISBN", "Publisher"},
		Rows: []reconcile.Row{
			{"Material id": "1", "ISBN": "9780306406157", "Publisher": ""},
			{"Material id": "2", "ISBN": "0306406152.0", "Publisher": ""},
			{"Material id": "3", "ISBN": "080442957X", "Publisher": ""},
			{"Material id": "4", "ISBN": "syllabus", "Publisher": ""},
			{"Material id": "5", "ISBN": "12345", "Publisher": ""},
			{"Material id": "6", "ISBN": "9780306406157", "Publisher": "Already set"},
			{"Material id": "7", "ISBN": "", "Publisher": ""},
		},
	}
}

func TestPublishersProcessesEntireCandidateList(t *testing.T) {
	f := &fakeFetcher{}
	p, _ := newTestPipeline(t, f)

	require.NoError(t, p.Publishers(context.Background(), publisherTable()))

	// Every validated identifier is looked up, including the last one.
	assert.Equal(t, []string{
		"bn:9780306406157",
		"bn:0306406152",
		"bn:080442957X",
	}, f.briefCalls)
}

func TestPublishersEndToEnd(t *testing.T) {
	f := &fakeFetcher{
		brief: map[string]response{
			"bn:9780306406157": {body: []byte(briefRecord), status: worldcat.StatusOK},
		},
	}
	p, run := newTestPipeline(t, f)

	require.NoError(t, p.Publishers(context.Background(), publisherTable()))

	records := readOutput(t, run, "publishers", "records", "tsv")
	assert.Contains(t, records, "Wiley")
	assert.Contains(t, records, "44959645")

	notFound := readOutput(t, run, "publishers", "notfound", "txt")
	assert.Contains(t, notFound, "0306406152")
	assert.Contains(t, notFound, "080442957X")
	assert.NotContains(t, notFound, "9780306406157")

	merged := readOutput(t, run, "publishers", "merged", "tsv")
	assert.Contains(t, merged, "Search_ISBN")
	assert.Contains(t, merged, "https://vu.on.worldcat.org/search?queryString=44959645")

	// The matched input row and its record share a line.
	var matched string
	for _, line := range strings.Split(merged, "\n") {
		if strings.HasPrefix(line, "1\t") {
			matched = line
		}
	}
	assert.Contains(t, matched, "Wiley")
	assert.Contains(t, matched, "True")
}

func TestPublishersMergedDropsUnresolvedRows(t *testing.T) {
	f := &fakeFetcher{
		brief: map[string]response{
			"bn:9780306406157": {body: []byte(briefRecord), status: worldcat.StatusOK},
		},
	}
	p, run := newTestPipeline(t, f)

	require.NoError(t, p.Publishers(context.Background(), publisherTable()))

	// Rows whose ISBN never matched a record appear only in the not-found
	// report, never in the merged table.
	merged := readOutput(t, run, "publishers", "merged", "tsv")
	lines := strings.Split(strings.TrimRight(merged, "\n"), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[1], "1\t"), lines[1])
	assert.NotContains(t, merged, "080442957X\tNone")
}

func TestPublishersRetriesTransient(t *testing.T) {
	f := &fakeFetcher{
		brief: map[string]response{
			"bn:9780306406157": {body: []byte(briefRecord), status: worldcat.StatusOK},
		},
		transient: map[string]int{"bn:9780306406157": 2},
	}
	p, run := newTestPipeline(t, f)

	table := &dataset.Table{
		Columns: []string{"ISBN", "Publisher"},
		Rows:    []reconcile.Row{{"ISBN": "9780306406157", "Publisher": ""}},
	}
	require.NoError(t, p.Publishers(context.Background(), table))

	assert.Len(t, f.briefCalls, 3, "two transient failures, then success")
	records := readOutput(t, run, "publishers", "records", "tsv")
	assert.Contains(t, records, "44959645")
}

func TestPublishersTransientExhaustionSkips(t *testing.T) {
	f := &fakeFetcher{
		transient: map[string]int{"bn:9780306406157": 10},
		brief: map[string]response{
			"bn:080442957X": {body: []byte(briefRecord), status: worldcat.StatusOK},
		},
	}
	p, _ := newTestPipeline(t, f)

	table := &dataset.Table{
		Columns: []string{"ISBN", "Publisher"},
		Rows: []reconcile.Row{
			{"ISBN": "9780306406157", "Publisher": ""},
			{"ISBN": "080442957X", "Publisher": ""},
		},
	}

	// A transient identifier is skipped after the budget; the run continues.
	require.NoError(t, p.Publishers(context.Background(), table))
	assert.Equal(t, "bn:080442957X", f.briefCalls[len(f.briefCalls)-1])
}

func TestPublishersAuthAborts(t *testing.T) {
	authErr := errors.NewAPIError(401, "/brief-bibs", "unauthorized")
	f := &fakeFetcher{
		brief: map[string]response{
			"bn:9780306406157": {status: worldcat.StatusAuth, err: authErr},
		},
	}
	p, _ := newTestPipeline(t, f)

	table := &dataset.Table{
		Columns: []string{"ISBN", "Publisher"},
		Rows: []reconcile.Row{
			{"ISBN": "9780306406157", "Publisher": ""},
			{"ISBN": "080442957X", "Publisher": ""},
		},
	}

	err := p.Publishers(context.Background(), table)
	require.Error(t, err)
	assert.True(t, errors.IsAuth(err))
	assert.Len(t, f.briefCalls, 1, "run aborts before the next identifier")
}

func TestPublishersMissingColumn(t *testing.T) {
	f := &fakeFetcher{}
	p, _ := newTestPipeline(t, f)

	err := p.Publishers(context.Background(), &dataset.Table{Columns: []string{"ISBN"}})
	require.Error(t, err)
	var cfgErr *errors.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestTextSearchEndToEnd(t *testing.T) {
	query := "economic AND history AND netherlands AND yr:2006"
	f := &fakeFetcher{
		brief: map[string]response{
			query: {body: []byte(briefRecord), status: worldcat.StatusOK},
		},
	}
	p, run := newTestPipeline(t, f)

	table := &dataset.Table{
		Columns: []string{"Material id", "ISBN", "Filename"},
		Rows: []reconcile.Row{
			{"Material id": "1001", "ISBN": "", "Filename": "Economic_History_of_the_Netherlands_2006.pdf"},
			{"Material id": "1002", "ISBN": "", "Filename": "notes.pdf"},
			{"Material id": "1003", "ISBN": "9780306406157", "Filename": "whatever.pdf"},
		},
	}
	require.NoError(t, p.TextSearch(context.Background(), table))

	require.Equal(t, []string{query}, f.briefCalls, "only the qualifying ISBN-less row is searched")

	merged := readOutput(t, run, "textsearch", "merged", "tsv")
	assert.Contains(t, merged, "Title_Similarity")
	assert.Contains(t, merged, "Search_MID")

	var matched string
	for _, line := range strings.Split(merged, "\n") {
		if strings.HasPrefix(line, "1001\t") {
			matched = line
		}
	}
	require.NotEmpty(t, matched)
	assert.Contains(t, matched, "Applied Statistics")
	assert.NotContains(t, merged, "\n1002\t", "rows without a record are dropped")
}

const undatedRecord = `{
	"numberOfRecords": 1,
	"briefRecords": [{
		"oclcNumber": "77777777",
		"title": "Undated Work",
		"creator": "Anon.",
		"date": "uuuu",
		"publisher": "Unknown House",
		"isbns": ["0306406152", "9780306406157"],
		"institutionHoldingIndicators": [{"holdsItem": true}]
	}]
}`

func TestTextSearchMergedExcludesUnknownDate(t *testing.T) {
	f := &fakeFetcher{
		brief: map[string]response{
			"economic AND history AND netherlands AND yr:2006": {body: []byte(briefRecord), status: worldcat.StatusOK},
			"history AND modern AND art AND movements":         {body: []byte(undatedRecord), status: worldcat.StatusOK},
		},
	}
	p, run := newTestPipeline(t, f)

	table := &dataset.Table{
		Columns: []string{"Material id", "ISBN", "Filename"},
		Rows: []reconcile.Row{
			{"Material id": "2001", "ISBN": "", "Filename": "Economic_History_of_the_Netherlands_2006.pdf"},
			{"Material id": "2002", "ISBN": "", "Filename": "History_of_Modern_Art_Movements.pdf"},
		},
	}
	require.NoError(t, p.TextSearch(context.Background(), table))

	// A record carrying the unknown-date placeholder still lands in the
	// record table but is excluded from the merged report.
	records := readOutput(t, run, "textsearch", "records", "tsv")
	assert.Contains(t, records, "Undated Work")

	merged := readOutput(t, run, "textsearch", "merged", "tsv")
	assert.Contains(t, merged, "Applied Statistics")
	assert.NotContains(t, merged, "Undated Work")
}

const fullRecord = `{
	"numberOfRecords": 1,
	"bibRecords": [{
		"identifier": {"oclcNumber": 123},
		"description": {"physicalDescription": "1 online resource (210 p.)"},
		"date": {"publicationDate": "2006"},
		"digitalAccessAndLocations": [
			{"uri": "https://doi.example.org/a", "materialSpecified": "Full text"},
			{"uri": "https://doi.example.org/b", "materialSpecified": "Sample"}
		]
	}]
}`

func TestEditionsEndToEnd(t *testing.T) {
	f := &fakeFetcher{
		full: map[string]response{
			"123": {body: []byte(fullRecord), status: worldcat.StatusOK},
		},
	}
	p, run := newTestPipeline(t, f)

	table := &dataset.Table{
		Columns: []string{"OCLC_nr", "Holding"},
		Rows: []reconcile.Row{
			{"OCLC_nr": "123.0", "Holding": "True"},
			{"OCLC_nr": "456", "Holding": ""},
		},
	}
	require.NoError(t, p.Editions(context.Background(), table))

	assert.Equal(t, []string{"123", "456"}, f.fullCalls)

	records := readOutput(t, run, "editions", "records", "tsv")
	assert.Contains(t, records, "https://doi.example.org/a")
	assert.Contains(t, records, "https://doi.example.org/b")

	// Only the fields the full endpoint yields; no brief-shape columns.
	assert.Equal(t,
		"OCLC_nr\tPhysical_Attributes\tPublication_Date\tPub_year\tmaterialSpecified\turi",
		strings.SplitN(records, "\n", 2)[0])

	merged := readOutput(t, run, "editions", "merged", "tsv")
	lines := strings.Split(strings.TrimRight(merged, "\n"), "\n")
	// Header plus one row per digital-access location of the held edition;
	// the row with an empty Holding column is dropped.
	require.Len(t, lines, 3)
	for _, line := range lines[1:] {
		assert.True(t, strings.HasPrefix(line, "123\tTrue\t"), line)
	}
}

func TestEditionsArchivesPreviousRun(t *testing.T) {
	f := &fakeFetcher{}
	p, run := newTestPipeline(t, f)

	require.NoError(t, p.store.Put("999", []byte(zeroHit)))

	table := &dataset.Table{
		Columns: []string{"OCLC_nr", "Holding"},
		Rows:    []reconcile.Row{{"OCLC_nr": "123", "Holding": "True"}},
	}
	require.NoError(t, p.Editions(context.Background(), table))

	_, err := os.Stat(filepath.Join(run.WorkDir, "backup_"+run.RunDate, "999.json"))
	assert.NoError(t, err, "previous responses move to the dated backup")
}
