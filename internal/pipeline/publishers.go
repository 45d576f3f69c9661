package pipeline

import (
	"context"

	"github.com/MarkBruyneel/WorldCat/internal/dataset"
	"github.com/MarkBruyneel/WorldCat/internal/worldcat"
	"github.com/MarkBruyneel/WorldCat/pkg/bib"
	"github.com/MarkBruyneel/WorldCat/pkg/isbn"
	"github.com/MarkBruyneel/WorldCat/pkg/logging"
	"github.com/MarkBruyneel/WorldCat/pkg/reconcile"
)

// searchISBNCol is the synthesized column carrying the normalized ISBN a
// row was searched under. It is both a report column and the join key.
const searchISBNCol = "Search_ISBN"

// Publishers runs the publisher-enrichment mode: rows that carry an ISBN
// but no publisher are looked up on the brief-bib endpoint by ISBN, and
// the fetched records are reconciled back into the dataset.
func (p *Pipeline) Publishers(ctx context.Context, table *dataset.Table) error {
	ctx = logging.WithMode(ctx, "publishers")
	if err := table.Require("ISBN", "Publisher"); err != nil {
		return err
	}

	var stats Stats
	var rows []reconcile.Row
	var candidates []string
	for _, row := range table.Rows {
		raw := trimFloatSuffix(row["ISBN"])
		if raw == "" || raw == isbn.Placeholder || row["Publisher"] != "" {
			continue
		}
		stats.Input++

		id, ok := isbn.Validate(raw)
		if !ok {
			stats.Rejected++
			logging.Ctx(logging.WithIdentifier(ctx, raw)).Info().Msg("invalid identifier, skipped")
			continue
		}
		row[searchISBNCol] = id
		rows = append(rows, row)
		candidates = append(candidates, id)
	}

	ids := isbn.Dedupe(candidates)
	stats.Validated = len(ids)

	if moved, err := p.store.Archive("backup_", p.run.RunDate); err != nil {
		return err
	} else if moved > 0 {
		logging.Ctx(ctx).Info().Int("responses", moved).Msg("archived previous run")
	}

	lookups := make([]lookup, 0, len(ids))
	for _, id := range ids {
		lookups = append(lookups, lookup{ID: id, Query: worldcat.ISBNQuery(id)})
	}
	if err := p.fetchAll(ctx, lookups, p.fetcher.BriefBibs, &stats); err != nil {
		return err
	}

	flat, err := p.normalizeStored(ctx, bib.NormalizeBrief)
	if err != nil {
		return err
	}

	if err := dataset.WriteRecords(p.outputPath("publishers", "records", "tsv"), flat, dataset.BriefColumns, searchISBNCol); err != nil {
		return err
	}
	if err := dataset.WriteAbbreviatedRecords(p.outputPath("publishers", "records_short", "tsv"), flat, dataset.BriefColumns, searchISBNCol); err != nil {
		return err
	}

	notFound, err := p.store.NotFound()
	if err != nil {
		return err
	}
	if err := dataset.WriteNotFound(p.outputPath("publishers", "notfound", "txt"), notFound); err != nil {
		return err
	}

	merged := reconcile.Merge(rows, flat, searchISBNCol, reconcile.SourceIDKey)
	merged = reconcile.WithRecord(merged)
	merged = reconcile.WithKnownDate(merged)
	merged = reconcile.Dedupe(merged)
	reconcile.Permalinks(merged, p.permalink())

	cols := append([]string{}, table.Columns...)
	cols = append(cols, searchISBNCol)
	if err := dataset.WriteReconciled(p.outputPath("publishers", "merged", "tsv"), merged, cols, dataset.BriefColumns, false); err != nil {
		return err
	}

	p.logStats(ctx, stats)
	return nil
}
