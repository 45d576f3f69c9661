package pipeline

import (
	"context"

	"github.com/MarkBruyneel/WorldCat/internal/dataset"
	"github.com/MarkBruyneel/WorldCat/pkg/bib"
	"github.com/MarkBruyneel/WorldCat/pkg/logging"
	"github.com/MarkBruyneel/WorldCat/pkg/reconcile"
	"github.com/MarkBruyneel/WorldCat/pkg/textquery"
)

// Synthesized text-search columns: the material id a row was searched
// under, and the cleaned filename kept for title-similarity scoring.
const (
	searchMIDCol   = "Search_MID"
	cleanedNameCol = "Filename_copy"
)

// TextSearch runs the free-text mode: rows without an ISBN have their
// filename reduced to keywords and searched on the brief-bib endpoint,
// keyed by the material id.
func (p *Pipeline) TextSearch(ctx context.Context, table *dataset.Table) error {
	ctx = logging.WithMode(ctx, "textsearch")
	if err := table.Require("Material id", "ISBN", "Filename"); err != nil {
		return err
	}

	cfg, err := textquery.DefaultConfig()
	if err != nil {
		return err
	}
	builder := textquery.NewBuilder(cfg)

	var stats Stats
	var rows []reconcile.Row
	var lookups []lookup
	seen := make(map[string]struct{})
	for _, row := range table.Rows {
		if trimFloatSuffix(row["ISBN"]) != "" {
			continue
		}
		mid := trimFloatSuffix(row["Material id"])
		if mid == "" || row["Filename"] == "" {
			continue
		}
		stats.Input++

		cand, ok := builder.Extract(row["Filename"])
		if !ok {
			stats.Rejected++
			logging.Ctx(logging.WithIdentifier(ctx, mid)).Info().Msg("filename does not qualify, skipped")
			continue
		}
		stats.Validated++

		row[searchMIDCol] = mid
		row[cleanedNameCol] = cand.Cleaned
		rows = append(rows, row)

		if _, dup := seen[mid]; dup {
			continue
		}
		seen[mid] = struct{}{}
		lookups = append(lookups, lookup{ID: mid, Query: builder.Query(cand)})
	}

	if moved, err := p.store.Archive("tbackup_", p.run.RunDate); err != nil {
		return err
	} else if moved > 0 {
		logging.Ctx(ctx).Info().Int("responses", moved).Msg("archived previous run")
	}

	if err := p.fetchAll(ctx, lookups, p.fetcher.BriefBibs, &stats); err != nil {
		return err
	}

	flat, err := p.normalizeStored(ctx, bib.NormalizeBrief)
	if err != nil {
		return err
	}

	if err := dataset.WriteRecords(p.outputPath("textsearch", "records", "tsv"), flat, dataset.BriefColumns, searchMIDCol); err != nil {
		return err
	}

	notFound, err := p.store.NotFound()
	if err != nil {
		return err
	}
	if err := dataset.WriteNotFound(p.outputPath("textsearch", "notfound", "txt"), notFound); err != nil {
		return err
	}

	merged := reconcile.Merge(rows, flat, searchMIDCol, reconcile.SourceIDKey)
	merged = reconcile.WithRecord(merged)
	merged = reconcile.WithKnownDate(merged)
	merged = reconcile.Dedupe(merged)
	reconcile.ScoreTitles(merged, cleanedNameCol, builder.Clean)
	reconcile.Permalinks(merged, p.permalink())

	cols := append([]string{}, table.Columns...)
	cols = append(cols, searchMIDCol, cleanedNameCol)
	if err := dataset.WriteReconciled(p.outputPath("textsearch", "merged", "tsv"), merged, cols, dataset.BriefColumns, true); err != nil {
		return err
	}

	p.logStats(ctx, stats)
	return nil
}
