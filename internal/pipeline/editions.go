package pipeline

import (
	"context"
	"strconv"

	"github.com/MarkBruyneel/WorldCat/internal/dataset"
	"github.com/MarkBruyneel/WorldCat/pkg/bib"
	"github.com/MarkBruyneel/WorldCat/pkg/logging"
	"github.com/MarkBruyneel/WorldCat/pkg/reconcile"
)

// Editions runs the edition-detail mode: every catalog number in the input
// is looked up on the full-bib endpoint, fanned out per digital-access
// location, and reconciled back by catalog number. Rows whose Holding
// column is empty are dropped from the merged report.
func (p *Pipeline) Editions(ctx context.Context, table *dataset.Table) error {
	ctx = logging.WithMode(ctx, "editions")
	if err := table.Require("OCLC_nr", "Holding"); err != nil {
		return err
	}

	var stats Stats
	var rows []reconcile.Row
	var lookups []lookup
	seen := make(map[string]struct{})
	for _, row := range table.Rows {
		raw := trimFloatSuffix(row["OCLC_nr"])
		if raw == "" {
			continue
		}
		stats.Input++

		if _, err := strconv.ParseInt(raw, 10, 64); err != nil {
			stats.Rejected++
			logging.Ctx(logging.WithIdentifier(ctx, raw)).Info().Msg("invalid catalog number, skipped")
			continue
		}
		stats.Validated++

		row["OCLC_nr"] = raw
		rows = append(rows, row)

		if _, dup := seen[raw]; dup {
			continue
		}
		seen[raw] = struct{}{}
		lookups = append(lookups, lookup{ID: raw, Query: raw})
	}

	if moved, err := p.store.Archive("backup_", p.run.RunDate); err != nil {
		return err
	} else if moved > 0 {
		logging.Ctx(ctx).Info().Int("responses", moved).Msg("archived previous run")
	}

	if err := p.fetchAll(ctx, lookups, p.fetcher.Bibs, &stats); err != nil {
		return err
	}

	flat, err := p.normalizeStored(ctx, bib.NormalizeFull)
	if err != nil {
		return err
	}

	if err := dataset.WriteRecords(p.outputPath("editions", "records", "tsv"), flat, dataset.FullColumns, ""); err != nil {
		return err
	}

	notFound, err := p.store.NotFound()
	if err != nil {
		return err
	}
	if err := dataset.WriteNotFound(p.outputPath("editions", "notfound", "txt"), notFound); err != nil {
		return err
	}

	merged := reconcile.Merge(rows, flat, "OCLC_nr", reconcile.OCLCKey)
	merged = reconcile.WithSourceField(merged, "Holding")
	merged = reconcile.Dedupe(merged)
	reconcile.Permalinks(merged, p.permalink())

	if err := dataset.WriteReconciled(p.outputPath("editions", "merged", "tsv"), merged, table.Columns, dataset.FullColumns, false); err != nil {
		return err
	}

	p.logStats(ctx, stats)
	return nil
}
