// Package pipeline drives the three run modes end to end: select candidate
// rows from the input dataset, fetch catalog records one identifier at a
// time, normalize the stored responses, reconcile them against the input,
// and write the reports.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/MarkBruyneel/WorldCat/internal/appcontext"
	"github.com/MarkBruyneel/WorldCat/internal/worldcat"
	"github.com/MarkBruyneel/WorldCat/pkg/bib"
	"github.com/MarkBruyneel/WorldCat/pkg/logging"
)

// Fetcher is the catalog lookup surface the pipeline depends on.
// *worldcat.Client implements it.
type Fetcher interface {
	BriefBibs(ctx context.Context, query string) ([]byte, worldcat.FetchStatus, error)
	Bibs(ctx context.Context, query string) ([]byte, worldcat.FetchStatus, error)
}

// Stats counts identifier outcomes for one run.
type Stats struct {
	// Input is the number of candidate rows selected from the dataset.
	Input int

	// Validated and Rejected partition the candidate identifiers.
	Validated int
	Rejected  int

	// Found, NotFound, and Failed partition the validated identifiers by
	// lookup outcome. Failed means a transient error survived the retries.
	Found    int
	NotFound int
	Failed   int
}

// Pipeline holds the shared machinery of all run modes.
type Pipeline struct {
	fetcher Fetcher
	store   *worldcat.Store
	run     *appcontext.Context

	permalinkPrefix string
	maxRetries      int
	retryDelay      time.Duration
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithPermalinkPrefix overrides the catalog permalink prefix.
func WithPermalinkPrefix(prefix string) Option {
	return func(p *Pipeline) { p.permalinkPrefix = prefix }
}

// WithRetry sets the transient-error retry budget: up to max extra
// attempts, with the delay doubling after each.
func WithRetry(max int, delay time.Duration) Option {
	return func(p *Pipeline) {
		p.maxRetries = max
		p.retryDelay = delay
	}
}

// New creates a Pipeline over a fetcher and response store.
func New(fetcher Fetcher, store *worldcat.Store, run *appcontext.Context, opts ...Option) *Pipeline {
	p := &Pipeline{
		fetcher:    fetcher,
		store:      store,
		run:        run,
		maxRetries: 2,
		retryDelay: time.Second,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// lookup pairs a store identifier with the query that fetches it.
type lookup struct {
	ID    string
	Query string
}

type fetchFunc func(ctx context.Context, query string) ([]byte, worldcat.FetchStatus, error)

// fetchAll runs every lookup sequentially, persisting each response before
// moving to the next. An authentication failure aborts the whole run; a
// transient failure is retried, then counted and skipped.
func (p *Pipeline) fetchAll(ctx context.Context, lookups []lookup, fetch fetchFunc, stats *Stats) error {
	for _, l := range lookups {
		lctx := logging.WithQuery(logging.WithIdentifier(ctx, l.ID), l.Query)

		status, err := p.fetchOne(lctx, l.ID, l.Query, fetch)
		switch status {
		case worldcat.StatusOK:
			stats.Found++
			logging.Ctx(lctx).Debug().Msg("record fetched")
		case worldcat.StatusNotFound:
			stats.NotFound++
			logging.Ctx(lctx).Info().Msg("no record found")
		case worldcat.StatusAuth:
			logging.Ctx(lctx).Error().Err(err).Msg("authentication failed, aborting run")
			return err
		default:
			if ctx.Err() != nil {
				return ctx.Err()
			}
			stats.Failed++
			logging.Ctx(lctx).Warn().Err(err).Msg("lookup failed after retries")
		}
	}
	return nil
}

// fetchOne performs one lookup with the retry budget and persists the
// response body. A not-found outcome still writes its (small) body so the
// store's size threshold reports it.
func (p *Pipeline) fetchOne(ctx context.Context, id, query string, fetch fetchFunc) (worldcat.FetchStatus, error) {
	delay := p.retryDelay
	for attempt := 0; ; attempt++ {
		body, status, err := fetch(ctx, query)
		switch status {
		case worldcat.StatusOK, worldcat.StatusNotFound:
			if putErr := p.store.Put(id, body); putErr != nil {
				return worldcat.StatusTransient, putErr
			}
			// A zero-hit lookup comes back 200 with a bare envelope; the
			// store's size threshold is the single source of truth for it.
			if status == worldcat.StatusOK && len(body) < worldcat.MinResponseSize {
				return worldcat.StatusNotFound, nil
			}
			return status, nil
		case worldcat.StatusAuth:
			return status, err
		}

		if attempt >= p.maxRetries {
			return worldcat.StatusTransient, err
		}
		logging.Ctx(ctx).Warn().Err(err).Dur("retry_in", delay).Msg("transient error, retrying")
		select {
		case <-ctx.Done():
			return worldcat.StatusTransient, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
}

// normalizeStored parses every stored response that holds records.
func (p *Pipeline) normalizeStored(ctx context.Context, normalize func(raw []byte, sourceID string) ([]bib.FlatRecord, error)) ([]bib.FlatRecord, error) {
	ids, err := p.store.Found()
	if err != nil {
		return nil, err
	}

	var flat []bib.FlatRecord
	for _, id := range ids {
		raw, err := p.store.Get(id)
		if err != nil {
			return nil, err
		}
		recs, err := normalize(raw, id)
		if err != nil {
			logging.Ctx(logging.WithIdentifier(ctx, id)).Warn().Err(err).Msg("skipping malformed response")
			continue
		}
		flat = append(flat, recs...)
	}
	return flat, nil
}

// outputPath names a report file in the run's output directory.
func (p *Pipeline) outputPath(mode, kind, ext string) string {
	return filepath.Join(p.run.OutputDir, fmt.Sprintf("%s_%s_%s.%s", mode, kind, p.run.RunDate, ext))
}

// permalink returns the configured prefix, empty meaning the default.
func (p *Pipeline) permalink() string { return p.permalinkPrefix }

// trimFloatSuffix strips the ".0" tail spreadsheet exports leave on
// numeric identifier columns.
func trimFloatSuffix(s string) string {
	return strings.TrimSuffix(strings.TrimSpace(s), ".0")
}

// logStats writes the run summary.
func (p *Pipeline) logStats(ctx context.Context, stats Stats) {
	logging.Ctx(ctx).Info().
		Int("input", stats.Input).
		Int("validated", stats.Validated).
		Int("rejected", stats.Rejected).
		Int("found", stats.Found).
		Int("not_found", stats.NotFound).
		Int("failed", stats.Failed).
		Str("elapsed", p.run.Elapsed()).
		Msg("run complete")
}
