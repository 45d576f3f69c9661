// Package appcontext carries per-run state — run date, start time, logger,
// and directory layout — created once by the orchestrator and passed
// explicitly to each component.
package appcontext

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/MarkBruyneel/WorldCat/pkg/logging"
)

// Context is the per-run context.
type Context struct {
	// RunDate names backup directories and report files (YYYY-MM-DD).
	RunDate string

	// Started is when the run began.
	Started time.Time

	// WorkDir holds raw responses and their dated backups.
	WorkDir string

	// OutputDir holds the generated reports.
	OutputDir string

	// Logger is the run's logger.
	Logger *zerolog.Logger
}

// New creates a run context starting now.
func New(workDir, outputDir string, logger *zerolog.Logger) *Context {
	if logger == nil {
		logger = logging.Default()
	}
	now := time.Now()
	return &Context{
		RunDate:   now.Format("2006-01-02"),
		Started:   now,
		WorkDir:   workDir,
		OutputDir: outputDir,
		Logger:    logger,
	}
}

// Elapsed renders the run duration in the unit that reads best: seconds
// under a minute, minutes under an hour, hours beyond.
func (c *Context) Elapsed() string {
	d := time.Since(c.Started)
	switch {
	case d > time.Hour:
		return fmt.Sprintf("%.2f hours", d.Hours())
	case d > time.Minute:
		return fmt.Sprintf("%.2f minutes", d.Minutes())
	default:
		return fmt.Sprintf("%.2f seconds", d.Seconds())
	}
}
