package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/MarkBruyneel/WorldCat/internal/dataset"
	"github.com/MarkBruyneel/WorldCat/internal/pipeline"
	"github.com/MarkBruyneel/WorldCat/internal/worldcat"
)

var publishersInput string

// publishersCmd represents the publishers command.
var publishersCmd = &cobra.Command{
	Use:   "publishers",
	Short: "Fill in missing publishers by ISBN lookup",
	Long: `Look up every row of the input dataset that carries an ISBN but no
publisher on the brief-bib endpoint, and reconcile the fetched records
back onto the input rows.

Previous responses in the working directory are archived into a dated
backup_<date> subdirectory before the run starts.

Example:
  worldcat publishers --input acquisitions.tsv`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runMode(cmd, publishersInput, worldcat.ScopeBriefBib, nil,
			func(ctx context.Context, p *pipeline.Pipeline, table *dataset.Table) error {
				return p.Publishers(ctx, table)
			})
	},
}

func init() {
	rootCmd.AddCommand(publishersCmd)

	publishersCmd.Flags().StringVar(&publishersInput, "input", "", "tab-delimited input dataset (required)")
	_ = publishersCmd.MarkFlagRequired("input")
}
