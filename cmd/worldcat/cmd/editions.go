package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/MarkBruyneel/WorldCat/internal/dataset"
	"github.com/MarkBruyneel/WorldCat/internal/pipeline"
	"github.com/MarkBruyneel/WorldCat/internal/worldcat"
)

var editionsInput string

// editionsCmd represents the editions command.
var editionsCmd = &cobra.Command{
	Use:   "editions",
	Short: "Fetch full edition records for a catalog-number list",
	Long: `Look up every catalog number in the input dataset on the full-bib
endpoint and reconcile the records back by catalog number. An edition
with several digital-access locations produces one output row per
location. Input rows with an empty Holding column are dropped from the
merged report.

Example:
  worldcat editions --input holdings.tsv`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		opts := []worldcat.Option{worldcat.WithOpenAccess()}
		return runMode(cmd, editionsInput, worldcat.ScopeFullBib, opts,
			func(ctx context.Context, p *pipeline.Pipeline, table *dataset.Table) error {
				return p.Editions(ctx, table)
			})
	},
}

func init() {
	rootCmd.AddCommand(editionsCmd)

	editionsCmd.Flags().StringVar(&editionsInput, "input", "", "tab-delimited input dataset (required)")
	_ = editionsCmd.MarkFlagRequired("input")
}
