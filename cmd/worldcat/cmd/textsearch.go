package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/MarkBruyneel/WorldCat/internal/dataset"
	"github.com/MarkBruyneel/WorldCat/internal/pipeline"
	"github.com/MarkBruyneel/WorldCat/internal/worldcat"
)

var textsearchInput string

// textsearchCmd represents the textsearch command.
var textsearchCmd = &cobra.Command{
	Use:   "textsearch",
	Short: "Search rows without an ISBN by filename keywords",
	Long: `Reduce the filename of every row without an ISBN to a keyword query,
search the brief-bib endpoint, and reconcile the results back by material
id. Filenames that clean down to fewer than three or more than ten
keywords are skipped. Matched titles get an advisory similarity score
against the cleaned filename.

Previous responses in the working directory are archived into a dated
tbackup_<date> subdirectory before the run starts.

Example:
  worldcat textsearch --input scans.tsv`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		opts := []worldcat.Option{worldcat.WithOpenAccess()}
		return runMode(cmd, textsearchInput, worldcat.ScopeBriefBib, opts,
			func(ctx context.Context, p *pipeline.Pipeline, table *dataset.Table) error {
				return p.TextSearch(ctx, table)
			})
	},
}

func init() {
	rootCmd.AddCommand(textsearchCmd)

	textsearchCmd.Flags().StringVar(&textsearchInput, "input", "", "tab-delimited input dataset (required)")
	_ = textsearchCmd.MarkFlagRequired("input")
}
