// Package cmd implements the worldcat CLI commands.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MarkBruyneel/WorldCat/internal/appcontext"
	"github.com/MarkBruyneel/WorldCat/internal/config"
	"github.com/MarkBruyneel/WorldCat/internal/dataset"
	"github.com/MarkBruyneel/WorldCat/internal/pipeline"
	"github.com/MarkBruyneel/WorldCat/internal/transport"
	"github.com/MarkBruyneel/WorldCat/internal/worldcat"
	"github.com/MarkBruyneel/WorldCat/pkg/errors"
	"github.com/MarkBruyneel/WorldCat/pkg/logging"
)

var (
	configFile string
	verbose    bool
	quiet      bool

	// Version information set by main.
	Version = "dev"
	// Commit is the git commit hash.
	Commit = "unknown"
	// Date is the build date.
	Date = "unknown"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "worldcat",
	Short: "Reconcile local bibliographic lists against the WorldCat catalog",
	Long: `Worldcat looks up identifiers from a tab-delimited input dataset in the
WorldCat Discovery API, stores every raw response for replay, and writes
reconciled reports joining the fetched records back onto the input rows.

Each run mode selects its own candidate rows: publishers searches by ISBN
for rows missing a publisher, textsearch builds keyword queries from
filenames for rows without an ISBN, and editions fetches full records for
a list of catalog numbers.`,
}

// Execute runs the root command with signal-aware cancellation.
func Execute(version, commit, date string) {
	Version = version
	Commit = commit
	Date = date
	rootCmd.Version = version

	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logging.Err(err).Msg("run failed")
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is ./worldcat.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "only log warnings and errors")
	rootCmd.PersistentFlags().String("workdir", "", "raw-response working directory")
	rootCmd.PersistentFlags().String("output", "", "report output directory")

	for flag, key := range map[string]string{
		"workdir": "workdir",
		"output":  "output_dir",
	} {
		if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
			panic(fmt.Sprintf("Failed to bind %s flag: %v", flag, err))
		}
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("worldcat")
	}

	// .env before viper's env binding so both see the same environment.
	godotenv.Load() //nolint:errcheck // optional file

	viper.SetEnvPrefix("WORLDCAT")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}

	configureLogging()
}

// configureLogging sets the global log level from the flags and environment.
func configureLogging() {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	if quiet {
		level = zerolog.WarnLevel
	}
	if envLevel := os.Getenv("LOG_LEVEL"); envLevel != "" {
		if parsed, err := zerolog.ParseLevel(envLevel); err == nil {
			level = parsed
		}
	}
	zerolog.SetGlobalLevel(level)
}

// runMode wires the full stack for one run mode and executes it: config,
// OAuth2 client credentials for the endpoint's scope, the API client, the
// response store, and the pipeline over the loaded input dataset.
func runMode(cmd *cobra.Command, input, scope string, opts []worldcat.Option,
	run func(ctx context.Context, p *pipeline.Pipeline, table *dataset.Table) error) error {

	ctx := cmd.Context()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	table, err := dataset.ReadTSV(input)
	if err != nil {
		return err
	}

	store, err := worldcat.NewStore(cfg.WorkDir)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return errors.WrapIO("create", cfg.OutputDir, err)
	}

	auth := transport.ClientCredentials(ctx, cfg.Key, cfg.Secret, cfg.TokenURL, []string{scope})
	client := worldcat.New(auth, cfg.APIURL, opts...)

	appCtx := appcontext.New(cfg.WorkDir, cfg.OutputDir, logging.Default())
	p := pipeline.New(client, store, appCtx,
		pipeline.WithPermalinkPrefix(cfg.PermalinkPrefix))

	ctx = logging.WithLogger(ctx, appCtx.Logger)
	logging.Ctx(ctx).Info().
		Str("input", input).
		Int("rows", len(table.Rows)).
		Msg("dataset loaded")

	return run(ctx, p, table)
}
