package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"flowdown/clients"
	ferrors "flowdown/errors"
	"flowdown/processor"
)

const (
	modePublic = "public"
	modeAPI    = "api"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "flowdown <folder-id>",
		Short: "Mirror a Google Drive folder tree into a local directory",
		Long: `flowdown walks a Google Drive folder and its sub-folders and exports
every document as Markdown, every spreadsheet as JSON and every other
file as-is into a local directory.

In public mode the folders' shared web pages are read without
credentials. In api mode the Drive API is used with a credentials
file, an API key or application default credentials.`,
		Args: cobra.ExactArgs(1),
		Run:  process,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.flowdown.yaml)")

	rootCmd.Flags().StringP("dir", "d", "flowdown", "Output directory")
	rootCmd.Flags().StringP("folder", "f", "", "Only export this sub-folder, relative to the output directory")
	rootCmd.Flags().StringP("mode", "m", modePublic, "Discovery mode: public or api")
	rootCmd.Flags().String("credentials", "", "Service account or OAuth credentials JSON file (api mode)")
	rootCmd.Flags().String("api-key", "", "Google API key (api mode)")
	rootCmd.Flags().StringSliceP("include", "i", nil, "Only export paths matching these globs")
	rootCmd.Flags().StringSliceP("exclude", "x", nil, "Never export paths matching these globs")
	rootCmd.Flags().IntP("concurrency", "c", processor.DefaultConcurrency, "Maximum concurrent remote requests")
	rootCmd.Flags().Bool("skip-errors", false, "Skip unreachable sub-folders instead of aborting (public mode)")
	rootCmd.Flags().Bool("dry-run", false, "List what would be exported without writing anything")
	rootCmd.Flags().BoolP("verbose", "v", false, "Enable debug logging")

	for _, name := range []string{
		"dir", "folder", "mode", "credentials", "api-key", "include", "exclude",
		"concurrency", "skip-errors", "dry-run", "verbose",
	} {
		cobra.CheckErr(viper.BindPFlag(name, rootCmd.Flags().Lookup(name)))
	}

	viper.SetEnvPrefix("FLOWDOWN")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.AddConfigPath(filepath.Join(xdg.ConfigHome, "flowdown"))
		viper.SetConfigType("yaml")
		viper.SetConfigName(".flowdown")
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if viper.GetBool("verbose") {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func validation() (*processor.Matcher, error) {
	switch viper.GetString("mode") {
	case modePublic, modeAPI:
	default:
		return nil, ferrors.NewConfigError(fmt.Sprintf("unknown mode %q, want %s or %s", viper.GetString("mode"), modePublic, modeAPI), nil)
	}
	if viper.GetInt("concurrency") < 1 {
		return nil, ferrors.NewConfigError("concurrency must be at least 1", nil)
	}
	if viper.GetString("dir") == "" {
		return nil, ferrors.NewConfigError("output directory is required", nil)
	}
	return processor.NewMatcher(viper.GetStringSlice("include"), viper.GetStringSlice("exclude"))
}

func process(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	folderID := args[0]
	logger := newLogger()

	matcher, err := validation()
	if err != nil {
		fail(logger, folderID, err)
	}

	opts := []processor.Option{
		processor.WithLogger(logger),
		processor.WithConcurrency(viper.GetInt("concurrency")),
		processor.WithSkipErrors(viper.GetBool("skip-errors")),
	}
	cfg := processor.Config{
		Folder:  viper.GetString("folder"),
		Matcher: matcher,
		DryRun:  viper.GetBool("dry-run"),
	}
	deps := &processor.Dependencies{
		FS:     osfs.New(viper.GetString("dir")),
		Logger: logger,
	}

	var stats *processor.ExportStats
	switch viper.GetString("mode") {
	case modeAPI:
		stats, err = exportWithAPI(ctx, folderID, deps, cfg, opts)
	default:
		stats, err = exportPublic(ctx, folderID, deps, cfg, opts)
	}
	if err != nil {
		fail(logger, folderID, err)
	}
	if stats.Errors > 0 {
		logger.Warn("Some items could not be exported", "errors", stats.Errors)
	}
}

func exportWithAPI(
	ctx context.Context,
	folderID string,
	deps *processor.Dependencies,
	cfg processor.Config,
	opts []processor.Option,
) (*processor.ExportStats, error) {
	clientOpts, err := clients.ClientOptions(ctx, viper.GetString("credentials"), viper.GetString("api-key"))
	if err != nil {
		return nil, err
	}
	driveClient, err := clients.NewDriveClient(ctx, clientOpts...)
	if err != nil {
		return nil, err
	}

	items, err := processor.NewWalker(driveClient, opts...).Walk(ctx, folderID, "")
	if err != nil {
		return nil, err
	}

	deps.Exporter = driveClient
	return processor.NewProcessor(deps, cfg).ExportItems(ctx, items)
}

func exportPublic(
	ctx context.Context,
	folderID string,
	deps *processor.Dependencies,
	cfg processor.Config,
	opts []processor.Option,
) (*processor.ExportStats, error) {
	publicClient := clients.NewPublicClient("", "")

	folders, err := processor.NewScraper(publicClient, opts...).Walk(ctx, folderID, "", true)
	if err != nil {
		return nil, err
	}

	deps.Exporter = publicClient
	return processor.NewProcessor(deps, cfg).ExportFolders(ctx, folders)
}

// fail reports a fatal error against the folder that caused it and exits
func fail(logger *slog.Logger, folderID string, err error) {
	var fetchErr *ferrors.ScrapeFetchError
	if errors.As(err, &fetchErr) {
		folderID = fetchErr.FolderID
	}
	var titleErr *ferrors.TitleNotFoundError
	if errors.As(err, &titleErr) {
		folderID = titleErr.FolderID
	}

	attrs := []any{"folder", folderID, "error", err}
	if status := ferrors.StatusCode(err); status != 0 {
		attrs = append(attrs, "status", status)
	}
	logger.Error("❌ Export failed", attrs...)
	os.Exit(1)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
