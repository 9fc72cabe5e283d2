package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nao1215/wikibinder/internal/backoff"
	"github.com/nao1215/wikibinder/internal/config"
	"github.com/nao1215/wikibinder/internal/database"
	"github.com/nao1215/wikibinder/internal/lark"
	applog "github.com/nao1215/wikibinder/internal/log"
	"github.com/nao1215/wikibinder/internal/model"
	"github.com/nao1215/wikibinder/internal/pipeline"
	"github.com/nao1215/wikibinder/internal/report"
	"github.com/spf13/cobra"
)

// NewExportCmd creates the export command.
func NewExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a wiki space into a single PDF",
		Long: `Export walks the wiki space, exports every document to PDF and binds them
into one document. The bookmarks of the result mirror the wiki tree.

Settings are resolved in this order, later sources winning:
  1. built-in defaults
  2. the configuration file (.wikibinder, see 'wikibinder init')
  3. .env and .env.local in the current directory
  4. environment variables
  5. command line flags

A failed run never leaves a partial document behind. An existing document
at the output path is only replaced by a successful run.

Examples:
  # Export the default space into out/guide.pdf
  wikibinder export

  # Export another space with a cover page
  wikibinder export --space 7123456789012345678 --cover cover.pdf

  # Write a markdown manifest next to the document
  wikibinder export --manifest markdown

  # Route API traffic through a SOCKS5 proxy
  wikibinder export --proxy socks5://127.0.0.1:1080`,
		Args: cobra.NoArgs,
		RunE: runExportCmd,
	}

	cmd.Flags().StringP("space", "s", config.DefaultSpaceID, "Wiki space ID to export")
	cmd.Flags().String("cover", "", "Cover PDF placed before the first document")
	cmd.Flags().StringP("output-dir", "o", config.DefaultOutputDir, "Output directory")
	cmd.Flags().StringP("output-name", "n", config.DefaultOutputName, "Output file name")
	cmd.Flags().IntP("concurrency", "j", config.DefaultExportConcurrency, "Documents exported at the same time")
	cmd.Flags().Int("crawl-concurrency", config.DefaultCrawlConcurrency, "Listing calls in flight")
	cmd.Flags().Int("max-depth", 0, "Fail when the wiki tree is deeper than this (0 = unlimited)")
	cmd.Flags().Int("max-attempts", config.DefaultMaxAttempts, "Total attempts per remote call")
	cmd.Flags().Duration("poll-interval", config.DefaultPollInterval, "Wait between export status queries")
	cmd.Flags().Duration("poll-timeout", config.DefaultPollTimeout, "Give up on an export job pending this long")
	cmd.Flags().Duration("timeout", config.DefaultTimeout, "Timeout of a single HTTP request")
	cmd.Flags().Float64("rps", config.DefaultRequestsPerSecond, "Client-side request rate (negative = unlimited)")
	cmd.Flags().String("proxy", "", "Proxy URL for API traffic (socks5, socks5h, http, https)")
	cmd.Flags().String("base-url", config.DefaultBaseURL, "Open API origin")
	cmd.Flags().StringP("manifest", "m", config.DefaultManifest, "Run manifest format: none, text, markdown, json")
	cmd.Flags().Bool("no-history", false, "Do not record the run in the export history")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .wikibinder in current or home directory)")

	return cmd
}

func runExportCmd(cmd *cobra.Command, _ []string) error {
	if err := config.LoadEnvFiles(); err != nil {
		return fmt.Errorf("failed to load .env files: %w", err)
	}

	cfg, err := buildConfig(cmd, os.LookupEnv)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := applog.New(cmd.ErrOrStderr(), cfg.Verbose, cfg.LogJSON)
	slog.SetDefault(logger)

	// Cancelling the context still runs the working directory cleanup.
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_, err = runExport(ctx, cfg, logger, cmd.OutOrStdout())
	return err
}

// buildConfig resolves the configuration from defaults, the config file,
// the environment (through lookup) and the flags of cmd.
func buildConfig(cmd *cobra.Command, lookup func(string) (string, bool)) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error
	cfg.ConfigFilePath, err = flags.GetString("config")
	if err != nil {
		return nil, err
	}

	// An explicit config path must exist; a missing default file is fine.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		file, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		file.Apply(cfg)
	case cfg.ConfigFilePath != "":
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	if err := cfg.ApplyEnv(lookup); err != nil {
		return nil, err
	}

	stringFlags := map[string]*string{
		"space":       &cfg.SpaceID,
		"cover":       &cfg.CoverPath,
		"output-dir":  &cfg.OutputDir,
		"output-name": &cfg.OutputName,
		"proxy":       &cfg.ProxyURL,
		"base-url":    &cfg.BaseURL,
		"manifest":    &cfg.Manifest,
	}
	for name, dst := range stringFlags {
		if flags.Changed(name) {
			if *dst, err = flags.GetString(name); err != nil {
				return nil, err
			}
		}
	}

	intFlags := map[string]*int{
		"concurrency":       &cfg.ExportConcurrency,
		"crawl-concurrency": &cfg.CrawlConcurrency,
		"max-depth":         &cfg.MaxDepth,
		"max-attempts":      &cfg.MaxAttempts,
	}
	for name, dst := range intFlags {
		if flags.Changed(name) {
			if *dst, err = flags.GetInt(name); err != nil {
				return nil, err
			}
		}
	}

	durationFlags := map[string]*time.Duration{
		"poll-interval": &cfg.PollInterval,
		"poll-timeout":  &cfg.PollTimeout,
		"timeout":       &cfg.Timeout,
	}
	for name, dst := range durationFlags {
		if flags.Changed(name) {
			if *dst, err = flags.GetDuration(name); err != nil {
				return nil, err
			}
		}
	}

	if flags.Changed("rps") {
		if cfg.RequestsPerSecond, err = flags.GetFloat64("rps"); err != nil {
			return nil, err
		}
	}

	noHistory, err := flags.GetBool("no-history")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noHistory

	cfg.Verbose = getBoolFlag(cmd, "verbose")
	cfg.LogJSON = getBoolFlag(cmd, "log-json")

	return cfg, nil
}

// runExport performs one export run and its bookkeeping. extra options
// are appended to the pipeline configuration.
func runExport(ctx context.Context, cfg *config.Config, logger *slog.Logger, out io.Writer,
	extra ...pipeline.DefaultPipelineOption) (*model.Run, error) {
	httpClient, err := lark.NewHTTPClient(lark.TransportConfig{
		Timeout:   cfg.Timeout,
		ProxyURL:  cfg.ProxyURL,
		UserAgent: cfg.UserAgent,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	client, err := lark.NewClient(cfg.AppID, cfg.AppSecret,
		lark.WithBaseURL(cfg.BaseURL),
		lark.WithHTTPClient(httpClient),
		lark.WithRateLimit(cfg.RequestsPerSecond, cfg.Burst),
		lark.WithPageSize(cfg.PageSize),
		lark.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}

	policy := backoff.DefaultPolicy()
	policy.MaxAttempts = cfg.MaxAttempts
	policy.BaseDelay = cfg.BaseDelay
	policy.MaxDelay = cfg.MaxDelay

	opts := append([]pipeline.DefaultPipelineOption{
		pipeline.WithPipelinePolicy(policy.WithLogger(logger)),
		pipeline.WithPipelineCrawlConcurrency(cfg.CrawlConcurrency),
		pipeline.WithPipelineMaxDepth(cfg.MaxDepth),
		pipeline.WithPipelineExportConcurrency(cfg.ExportConcurrency),
		pipeline.WithPipelinePollInterval(cfg.PollInterval),
		pipeline.WithPipelinePollTimeout(cfg.PollTimeout),
	}, extra...)

	p := pipeline.DefaultPipeline(client, []pipeline.Option{pipeline.WithLogger(logger)}, opts...)
	coordinator := pipeline.NewCoordinator(p,
		pipeline.WithOutputDir(cfg.OutputDir),
		pipeline.WithOutputName(cfg.OutputName),
		pipeline.WithCoverPath(cfg.CoverPath),
		pipeline.WithCoordinatorLogger(logger),
	)

	logger.Info("starting export",
		"space_id", cfg.SpaceID,
		"output", coordinator.OutputPath(),
		"export_concurrency", cfg.ExportConcurrency,
	)

	run, err := coordinator.Run(ctx, cfg.SpaceID)
	if err != nil {
		return run, fmt.Errorf("export failed: %w", err)
	}

	fmt.Fprintf(out, "Wrote %s (%d documents, %d pages) in %s\n",
		run.OutputPath, len(run.Nodes), run.TotalPages, run.Duration().Round(time.Millisecond))

	if cfg.Manifest != config.ManifestNone {
		path, err := writeManifest(run, cfg.Manifest)
		if err != nil {
			return run, err
		}
		fmt.Fprintf(out, "Wrote manifest %s\n", path)
	}

	if cfg.SaveToDB {
		// The document is already in place; a history failure is not a failed export.
		if id, err := saveHistory(ctx, cfg.DBDir, run); err != nil {
			logger.Warn("failed to record run in history", "error", err)
		} else {
			fmt.Fprintf(out, "Recorded as run #%d (see 'wikibinder history')\n", id)
		}
	}

	return run, nil
}

// writeManifest writes the run manifest next to the output document.
func writeManifest(run *model.Run, format string) (path string, err error) {
	path = report.ManifestPath(run.OutputPath, format)

	f, err := os.Create(path) //nolint:gosec // path derives from the configured output
	if err != nil {
		return "", fmt.Errorf("failed to create manifest: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close manifest: %w", cerr)
		}
	}()

	w, err := report.NewWriter(format, f, getVersion())
	if err != nil {
		return "", err
	}
	if _, err := w.Write(run); err != nil {
		return "", fmt.Errorf("failed to write manifest: %w", err)
	}
	return path, nil
}

func saveHistory(ctx context.Context, dbDir string, run *model.Run) (int64, error) {
	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		return 0, err
	}
	defer db.Close()

	return db.SaveRun(ctx, run)
}
