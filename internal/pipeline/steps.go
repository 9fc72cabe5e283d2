package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/nao1215/wikibinder/internal/assembler"
	"github.com/nao1215/wikibinder/internal/backoff"
	"github.com/nao1215/wikibinder/internal/crawler"
	"github.com/nao1215/wikibinder/internal/exporter"
	"github.com/nao1215/wikibinder/internal/model"
)

// ErrMissingWorkDir is returned by ExportStep when the run has no work dir.
var ErrMissingWorkDir = errors.New("run has no working directory")

// ErrMissingTarget is returned by AssembleStep when the run has no target.
var ErrMissingTarget = errors.New("run has no output target")

// CrawlStep discovers the wiki tree and flattens it into run.Nodes.
type CrawlStep struct {
	crawler *crawler.Crawler
	logger  *slog.Logger
}

// NewCrawlStep creates a crawl step.
func NewCrawlStep(c *crawler.Crawler, logger *slog.Logger) *CrawlStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &CrawlStep{crawler: c, logger: logger}
}

// Name returns the step name.
func (s *CrawlStep) Name() string {
	return "crawl"
}

// Do executes the crawl step.
func (s *CrawlStep) Do(ctx context.Context, run *model.Run) error {
	tree, err := s.crawler.Crawl(ctx, run.SpaceID)
	if err != nil {
		return err
	}
	run.Tree = tree
	run.Nodes = tree.Nodes()

	s.logger.Info("space crawled", "space_id", run.SpaceID, "nodes", len(run.Nodes))
	return nil
}

// ExportStep exports every discovered node into the run's work dir.
type ExportStep struct {
	client exporter.Client
	opts   []exporter.Option
}

// NewExportStep creates an export step. The exporter is created per run
// because the work dir is only known then.
func NewExportStep(client exporter.Client, opts ...exporter.Option) *ExportStep {
	return &ExportStep{client: client, opts: opts}
}

// Name returns the step name.
func (s *ExportStep) Name() string {
	return "export"
}

// Do executes the export step.
func (s *ExportStep) Do(ctx context.Context, run *model.Run) error {
	if run.WorkDir == "" {
		return ErrMissingWorkDir
	}
	jobs, err := exporter.New(s.client, run.WorkDir, s.opts...).Export(ctx, run.Nodes)
	if err != nil {
		return err
	}
	run.Jobs = jobs
	return nil
}

// AssembleStep binds the exported files into run.Target.
type AssembleStep struct {
	assembler *assembler.Assembler
}

// NewAssembleStep creates an assemble step.
func NewAssembleStep(a *assembler.Assembler) *AssembleStep {
	return &AssembleStep{assembler: a}
}

// Name returns the step name.
func (s *AssembleStep) Name() string {
	return "assemble"
}

// Do executes the assemble step.
func (s *AssembleStep) Do(ctx context.Context, run *model.Run) error {
	if run.Target == "" {
		return ErrMissingTarget
	}

	res, err := s.assembler.Assemble(ctx, assembler.Input{
		CoverPath:  run.CoverPath,
		Jobs:       run.Jobs,
		OutputPath: run.Target,
	})
	if err != nil {
		return err
	}

	run.CoverPages = res.CoverPages
	run.TOC = res.TOC
	run.TotalPages = res.TotalPages
	run.OutputPath = res.OutputPath
	return nil
}

// RemoteClient is everything the default pipeline needs from the API.
// *lark.Client satisfies it.
type RemoteClient interface {
	crawler.Lister
	exporter.Client
}

// DefaultPipelineConfig holds configuration for the default pipeline.
type DefaultPipelineConfig struct {
	// Policy guards every remote call.
	Policy backoff.Policy

	// CrawlConcurrency caps the listing calls in flight.
	CrawlConcurrency int

	// MaxDepth fails the crawl for deeper spaces. 0 means unlimited.
	MaxDepth int

	// ExportConcurrency is the number of nodes exported at the same time.
	ExportConcurrency int

	// PollInterval is the wait between status queries of a pending job.
	PollInterval time.Duration

	// PollTimeout bounds how long a job may stay pending.
	PollTimeout time.Duration

	// Container does the PDF work. Nil selects assembler.PDFContainer.
	Container assembler.Container
}

// DefaultPipelineOption configures a DefaultPipelineConfig.
type DefaultPipelineOption func(*DefaultPipelineConfig)

// WithPipelinePolicy sets the retry policy.
func WithPipelinePolicy(p backoff.Policy) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Policy = p
	}
}

// WithPipelineCrawlConcurrency sets the listing concurrency.
func WithPipelineCrawlConcurrency(n int) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.CrawlConcurrency = n
	}
}

// WithPipelineMaxDepth sets the maximum tree depth.
func WithPipelineMaxDepth(depth int) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.MaxDepth = depth
	}
}

// WithPipelineExportConcurrency sets the export concurrency.
func WithPipelineExportConcurrency(n int) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.ExportConcurrency = n
	}
}

// WithPipelinePollInterval sets the wait between status queries.
func WithPipelinePollInterval(d time.Duration) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.PollInterval = d
	}
}

// WithPipelinePollTimeout sets the poll timeout.
func WithPipelinePollTimeout(d time.Duration) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.PollTimeout = d
	}
}

// WithPipelineContainer sets the document container.
func WithPipelineContainer(container assembler.Container) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Container = container
	}
}

// DefaultPipeline creates the crawl, export and assemble pipeline.
//
// The first variadic parameter accepts pipeline options (WithLogger, etc).
// The second accepts step options (WithPipelinePolicy, etc).
func DefaultPipeline(client RemoteClient, pipelineOpts []Option, configOpts ...DefaultPipelineOption) *Pipeline {
	p := New(pipelineOpts...)

	cfg := &DefaultPipelineConfig{
		Policy:            backoff.DefaultPolicy(),
		CrawlConcurrency:  crawler.DefaultMaxConcurrency,
		ExportConcurrency: exporter.DefaultConcurrency,
		PollInterval:      exporter.DefaultPollInterval,
		PollTimeout:       exporter.DefaultPollTimeout,
	}
	for _, opt := range configOpts {
		opt(cfg)
	}

	policy := cfg.Policy
	if policy.Logger == nil {
		policy = policy.WithLogger(p.logger)
	}

	c := crawler.New(client,
		crawler.WithPolicy(policy),
		crawler.WithMaxConcurrency(cfg.CrawlConcurrency),
		crawler.WithMaxDepth(cfg.MaxDepth),
		crawler.WithLogger(p.logger),
	)

	asmOpts := []assembler.Option{assembler.WithLogger(p.logger)}
	if cfg.Container != nil {
		asmOpts = append(asmOpts, assembler.WithContainer(cfg.Container))
	}

	p.AddSteps(
		NewCrawlStep(c, p.logger),
		NewExportStep(client,
			exporter.WithPolicy(policy),
			exporter.WithConcurrency(cfg.ExportConcurrency),
			exporter.WithPollInterval(cfg.PollInterval),
			exporter.WithPollTimeout(cfg.PollTimeout),
			exporter.WithLogger(p.logger),
		),
		NewAssembleStep(assembler.New(asmOpts...)),
	)

	return p
}
