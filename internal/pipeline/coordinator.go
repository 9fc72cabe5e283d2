package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/nao1215/wikibinder/internal/model"
)

// Coordinator defaults.
const (
	DefaultOutputDir  = "out"
	DefaultOutputName = "guide.pdf"
)

// ErrCoverNotFound is returned when the configured cover cannot be read.
var ErrCoverNotFound = errors.New("cover document not found")

// Coordinator runs a pipeline inside a fresh working directory and removes
// the directory afterwards, whether the run succeeded or not.
type Coordinator struct {
	pipeline *Pipeline

	outputDir  string
	outputName string
	coverPath  string

	// tempRoot is the parent of the working directory; empty means
	// os.TempDir.
	tempRoot string

	logger *slog.Logger
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithOutputDir sets the directory receiving the output document.
func WithOutputDir(dir string) CoordinatorOption {
	return func(c *Coordinator) {
		if dir != "" {
			c.outputDir = dir
		}
	}
}

// WithOutputName sets the output document's file name.
func WithOutputName(name string) CoordinatorOption {
	return func(c *Coordinator) {
		if name != "" {
			c.outputName = name
		}
	}
}

// WithCoverPath prepends a cover document to the output.
func WithCoverPath(path string) CoordinatorOption {
	return func(c *Coordinator) {
		c.coverPath = path
	}
}

// WithTempRoot sets where the working directory is created.
func WithTempRoot(dir string) CoordinatorOption {
	return func(c *Coordinator) {
		c.tempRoot = dir
	}
}

// WithCoordinatorLogger sets the logger.
func WithCoordinatorLogger(logger *slog.Logger) CoordinatorOption {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

// NewCoordinator creates a Coordinator for p.
func NewCoordinator(p *Pipeline, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		pipeline:   p,
		outputDir:  DefaultOutputDir,
		outputName: DefaultOutputName,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = slog.Default()
	}

	return c
}

// OutputPath returns where the output document will be written.
func (c *Coordinator) OutputPath() string {
	return filepath.Join(c.outputDir, c.outputName)
}

// Run exports spaceID. The returned run is never nil; on failure its
// Error is set and no output document was written.
func (c *Coordinator) Run(ctx context.Context, spaceID string) (*model.Run, error) {
	run := model.NewRun(spaceID)
	run.CoverPath = c.coverPath
	run.Target = c.OutputPath()

	if err := c.execute(ctx, run); err != nil {
		if run.Error == nil {
			run.Error = err
			run.ErrorMessage = err.Error()
		}
		run.FinishedAt = time.Now()
		return run, err
	}

	run.FinishedAt = time.Now()
	c.logger.Info("run completed",
		"space_id", spaceID,
		"output", run.OutputPath,
		"pages", run.TotalPages,
		"duration", run.Duration(),
	)
	return run, nil
}

func (c *Coordinator) execute(ctx context.Context, run *model.Run) error {
	if c.coverPath != "" {
		if _, err := os.Stat(c.coverPath); err != nil {
			return fmt.Errorf("%w: %w", ErrCoverNotFound, err)
		}
	}

	if err := os.MkdirAll(c.outputDir, 0o750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	workDir, err := os.MkdirTemp(c.tempRoot, "wikibinder-*")
	if err != nil {
		return fmt.Errorf("failed to create working directory: %w", err)
	}
	run.WorkDir = workDir
	c.logger.Debug("working directory created", "path", workDir)

	defer func() {
		if err := os.RemoveAll(workDir); err != nil {
			c.logger.Warn("failed to remove working directory", "path", workDir, "error", err)
			return
		}
		c.logger.Debug("working directory removed", "path", workDir)
	}()

	return c.pipeline.Execute(ctx, run)
}
