package exporter

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/wikibinder/internal/backoff"
	"github.com/nao1215/wikibinder/internal/lark"
	"github.com/nao1215/wikibinder/internal/model"
)

// Defaults for Exporter.
const (
	DefaultConcurrency  = 8
	DefaultPollInterval = 1 * time.Second
	DefaultPollTimeout  = 10 * time.Minute
)

// Client is the subset of the Lark API used to export documents.
// *lark.Client satisfies it.
type Client interface {
	SubmitExport(ctx context.Context, objToken string, objType model.ObjectType) (string, error)
	PollExport(ctx context.Context, ticket, objToken string) (*lark.ExportResult, error)
	DownloadExport(ctx context.Context, fileToken string, w io.Writer) (int64, error)
}

// Exporter turns wiki nodes into local PDF files.
type Exporter struct {
	client Client

	// workDir receives one file per node, named by its index.
	workDir string

	// policy guards every remote call.
	policy backoff.Policy

	// concurrency is the number of nodes exported at the same time.
	concurrency int

	// pollInterval is the wait between status queries of a pending job.
	pollInterval time.Duration

	// pollTimeout bounds how long a single job may stay pending.
	pollTimeout time.Duration

	logger *slog.Logger
	now    func() time.Time
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithPolicy sets the retry policy for remote calls.
func WithPolicy(p backoff.Policy) Option {
	return func(e *Exporter) {
		e.policy = p
	}
}

// WithConcurrency sets how many nodes are exported at the same time.
func WithConcurrency(n int) Option {
	return func(e *Exporter) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// WithPollInterval sets the wait between status queries. Zero polls
// without waiting.
func WithPollInterval(d time.Duration) Option {
	return func(e *Exporter) {
		if d >= 0 {
			e.pollInterval = d
		}
	}
}

// WithPollTimeout bounds the time a job may stay pending.
func WithPollTimeout(d time.Duration) Option {
	return func(e *Exporter) {
		if d > 0 {
			e.pollTimeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Exporter) {
		e.logger = logger
	}
}

// New creates an Exporter writing into workDir.
func New(client Client, workDir string, opts ...Option) *Exporter {
	e := &Exporter{
		client:       client,
		workDir:      workDir,
		policy:       backoff.DefaultPolicy(),
		concurrency:  DefaultConcurrency,
		pollInterval: DefaultPollInterval,
		pollTimeout:  DefaultPollTimeout,
		now:          time.Now,
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.policy.Logger == nil {
		e.policy = e.policy.WithLogger(e.logger)
	}

	return e
}

// Export exports every node and returns one job per node, in the same
// order as nodes. The file of nodes[i] is written to {workDir}/{i}.pdf.
//
// Nodes are processed concurrently; for each node submit, poll and
// download run strictly in sequence. The first failure cancels all other
// work and is returned.
func (e *Exporter) Export(ctx context.Context, nodes []*model.TreeNode) ([]*model.ExportJob, error) {
	jobs := make([]*model.ExportJob, len(nodes))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	for i, node := range nodes {
		g.Go(func() error {
			job, err := e.exportNode(gctx, i, node)
			if err != nil {
				return err
			}
			jobs[i] = job
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	e.logger.Info("export completed", "documents", len(jobs))
	return jobs, nil
}

// exportNode runs the three stages for a single node.
func (e *Exporter) exportNode(ctx context.Context, index int, node *model.TreeNode) (*model.ExportJob, error) {
	job := &model.ExportJob{Node: node, Index: index}
	log := e.logger.With("title", node.Title, "index", index)

	ticket, err := e.submit(ctx, node)
	if err != nil {
		return nil, err
	}
	job.Ticket = ticket
	log.Debug("export submitted", "ticket", ticket)

	result, err := e.poll(ctx, node, ticket)
	if err != nil {
		return nil, err
	}
	job.Result = result

	job.Path = filepath.Join(e.workDir, model.FileName(index))
	size, err := e.download(ctx, node, result.FileToken, job.Path)
	if err != nil {
		return nil, err
	}
	job.Size = size

	log.Info("document exported", "bytes", size)
	return job, nil
}

func (e *Exporter) submit(ctx context.Context, node *model.TreeNode) (string, error) {
	op := fmt.Sprintf("submit export of %q", node.Title)
	return backoff.Do(ctx, e.policy, op, func(ctx context.Context) (string, error) {
		return e.client.SubmitExport(ctx, node.ObjToken, node.ObjType)
	})
}

// poll queries the job until it succeeds or fails. Pending responses wait
// pollInterval; query errors go through the backoff policy.
func (e *Exporter) poll(ctx context.Context, node *model.TreeNode, ticket string) (model.JobResult, error) {
	op := fmt.Sprintf("poll export of %q", node.Title)
	deadline := e.now().Add(e.pollTimeout)

	for {
		res, err := backoff.Do(ctx, e.policy, op, func(ctx context.Context) (*lark.ExportResult, error) {
			return e.client.PollExport(ctx, ticket, node.ObjToken)
		})
		if err != nil {
			return model.JobResult{}, err
		}

		result := res.JobResult()
		switch result.State {
		case model.JobSucceeded:
			if result.FileToken == "" {
				return model.JobResult{}, &model.JobFailureError{
					Title:  node.Title,
					Ticket: ticket,
					Status: res.JobStatus,
					Msg:    ErrMissingFileToken.Error(),
				}
			}
			return result, nil
		case model.JobFailed:
			return model.JobResult{}, &model.JobFailureError{
				Title:  node.Title,
				Ticket: ticket,
				Status: result.Code,
				Msg:    result.Message,
			}
		case model.JobPending:
			if !e.now().Before(deadline) {
				return model.JobResult{}, fmt.Errorf("%w: %q after %s", ErrPollTimeout, node.Title, e.pollTimeout)
			}
			if err := wait(ctx, e.pollInterval); err != nil {
				return model.JobResult{}, err
			}
		}
	}
}

// download writes the exported file to path. Each attempt recreates the
// file, so a failed partial download never leaks into the next attempt.
func (e *Exporter) download(ctx context.Context, node *model.TreeNode, fileToken, path string) (int64, error) {
	op := fmt.Sprintf("download export of %q", node.Title)
	return backoff.Do(ctx, e.policy, op, func(ctx context.Context) (int64, error) {
		f, err := os.Create(path) //nolint:gosec // path is built from the work dir and an index
		if err != nil {
			return 0, model.Permanent(fmt.Errorf("create %s: %w", path, err))
		}

		n, err := e.client.DownloadExport(ctx, fileToken, f)
		if cerr := f.Close(); err == nil && cerr != nil {
			err = model.Permanent(fmt.Errorf("close %s: %w", path, cerr))
		}
		if err != nil {
			return 0, err
		}
		if n == 0 {
			return 0, &model.APIError{Op: op, Msg: ErrEmptyDownload.Error()}
		}
		return n, nil
	})
}

// wait sleeps for d or until ctx is done.
func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
