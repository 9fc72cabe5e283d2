package assembler

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/nao1215/wikibinder/internal/model"
)

// partialSuffix marks the output while it is being written.
const partialSuffix = ".partial"

// Input describes one assembly.
type Input struct {
	// CoverPath is an optional document placed before everything else.
	// It gets no outline entry.
	CoverPath string

	// Jobs are the exported documents in discovery order.
	Jobs []*model.ExportJob

	// OutputPath is where the bound document is written.
	OutputPath string
}

// Result describes the bound document.
type Result struct {
	TOC        []model.TOCEntry
	CoverPages int
	PageCounts []int
	TotalPages int
	OutputPath string
}

// Assembler binds exported documents into a single document with an
// outline.
type Assembler struct {
	container Container
	logger    *slog.Logger
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithContainer sets the document container. Defaults to a PDFContainer.
func WithContainer(c Container) Option {
	return func(a *Assembler) {
		a.container = c
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Assembler) {
		a.logger = logger
	}
}

// New creates an Assembler.
func New(opts ...Option) *Assembler {
	a := &Assembler{}
	for _, opt := range opts {
		opt(a)
	}
	if a.container == nil {
		a.container = NewPDFContainer()
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	return a
}

// Assemble binds the cover and every job's file into in.OutputPath.
//
// The document is written to a ".partial" sibling first and renamed into
// place only after the outline was applied and the page count verified,
// so a failure never leaves a new output file behind. Any unreadable
// input aborts with a *model.AssemblyError.
func (a *Assembler) Assemble(ctx context.Context, in Input) (*Result, error) {
	if in.OutputPath == "" {
		return nil, ErrEmptyOutputPath
	}
	if in.CoverPath == "" && len(in.Jobs) == 0 {
		return nil, ErrNothingToAssemble
	}

	res := &Result{OutputPath: in.OutputPath}
	inputs := make([]string, 0, len(in.Jobs)+1)

	if in.CoverPath != "" {
		pages, err := a.countPages(in.CoverPath)
		if err != nil {
			return nil, err
		}
		res.CoverPages = pages
		inputs = append(inputs, in.CoverPath)
	}

	nodes := make([]*model.TreeNode, 0, len(in.Jobs))
	res.PageCounts = make([]int, 0, len(in.Jobs))
	for _, job := range in.Jobs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pages, err := a.countPages(job.Path)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, job.Node)
		res.PageCounts = append(res.PageCounts, pages)
		inputs = append(inputs, job.Path)
	}

	toc, total, err := BuildTOC(res.CoverPages, nodes, res.PageCounts)
	if err != nil {
		return nil, &model.AssemblyError{Path: in.OutputPath, Err: err}
	}
	res.TOC = toc
	res.TotalPages = total

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	partial := in.OutputPath + partialSuffix
	if err := a.write(inputs, partial, toc, total); err != nil {
		_ = os.Remove(partial)
		return nil, err
	}
	if err := os.Rename(partial, in.OutputPath); err != nil {
		_ = os.Remove(partial)
		return nil, &model.AssemblyError{Path: in.OutputPath, Err: err}
	}

	a.logger.Info("document assembled",
		"path", in.OutputPath,
		"pages", total,
		"entries", len(toc),
	)
	return res, nil
}

// write merges inputs into path, applies the outline and checks the
// resulting page count.
func (a *Assembler) write(inputs []string, path string, toc []model.TOCEntry, total int) error {
	if err := a.container.Merge(inputs, path); err != nil {
		return &model.AssemblyError{Path: path, Err: err}
	}
	if err := a.container.ApplyOutline(path, BuildOutline(toc)); err != nil {
		return &model.AssemblyError{Path: path, Err: err}
	}

	got, err := a.container.PageCount(path)
	if err != nil {
		return &model.AssemblyError{Path: path, Err: err}
	}
	if got != total {
		return &model.AssemblyError{
			Path: path,
			Err:  fmt.Errorf("%w: got %d pages, want %d", ErrPageCountMismatch, got, total),
		}
	}
	return nil
}

func (a *Assembler) countPages(path string) (int, error) {
	pages, err := a.container.PageCount(path)
	if err != nil {
		return 0, &model.AssemblyError{Path: path, Err: err}
	}
	if pages < 1 {
		return 0, &model.AssemblyError{Path: path, Err: ErrInvalidPageCount}
	}
	a.logger.Debug("pages counted", "path", path, "pages", pages)
	return pages, nil
}
