package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nao1215/wikibinder/internal/assembler"
	"github.com/nao1215/wikibinder/internal/backoff"
	"github.com/nao1215/wikibinder/internal/lark"
	"github.com/nao1215/wikibinder/internal/model"
)

// fakeSpace is an in-memory wiki space. Every document exports to a file
// whose content is "pages:N".
type fakeSpace struct {
	children map[string][]lark.Node
	pages    map[string]int
	status   map[string]int
	listErr  error

	listCalls atomic.Int32
}

// sampleSpace is A (1 page) > A.1 (2 pages), B (3 pages).
func sampleSpace() *fakeSpace {
	doc := func(title string) lark.Node {
		return lark.Node{NodeToken: "wik_" + title, ObjToken: "doc_" + title, ObjType: "docx", Title: title}
	}
	return &fakeSpace{
		children: map[string][]lark.Node{
			"":      {doc("A"), doc("B")},
			"wik_A": {doc("A.1")},
		},
		pages:  map[string]int{"doc_A": 1, "doc_A.1": 2, "doc_B": 3},
		status: map[string]int{},
	}
}

func (f *fakeSpace) ListChildren(_ context.Context, _, parentToken, _ string) (*lark.NodePage, error) {
	f.listCalls.Add(1)
	if f.listErr != nil {
		return nil, f.listErr
	}
	return &lark.NodePage{Items: f.children[parentToken]}, nil
}

func (f *fakeSpace) SubmitExport(_ context.Context, objToken string, _ model.ObjectType) (string, error) {
	return "ticket_" + objToken, nil
}

func (f *fakeSpace) PollExport(_ context.Context, _, objToken string) (*lark.ExportResult, error) {
	status := f.status[objToken]
	if status != model.JobStatusSuccess {
		return &lark.ExportResult{JobStatus: status, JobErrorMsg: "docs not supported"}, nil
	}
	return &lark.ExportResult{JobStatus: status, FileToken: "file_" + objToken}, nil
}

func (f *fakeSpace) DownloadExport(_ context.Context, fileToken string, w io.Writer) (int64, error) {
	n, err := fmt.Fprintf(w, "pages:%d", f.pages[strings.TrimPrefix(fileToken, "file_")])
	return int64(n), err
}

// fileContainer reads and writes "pages:N" files.
type fileContainer struct {
	mu      sync.Mutex
	outline []*assembler.OutlineItem
}

func (c *fileContainer) PageCount(path string) (int, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	n, ok := strings.CutPrefix(string(b), "pages:")
	if !ok {
		return 0, errors.New("not a document")
	}
	return strconv.Atoi(n)
}

func (c *fileContainer) Merge(inputs []string, output string) error {
	total := 0
	for _, in := range inputs {
		n, err := c.PageCount(in)
		if err != nil {
			return err
		}
		total += n
	}
	return os.WriteFile(output, []byte(fmt.Sprintf("pages:%d", total)), 0o600)
}

func (c *fileContainer) ApplyOutline(_ string, outline []*assembler.OutlineItem) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outline = outline
	return nil
}

func testPolicy() backoff.Policy {
	return backoff.Policy{
		MaxAttempts: 3,
		Jitter:      func() time.Duration { return 0 },
		Sleep:       func(context.Context, time.Duration) error { return nil },
		Logger:      slog.New(slog.DiscardHandler),
	}
}

func testPipeline(space *fakeSpace, container assembler.Container) *Pipeline {
	return DefaultPipeline(space,
		[]Option{WithLogger(slog.New(slog.DiscardHandler))},
		WithPipelinePolicy(testPolicy()),
		WithPipelinePollInterval(0),
		WithPipelineContainer(container),
	)
}

func TestCrawlStep(t *testing.T) {
	t.Parallel()

	p := testPipeline(sampleSpace(), &fileContainer{})
	run := model.NewRun("space")

	step := p.steps[0]
	if step.Name() != "crawl" {
		t.Fatalf("first step = %q", step.Name())
	}
	if err := step.Do(context.Background(), run); err != nil {
		t.Fatalf("Do() error = %v", err)
	}

	var titles []string
	for _, n := range run.Nodes {
		titles = append(titles, n.Title)
	}
	if strings.Join(titles, ",") != "A,A.1,B" {
		t.Errorf("nodes = %v", titles)
	}
	if run.Tree == nil || run.Tree.Len() != 3 {
		t.Errorf("tree not recorded: %+v", run.Tree)
	}
}

func TestExportStep(t *testing.T) {
	t.Parallel()

	t.Run("requires work dir", func(t *testing.T) {
		t.Parallel()

		err := NewExportStep(sampleSpace()).Do(context.Background(), model.NewRun("space"))
		if !errors.Is(err, ErrMissingWorkDir) {
			t.Errorf("Do() error = %v, want ErrMissingWorkDir", err)
		}
	})

	t.Run("exports into work dir", func(t *testing.T) {
		t.Parallel()

		run := model.NewRun("space")
		run.WorkDir = t.TempDir()
		run.Nodes = []*model.TreeNode{
			model.NewTreeNode(nil, "B", "doc_B", model.ObjectTypeDocx, "wik_B"),
		}

		if err := NewExportStep(sampleSpace()).Do(context.Background(), run); err != nil {
			t.Fatalf("Do() error = %v", err)
		}
		if len(run.Jobs) != 1 {
			t.Fatalf("got %d jobs", len(run.Jobs))
		}
		b, err := os.ReadFile(run.Jobs[0].Path)
		if err != nil || string(b) != "pages:3" {
			t.Errorf("exported file = %q, %v", b, err)
		}
	})
}

func TestAssembleStep(t *testing.T) {
	t.Parallel()

	err := NewAssembleStep(assembler.New(assembler.WithContainer(&fileContainer{}))).Do(context.Background(), model.NewRun("space"))
	if !errors.Is(err, ErrMissingTarget) {
		t.Errorf("Do() error = %v, want ErrMissingTarget", err)
	}
}
