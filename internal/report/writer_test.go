package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/nao1215/wikibinder/internal/model"
)

// createTestRun creates a successful run over A, A.1 and B.
func createTestRun() *model.Run {
	tree := model.NewTree("space-1")
	a := model.NewTreeNode(tree.Root, "A", "doc-a", model.ObjectTypeDocx, "wik-a")
	a1 := model.NewTreeNode(a, "A.1", "doc-a1", model.ObjectTypeSheet, "wik-a1")
	b := model.NewTreeNode(tree.Root, "B", "doc-b", model.ObjectTypeDocx, "wik-b")
	a.Children = []*model.TreeNode{a1}
	tree.Root.Children = []*model.TreeNode{a, b}

	run := model.NewRun("space-1")
	run.StartedAt = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	run.FinishedAt = run.StartedAt.Add(1500 * time.Millisecond)
	run.Tree = tree
	run.Nodes = tree.Nodes()
	for i, n := range run.Nodes {
		run.Jobs = append(run.Jobs, &model.ExportJob{Node: n, Index: i, Size: int64(100 * (i + 1))})
	}
	run.CoverPages = 1
	run.TOC = []model.TOCEntry{
		{Level: 1, Title: "A", Page: 2},
		{Level: 2, Title: "A.1", Page: 3},
		{Level: 1, Title: "B", Page: 5},
	}
	run.TotalPages = 7
	run.OutputPath = filepath.Join("out", "guide.pdf")
	run.PerformedSteps = []string{"crawl", "export", "assemble"}
	return run
}

func createFailedRun() *model.Run {
	run := model.NewRun("space-1")
	run.FinishedAt = run.StartedAt.Add(time.Second)
	run.Error = errors.New("export failed")
	run.ErrorMessage = run.Error.Error()
	return run
}

// TestNewManifest tests the format-independent summary.
func TestNewManifest(t *testing.T) {
	t.Parallel()

	t.Run("successful run", func(t *testing.T) {
		t.Parallel()

		m := NewManifest(createTestRun(), "v1.0.0")

		if m.Status != StatusComplete {
			t.Errorf("expected complete status, got %s", m.Status)
		}
		if m.Duration != 1500*time.Millisecond {
			t.Errorf("expected 1.5s duration, got %v", m.Duration)
		}
		if m.TotalBytes != 600 {
			t.Errorf("expected 600 bytes, got %d", m.TotalBytes)
		}

		want := []Document{
			{Index: 0, Title: "A", Level: 1, ObjType: model.ObjectTypeDocx, Token: "doc-a", Page: 2, Bytes: 100},
			{Index: 1, Title: "A.1", Level: 2, ObjType: model.ObjectTypeSheet, Token: "doc-a1", Page: 3, Bytes: 200},
			{Index: 2, Title: "B", Level: 1, ObjType: model.ObjectTypeDocx, Token: "doc-b", Page: 5, Bytes: 300},
		}
		if diff := cmp.Diff(want, m.Documents); diff != "" {
			t.Errorf("documents mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("failed run", func(t *testing.T) {
		t.Parallel()

		m := NewManifest(createFailedRun(), "")
		if m.Status != StatusFailed {
			t.Errorf("expected failed status, got %s", m.Status)
		}
		if m.Error != "export failed" {
			t.Errorf("expected error message, got %q", m.Error)
		}
		if len(m.Documents) != 0 {
			t.Errorf("expected no documents, got %d", len(m.Documents))
		}
	})

	t.Run("type counts keep first appearance order", func(t *testing.T) {
		t.Parallel()

		order, counts := NewManifest(createTestRun(), "").TypeCounts()
		if diff := cmp.Diff([]model.ObjectType{model.ObjectTypeDocx, model.ObjectTypeSheet}, order); diff != "" {
			t.Errorf("order mismatch (-want +got):\n%s", diff)
		}
		if counts[model.ObjectTypeDocx] != 2 || counts[model.ObjectTypeSheet] != 1 {
			t.Errorf("unexpected counts: %v", counts)
		}
	})
}

// TestSimpleWriter tests the human-readable manifest writer.
func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("successful run", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		n, err := NewSimpleWriter(&buf, "v1.0.0").Write(createTestRun())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != buf.Len() {
			t.Errorf("expected %d bytes reported, got %d", buf.Len(), n)
		}

		output := buf.String()
		for _, want := range []string{
			"WIKIBINDER RUN MANIFEST",
			"Space:       space-1",
			"Duration:    1.5s",
			"Status:      Complete",
			"Total pages: 7",
			"Cover pages: 1",
			"  A [docx] p.2\n",
			"    A.1 [sheet] p.3\n",
			"wikibinder v1.0.0",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q, got:\n%s", want, output)
			}
		}
	})

	t.Run("failed run", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf, "").Write(createFailedRun()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		if !strings.Contains(output, "FAILED - export failed") {
			t.Errorf("expected failure status, got:\n%s", output)
		}
		if !strings.Contains(output, "No documents") {
			t.Errorf("expected empty contents, got:\n%s", output)
		}
	})
}

// TestJSONWriter tests the JSON manifest writer.
func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("compact output is one line", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, "v1").Write(createTestRun()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Count(buf.String(), "\n") != 1 {
			t.Errorf("expected a single line, got:\n%s", buf.String())
		}
	})

	t.Run("decodes back into a manifest", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, "v1", WithPrettyPrint()).Write(createTestRun()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var got Manifest
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		want := NewManifest(createTestRun(), "v1")
		if diff := cmp.Diff(want, &got); diff != "" {
			t.Errorf("manifest mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("custom indent", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, "", WithIndent("", "\t")).Write(createTestRun()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "\n\t\"space_id\"") {
			t.Errorf("expected tab indentation, got:\n%s", buf.String())
		}
	})
}

// TestMarkdownWriter tests the markdown manifest writer.
func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("successful run", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf, "v1.0.0").Write(createTestRun()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{
			"# wikibinder Run Manifest",
			"`space-1`",
			"[!TIP]",
			"## Document Types",
			"```mermaid",
			"pie",
			"## Contents",
			"&nbsp;&nbsp;A.1",
			"wikibinder](https://github.com/nao1215/wikibinder) v1.0.0",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q, got:\n%s", want, output)
			}
		}
	})

	t.Run("failed run", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf, "").Write(createFailedRun()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "[!CAUTION]") {
			t.Errorf("expected caution alert, got:\n%s", output)
		}
		if strings.Contains(output, "## Document Types") {
			t.Errorf("expected no type chart without documents, got:\n%s", output)
		}
		if !strings.Contains(output, "No documents.") {
			t.Errorf("expected empty contents, got:\n%s", output)
		}
	})
}

// TestMultiWriter tests writing to several writers.
func TestMultiWriter(t *testing.T) {
	t.Parallel()

	var text, js bytes.Buffer
	mw := NewMultiWriter(NewSimpleWriter(&text, ""), NewJSONWriter(&js, ""))

	n, err := mw.Write(createTestRun())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != text.Len()+js.Len() {
		t.Errorf("expected %d total bytes, got %d", text.Len()+js.Len(), n)
	}
	if text.Len() == 0 || js.Len() == 0 {
		t.Error("expected both writers to receive output")
	}
}

// TestNewWriter tests the format switch.
func TestNewWriter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		format  string
		want    any
		wantErr bool
	}{
		{format: FormatText, want: &SimpleWriter{}},
		{format: FormatMarkdown, want: &MarkdownWriter{}},
		{format: FormatJSON, want: &JSONWriter{}},
		{format: "html", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			t.Parallel()

			w, err := NewWriter(tt.format, &bytes.Buffer{}, "")
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			switch tt.want.(type) {
			case *SimpleWriter:
				_, ok := w.(*SimpleWriter)
				if !ok {
					t.Errorf("expected *SimpleWriter, got %T", w)
				}
			case *MarkdownWriter:
				_, ok := w.(*MarkdownWriter)
				if !ok {
					t.Errorf("expected *MarkdownWriter, got %T", w)
				}
			case *JSONWriter:
				_, ok := w.(*JSONWriter)
				if !ok {
					t.Errorf("expected *JSONWriter, got %T", w)
				}
			}
		})
	}
}

// TestManifestPath tests where manifests are written.
func TestManifestPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		output string
		format string
		want   string
	}{
		{output: filepath.Join("out", "guide.pdf"), format: FormatText, want: filepath.Join("out", "guide.manifest.txt")},
		{output: filepath.Join("out", "guide.pdf"), format: FormatMarkdown, want: filepath.Join("out", "guide.manifest.md")},
		{output: "book", format: FormatJSON, want: "book.manifest.json"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()

			if got := ManifestPath(tt.output, tt.format); got != tt.want {
				t.Errorf("ManifestPath(%q, %q) = %q, want %q", tt.output, tt.format, got, tt.want)
			}
		})
	}
}
