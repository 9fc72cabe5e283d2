package report

import (
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/nao1215/wikibinder/internal/model"
)

// MarkdownWriter outputs manifests in Markdown format.
// This format is designed for documentation and sharing, for example as
// a release note next to the bound document.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer, version string) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output, version)}
}

// Write outputs the manifest of run in Markdown format.
func (w *MarkdownWriter) Write(run *model.Run) (int, error) {
	m := w.manifest(run)
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, m)
	w.writeTypes(md, m)
	w.writeContents(md, m)
	w.writeFooter(md, m)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, m *Manifest) {
	md.H1("wikibinder Run Manifest")
	md.PlainText("")

	rows := [][]string{
		{"Space", "`" + m.SpaceID + "`"},
		{"Started", m.StartedAt.Format("2006-01-02 15:04:05 MST")},
		{"Duration", formatDuration(m.Duration)},
		{"Documents", strconv.Itoa(len(m.Documents))},
		{"Total Pages", strconv.Itoa(m.TotalPages)},
	}
	if m.OutputPath != "" {
		rows = append(rows, []string{"Output", "`" + m.OutputPath + "`"})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")

	if m.Status == StatusComplete {
		md.Tip("Export complete. Every document was bound into the output.")
	} else {
		md.Cautionf("Export failed: %s", m.Error)
	}
	md.PlainText("")
}

// writeTypes charts the documents per object type.
func (w *MarkdownWriter) writeTypes(md *markdown.Markdown, m *Manifest) {
	order, counts := m.TypeCounts()
	if len(order) == 0 {
		return
	}

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Documents by Type"),
		piechart.WithShowData(true),
	)
	for _, t := range order {
		chart.LabelAndIntValue(t.String(), uint64(counts[t])) //nolint:gosec // counts are positive
	}

	md.H2("Document Types")
	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeContents(md *markdown.Markdown, m *Manifest) {
	md.H2("Contents")
	md.PlainText("")

	if len(m.Documents) == 0 {
		md.PlainText("No documents.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(m.Documents))
	for i, d := range m.Documents {
		page := "-"
		if d.Page > 0 {
			page = strconv.Itoa(d.Page)
		}
		rows[i] = []string{
			strconv.Itoa(d.Index),
			strings.Repeat("&nbsp;&nbsp;", max(d.Level-1, 0)) + d.Title,
			d.ObjType.String(),
			page,
			strconv.FormatInt(d.Bytes, 10),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"#", "Title", "Type", "Page", "Bytes"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown, m *Manifest) {
	md.HorizontalRule()
	md.PlainText("")
	if m.Version != "" {
		md.PlainTextf("*Generated by [wikibinder](https://github.com/nao1215/wikibinder) %s*", m.Version)
		return
	}
	md.PlainText("*Generated by [wikibinder](https://github.com/nao1215/wikibinder)*")
}

func formatDuration(d time.Duration) string {
	return d.Round(time.Millisecond).String()
}
