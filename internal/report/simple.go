package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/wikibinder/internal/model"
)

// SimpleWriter outputs human-readable text manifests.
// This format is designed for terminal display: plain ASCII, easy to pipe.
type SimpleWriter struct {
	baseWriter
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, version string) *SimpleWriter {
	return &SimpleWriter{baseWriter: newBaseWriter(output, version)}
}

// Write outputs the manifest of run in human-readable format.
func (w *SimpleWriter) Write(run *model.Run) (int, error) {
	m := w.manifest(run)

	var sb strings.Builder
	w.writeHeader(&sb, m)
	w.writeContents(&sb, m)
	w.writeFooter(&sb, m)

	return w.output.Write([]byte(sb.String()))
}

func (w *SimpleWriter) writeHeader(sb *strings.Builder, m *Manifest) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                       WIKIBINDER RUN MANIFEST\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "Space:       %s\n", m.SpaceID)
	fmt.Fprintf(sb, "Started:     %s\n", m.StartedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(sb, "Duration:    %s\n", formatDuration(m.Duration))
	if m.Status == StatusComplete {
		sb.WriteString("Status:      Complete\n")
		fmt.Fprintf(sb, "Output:      %s\n", m.OutputPath)
	} else {
		fmt.Fprintf(sb, "Status:      FAILED - %s\n", m.Error)
	}
	fmt.Fprintf(sb, "Documents:   %d\n", len(m.Documents))
	fmt.Fprintf(sb, "Total pages: %d\n", m.TotalPages)
	if m.CoverPages > 0 {
		fmt.Fprintf(sb, "Cover pages: %d\n", m.CoverPages)
	}
	sb.WriteString("\n")
}

// writeContents prints one line per document, indented by level.
func (w *SimpleWriter) writeContents(sb *strings.Builder, m *Manifest) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("CONTENTS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if len(m.Documents) == 0 {
		sb.WriteString("  No documents\n\n")
		return
	}

	for _, d := range m.Documents {
		indent := strings.Repeat("  ", max(d.Level, 1))
		page := "-"
		if d.Page > 0 {
			page = fmt.Sprintf("p.%d", d.Page)
		}
		fmt.Fprintf(sb, "%s%s [%s] %s\n", indent, d.Title, d.ObjType, page)
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeFooter(sb *strings.Builder, m *Manifest) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	if m.Version != "" {
		fmt.Fprintf(sb, "wikibinder %s\n", m.Version)
	}
}
