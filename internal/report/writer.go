package report

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/nao1215/wikibinder/internal/model"
)

// Writer defines the interface for manifest output.
type Writer interface {
	// Write renders the manifest of run.
	// Returns the number of bytes written and any error encountered.
	Write(run *model.Run) (int, error)
}

// MultiWriter writes to multiple Writers in order.
// Stops on first error encountered.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the manifest to all configured Writers.
// Returns the total bytes written across all writers.
func (m *MultiWriter) Write(run *model.Run) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(run)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for manifest writers.
type baseWriter struct {
	output  io.Writer
	version string
}

func newBaseWriter(output io.Writer, version string) baseWriter {
	return baseWriter{output: output, version: version}
}

// manifest builds the Manifest of run stamped with the writer's version.
func (b baseWriter) manifest(run *model.Run) *Manifest {
	return NewManifest(run, b.version)
}

// Format names accepted by NewWriter.
const (
	FormatText     = "text"
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
)

// NewWriter returns the writer for format.
func NewWriter(format string, output io.Writer, version string) (Writer, error) {
	switch format {
	case FormatText:
		return NewSimpleWriter(output, version), nil
	case FormatMarkdown:
		return NewMarkdownWriter(output, version), nil
	case FormatJSON:
		return NewJSONWriter(output, version, WithPrettyPrint()), nil
	default:
		return nil, fmt.Errorf("unknown manifest format %q", format)
	}
}

// ManifestPath returns where the manifest of the document at outputPath
// is written: next to it, with the format's extension.
// out/guide.pdf becomes out/guide.manifest.md for markdown.
func ManifestPath(outputPath, format string) string {
	ext := map[string]string{
		FormatText:     ".txt",
		FormatMarkdown: ".md",
		FormatJSON:     ".json",
	}[format]
	base := strings.TrimSuffix(outputPath, filepath.Ext(outputPath))
	return base + ".manifest" + ext
}
