// Package report writes the run manifest: a summary of one export run
// with its table of contents and per-document results.
//
// This package contains writers for different output formats:
//   - SimpleWriter: human-readable text for the terminal
//   - MarkdownWriter: GitHub-flavored markdown for sharing
//   - JSONWriter: structured JSON for tool integration
//
// Writers implement the Writer interface, allowing them to be used
// interchangeably and composed for multi-format output.
package report
