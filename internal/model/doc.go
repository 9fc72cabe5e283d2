// Package model defines the core data structures shared by the crawler,
// exporter, assembler and pipeline packages.
//
// This package contains the following main types:
//   - TreeNode / Tree: the wiki space hierarchy in discovery order
//   - ExportJob / JobResult: one node's remote export execution
//   - TOCEntry: one outline entry of the bound output document
//   - Run: everything recorded about a single export run
//
// It also owns the error taxonomy (TransportError, APIError, RateLimitError,
// JobFailureError, RetriesExhaustedError, AssemblyError) so that the backoff
// executor can classify failures without importing the API client.
//
// The types are serializable to JSON for manifests and history storage.
package model
