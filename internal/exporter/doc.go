// Package exporter converts wiki nodes to PDF files through the drive
// export task API.
//
// Every node goes through three stages in order: submit an export task,
// poll the task until it reaches a terminal state, and download the file.
// Nodes are processed concurrently with a bounded errgroup; each remote
// call is wrapped by the backoff executor.
//
// Files are named after the node's position in the discovery sequence
// ({index}.pdf), so the assembler can consume them in order no matter
// which download finished first.
package exporter
