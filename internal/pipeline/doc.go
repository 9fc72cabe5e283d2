// Package pipeline sequences an export run.
//
// A Pipeline executes Steps in order against a shared model.Run and
// stops at the first error. DefaultPipeline wires the three phases:
//
//  1. CrawlStep discovers the wiki tree (crawler package)
//  2. ExportStep exports every node into the working directory (exporter package)
//  3. AssembleStep binds the files into the output document (assembler package)
//
// The Coordinator owns the working directory: it is created before the
// first step and removed after the last one, on success and on failure.
package pipeline
