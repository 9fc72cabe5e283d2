// Package main provides the entry point for the wikibinder CLI.
//
// wikibinder exports every document of a Lark wiki space to PDF and binds
// them into a single document with a nested table of contents.
//
// Usage:
//
//	wikibinder export --space <space-id>
//	wikibinder history
//
// See --help for all available options.
package main

func main() {
	Execute()
}
