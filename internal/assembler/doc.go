// Package assembler binds exported documents into one PDF with a nested
// outline.
//
// The table of contents is computed before anything is written: entry i
// starts at 1 + cover pages + the page counts of every earlier file.
// BuildTOC is a pure function of the page counts, BuildOutline nests the
// flat entries by level, and a Container does the actual PDF work.
// PDFContainer counts pages with ledongthuc/pdf and merges and writes
// bookmarks with pdfcpu.
package assembler
