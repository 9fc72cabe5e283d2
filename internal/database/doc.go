// Package database provides the SQLite export history for wikibinder.
//
// HistoryDB stores one record per successful run: the space, timestamps,
// node and page counts, and the table of contents. The history and compare
// commands read it; the export pipeline never does, so no crawl state is
// carried from one run to the next.
//
// SQLite comes from modernc.org/sqlite, which is CGO-free, so the
// binary cross-compiles. The database is a single file in the XDG data
// directory.
package database
