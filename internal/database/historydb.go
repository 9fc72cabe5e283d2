package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/wikibinder/internal/model"
)

// FileName is the database file inside the database directory.
const FileName = "wikibinder.db"

// timestampLayout has a fixed width so stored timestamps sort as text.
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

// ErrRunNotFound is returned when no run has the requested ID.
var ErrRunNotFound = errors.New("run not found")

// ErrRunNotSucceeded is returned when saving a run that produced no output.
var ErrRunNotSucceeded = errors.New("only successful runs are recorded")

// HistoryDB provides SQLite-based storage for export runs.
type HistoryDB struct {
	db     *sql.DB
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a HistoryDB in dbDir.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (run an export first)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else if err := os.MkdirAll(dbDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// mode=rw refuses to create a missing file, mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{db: db, dbPath: dbPath}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return hdb, nil
}

// Path returns the database file path.
func (h *HistoryDB) Path() string {
	return h.dbPath
}

// Close closes the database connection.
func (h *HistoryDB) Close() error {
	return h.db.Close()
}

func (h *HistoryDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		space_id TEXT NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		node_count INTEGER NOT NULL,
		cover_pages INTEGER NOT NULL,
		total_pages INTEGER NOT NULL,
		output_path TEXT NOT NULL,
		toc_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_space ON runs(space_id);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	`
	_, err := h.db.ExecContext(context.Background(), schema)
	return err
}

// RunRecord is a stored export run.
type RunRecord struct {
	ID         int64     `json:"id"`
	SpaceID    string    `json:"space_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	NodeCount  int       `json:"node_count"`
	CoverPages int       `json:"cover_pages"`
	TotalPages int       `json:"total_pages"`
	OutputPath string    `json:"output_path"`
	// TOC is only populated by GetRun and LatestRuns.
	TOC []model.TOCEntry `json:"toc,omitempty"`
}

// SaveRun records a successful run and returns its ID.
func (h *HistoryDB) SaveRun(ctx context.Context, run *model.Run) (int64, error) {
	if !run.Succeeded() {
		return 0, ErrRunNotSucceeded
	}

	tocJSON, err := json.Marshal(run.TOC)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize toc: %w", err)
	}

	query := `
	INSERT INTO runs (space_id, started_at, finished_at, node_count, cover_pages, total_pages, output_path, toc_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := h.db.ExecContext(ctx, query,
		run.SpaceID,
		run.StartedAt.UTC().Format(timestampLayout),
		run.FinishedAt.UTC().Format(timestampLayout),
		len(run.TOC),
		run.CoverPages,
		run.TotalPages,
		run.OutputPath,
		string(tocJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save run: %w", err)
	}
	return result.LastInsertId()
}

// ListRuns returns up to limit runs of spaceID, newest first, without
// their TOC. An empty spaceID lists every space. A non-positive limit
// means no limit.
func (h *HistoryDB) ListRuns(ctx context.Context, spaceID string, limit int) ([]RunRecord, error) {
	query := `
	SELECT id, space_id, started_at, finished_at, node_count, cover_pages, total_pages, output_path
	FROM runs
	WHERE (? = '' OR space_id = ?)
	ORDER BY started_at DESC, id DESC
	LIMIT ?
	`
	if limit <= 0 {
		limit = -1
	}

	rows, err := h.db.QueryContext(ctx, query, spaceID, spaceID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var results []RunRecord
	for rows.Next() {
		var (
			rec                 RunRecord
			started, finished string
		)
		if err := rows.Scan(&rec.ID, &rec.SpaceID, &started, &finished,
			&rec.NodeCount, &rec.CoverPages, &rec.TotalPages, &rec.OutputPath); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		rec.StartedAt = parseTimestamp(started)
		rec.FinishedAt = parseTimestamp(finished)
		results = append(results, rec)
	}
	return results, rows.Err()
}

// GetRun retrieves a run including its TOC.
// It returns ErrRunNotFound when id does not exist.
func (h *HistoryDB) GetRun(ctx context.Context, id int64) (*RunRecord, error) {
	query := `
	SELECT id, space_id, started_at, finished_at, node_count, cover_pages, total_pages, output_path, toc_json
	FROM runs
	WHERE id = ?
	`

	var (
		rec                        RunRecord
		started, finished, tocJSON string
	)
	err := h.db.QueryRowContext(ctx, query, id).Scan(&rec.ID, &rec.SpaceID, &started, &finished,
		&rec.NodeCount, &rec.CoverPages, &rec.TotalPages, &rec.OutputPath, &tocJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	rec.StartedAt = parseTimestamp(started)
	rec.FinishedAt = parseTimestamp(finished)
	if err := json.Unmarshal([]byte(tocJSON), &rec.TOC); err != nil {
		return nil, fmt.Errorf("failed to parse toc of run %d: %w", id, err)
	}
	return &rec, nil
}

// LatestRuns returns the n newest runs of spaceID with their TOC,
// newest first.
func (h *HistoryDB) LatestRuns(ctx context.Context, spaceID string, n int) ([]*RunRecord, error) {
	metas, err := h.ListRuns(ctx, spaceID, n)
	if err != nil {
		return nil, err
	}
	runs := make([]*RunRecord, 0, len(metas))
	for _, m := range metas {
		rec, err := h.GetRun(ctx, m.ID)
		if err != nil {
			return nil, err
		}
		runs = append(runs, rec)
	}
	return runs, nil
}

// timestampFormats contains the timestamp formats that may be stored.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05", // SQLite default datetime format
}

// parseTimestamp parses a stored timestamp, returning zero time when no
// format matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
