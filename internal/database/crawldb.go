// Package database provides SQLite-based storage for finished crawl
// results. Crawl state itself (frontier, visited set) is never persisted;
// the database is an archive of what a run produced, not a resume point.
package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/Netflowar/web-scraper-v2/internal/model"
)

// CrawlDB provides SQLite-based storage for crawl runs and page records.
// It manages connection pooling and provides methods for CRUD operations.
//
// Design decision: We use a single database file for all runs rather than
// one file per site. This keeps cross-run queries (every page ever fetched
// from a host) trivial and simplifies backup.
type CrawlDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures CrawlDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	// This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a CrawlDB at the specified directory.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*CrawlDB, error) {
	dbPath := filepath.Join(dbDir, "webscraper.db")

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite connection string: mode=rw prevents creating new
	// files, mode=rwc allows creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cdb := &CrawlDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := cdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return cdb, nil
}

// Close closes the database connection.
func (cdb *CrawlDB) Close() error {
	return cdb.db.Close()
}

// Path returns the path of the underlying database file.
func (cdb *CrawlDB) Path() string {
	return cdb.dbPath
}

// createTables creates the database schema if it doesn't exist.
func (cdb *CrawlDB) createTables() error {
	schema := `
	-- Runs store one row per finished crawl
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		start_url TEXT NOT NULL,
		state TEXT NOT NULL,
		pages_attempted INTEGER NOT NULL,
		pages_failed INTEGER NOT NULL,
		links_discovered INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		links TEXT NOT NULL,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_runs_start_url ON runs(start_url);
	CREATE INDEX IF NOT EXISTS idx_runs_timestamp ON runs(timestamp);

	-- Pages store individual page fetches belonging to a run
	CREATE TABLE IF NOT EXISTS pages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		url TEXT NOT NULL,
		status TEXT NOT NULL,
		status_code INTEGER,
		title TEXT,
		text_content TEXT,
		headings TEXT,
		code_blocks TEXT,
		toc TEXT,
		links_found TEXT,
		fetched_at DATETIME,
		UNIQUE(run_id, url)
	);

	CREATE INDEX IF NOT EXISTS idx_pages_run ON pages(run_id);
	CREATE INDEX IF NOT EXISTS idx_pages_url ON pages(url);
	`

	_, err := cdb.db.ExecContext(context.Background(), schema)
	return err
}

// RunRecord is a stored crawl run.
type RunRecord struct {
	ID        int64
	StartURL  string
	State     string
	Stats     model.CrawlStats
	Links     []string
	Timestamp time.Time
}

// SaveResult stores a finished crawl result and all its pages in one
// transaction. Returns the new run ID.
func (cdb *CrawlDB) SaveResult(ctx context.Context, result *model.CrawlResult) (int64, error) {
	linksJSON, err := json.Marshal(result.Links)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize links: %w", err)
	}

	tx, err := cdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
	INSERT INTO runs (start_url, state, pages_attempted, pages_failed, links_discovered, duration_ms, links)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		result.StartURL,
		string(result.State),
		result.Stats.PagesAttempted,
		result.Stats.PagesFailed,
		result.Stats.LinksDiscovered,
		result.Stats.Duration.Milliseconds(),
		string(linksJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}

	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run id: %w", err)
	}

	for _, page := range result.PagesInOrder() {
		if err := insertPage(ctx, tx, runID, page); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}

	return runID, nil
}

// insertPage stores one page record under a run.
func insertPage(ctx context.Context, tx *sql.Tx, runID int64, page *model.PageRecord) error {
	headingsJSON, err := json.Marshal(page.Headings)
	if err != nil {
		return fmt.Errorf("failed to serialize headings: %w", err)
	}
	codeJSON, err := json.Marshal(page.CodeBlocks)
	if err != nil {
		return fmt.Errorf("failed to serialize code blocks: %w", err)
	}
	tocJSON, err := json.Marshal(page.TOC)
	if err != nil {
		return fmt.Errorf("failed to serialize toc: %w", err)
	}
	linksJSON, err := json.Marshal(page.LinksFound)
	if err != nil {
		return fmt.Errorf("failed to serialize page links: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
	INSERT INTO pages (run_id, url, status, status_code, title, text_content, headings, code_blocks, toc, links_found, fetched_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(run_id, url) DO UPDATE SET
		status = excluded.status,
		status_code = excluded.status_code,
		title = excluded.title,
		text_content = excluded.text_content,
		headings = excluded.headings,
		code_blocks = excluded.code_blocks,
		toc = excluded.toc,
		links_found = excluded.links_found,
		fetched_at = excluded.fetched_at
	`,
		runID,
		page.URL,
		string(page.Status),
		page.StatusCode,
		page.Title,
		page.TextContent,
		string(headingsJSON),
		string(codeJSON),
		string(tocJSON),
		string(linksJSON),
		page.FetchedAt.UTC().Format("2006-01-02 15:04:05"),
	)
	if err != nil {
		return fmt.Errorf("failed to insert page %s: %w", page.URL, err)
	}
	return nil
}

// GetRun retrieves a stored run by ID. Returns nil without error when the
// run does not exist.
func (cdb *CrawlDB) GetRun(ctx context.Context, runID int64) (*RunRecord, error) {
	query := `
	SELECT id, start_url, state, pages_attempted, pages_failed, links_discovered, duration_ms, links, timestamp
	FROM runs
	WHERE id = ?
	`

	var (
		rec        RunRecord
		durationMS int64
		linksJSON  string
		timestamp  string
	)

	err := cdb.db.QueryRowContext(ctx, query, runID).Scan(
		&rec.ID,
		&rec.StartURL,
		&rec.State,
		&rec.Stats.PagesAttempted,
		&rec.Stats.PagesFailed,
		&rec.Stats.LinksDiscovered,
		&durationMS,
		&linksJSON,
		&timestamp,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	rec.Stats.Duration = time.Duration(durationMS) * time.Millisecond
	rec.Timestamp = parseTimestamp(timestamp)

	if linksJSON != "" {
		if err := json.Unmarshal([]byte(linksJSON), &rec.Links); err != nil {
			return nil, fmt.Errorf("failed to parse run links: %w", err)
		}
	}

	return &rec, nil
}

// ListRuns returns the most recent runs, newest first.
func (cdb *CrawlDB) ListRuns(ctx context.Context, limit int) ([]*RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := cdb.db.QueryContext(ctx, `
	SELECT id, start_url, state, pages_attempted, pages_failed, links_discovered, duration_ms, links, timestamp
	FROM runs
	ORDER BY id DESC
	LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []*RunRecord
	for rows.Next() {
		var (
			rec        RunRecord
			durationMS int64
			linksJSON  string
			timestamp  string
		)
		if err := rows.Scan(
			&rec.ID,
			&rec.StartURL,
			&rec.State,
			&rec.Stats.PagesAttempted,
			&rec.Stats.PagesFailed,
			&rec.Stats.LinksDiscovered,
			&durationMS,
			&linksJSON,
			&timestamp,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		rec.Stats.Duration = time.Duration(durationMS) * time.Millisecond
		rec.Timestamp = parseTimestamp(timestamp)
		if linksJSON != "" {
			if err := json.Unmarshal([]byte(linksJSON), &rec.Links); err != nil {
				return nil, fmt.Errorf("failed to parse run links: %w", err)
			}
		}
		runs = append(runs, &rec)
	}

	return runs, rows.Err()
}

// GetPages retrieves all page records belonging to a run, in insertion
// order.
func (cdb *CrawlDB) GetPages(ctx context.Context, runID int64) ([]*model.PageRecord, error) {
	rows, err := cdb.db.QueryContext(ctx, `
	SELECT url, status, status_code, title, text_content, headings, code_blocks, toc, links_found, fetched_at
	FROM pages
	WHERE run_id = ?
	ORDER BY id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query pages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var pages []*model.PageRecord
	for rows.Next() {
		var (
			page         model.PageRecord
			status       string
			headingsJSON string
			codeJSON     string
			tocJSON      string
			linksJSON    string
			fetchedAt    string
		)
		if err := rows.Scan(
			&page.URL,
			&status,
			&page.StatusCode,
			&page.Title,
			&page.TextContent,
			&headingsJSON,
			&codeJSON,
			&tocJSON,
			&linksJSON,
			&fetchedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan page: %w", err)
		}

		page.Status = model.PageStatus(status)
		page.FetchedAt = parseTimestamp(fetchedAt)

		for _, col := range []struct {
			raw  string
			dest any
		}{
			{headingsJSON, &page.Headings},
			{codeJSON, &page.CodeBlocks},
			{tocJSON, &page.TOC},
			{linksJSON, &page.LinksFound},
		} {
			if col.raw == "" {
				continue
			}
			if err := json.Unmarshal([]byte(col.raw), col.dest); err != nil {
				return nil, fmt.Errorf("failed to parse page column: %w", err)
			}
		}

		pages = append(pages, &page)
	}

	return pages, rows.Err()
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// SQLite may return timestamps in different formats depending on configuration.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
