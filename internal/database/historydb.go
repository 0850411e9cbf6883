package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/linklens/linklens/internal/model"
)

// HistoryDB provides SQLite-based storage for past crawl runs.
// It keeps the full report as JSON plus a relational copy of the match
// records, so history listings and run-to-run comparisons don't need
// to deserialize whole reports.
//
// Design decision: We use a single database file for all sites rather
// than one file per site. This simplifies cross-site history queries
// and backup/restore operations.
type HistoryDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures HistoryDB behavior.
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

// Open opens or creates a HistoryDB at the specified path.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, "linklens.db")

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

	// modernc.org/sqlite connection string: mode=rw prevents creating
	// new files, mode=rwc allows creation.
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

	hdb := &HistoryDB{
		db:     db,
		dbPath: dbPath,
	}

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

// Close closes the database connection.
func (hdb *HistoryDB) Close() error {
	return hdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (hdb *HistoryDB) createTables() error {
	schema := `
	-- Runs store one row per completed crawl, with the full report as JSON
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		sites TEXT NOT NULL,
		targets TEXT NOT NULL,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		pages_crawled INTEGER DEFAULT 0,
		pages_with_content INTEGER DEFAULT 0,
		duplicate_pages INTEGER DEFAULT 0,
		sitemap_count INTEGER DEFAULT 0,
		total_matches INTEGER DEFAULT 0,
		timed_out INTEGER DEFAULT 0,
		error TEXT,
		report_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_timestamp ON runs(timestamp);
	CREATE INDEX IF NOT EXISTS idx_runs_sites ON runs(sites);

	-- Matches store the individual backlink records per run
	CREATE TABLE IF NOT EXISTS matches (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		target TEXT NOT NULL,
		source_url TEXT NOT NULL,
		anchor_text TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_matches_run ON matches(run_id);
	CREATE INDEX IF NOT EXISTS idx_matches_target ON matches(target);
	`

	_, err := hdb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveRun stores a finished crawl report and its match records.
// Returns the new run's database ID.
func (hdb *HistoryDB) SaveRun(ctx context.Context, report *model.CrawlReport) (int64, error) {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize report: %w", err)
	}

	tx, err := hdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	timedOut := 0
	if report.TimedOut {
		timedOut = 1
	}

	result, err := tx.ExecContext(ctx, `
	INSERT INTO runs (sites, targets, timestamp, pages_crawled, pages_with_content,
		duplicate_pages, sitemap_count, total_matches, timed_out, error, report_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		strings.Join(report.Sites, ","),
		strings.Join(report.Targets, ","),
		report.DateScanned.UTC().Format("2006-01-02 15:04:05"),
		report.PagesCrawled,
		report.PagesWithContent,
		report.DuplicatePages,
		len(report.SitemapURLs),
		report.Matches.TotalMatches(),
		timedOut,
		report.ErrorMessage,
		string(reportJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}

	runID, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}

	for _, target := range report.Targets {
		for _, rec := range report.Matches[target] {
			if _, err := tx.ExecContext(ctx, `
			INSERT INTO matches (run_id, target, source_url, anchor_text)
			VALUES (?, ?, ?, ?)
			`, runID, target, rec.SourceURL, rec.AnchorText); err != nil {
				return 0, fmt.Errorf("failed to insert match: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}

	return runID, nil
}

// RunMetadata contains summary information about a stored run.
// This is used for displaying history without loading the full report.
type RunMetadata struct {
	// ID is the unique identifier of the run in the database.
	ID int64

	// Sites are the crawled site URLs.
	Sites []string

	// Targets are the target URLs of the run.
	Targets []string

	// Timestamp is when the run started.
	Timestamp time.Time

	// PagesCrawled is the number of pages processed.
	PagesCrawled int

	// TotalMatches is the number of backlink records found.
	TotalMatches int

	// TimedOut reports whether the run was cut short.
	TimedOut bool

	// Error holds the fatal error message, if any.
	Error string
}

// ListRuns returns run metadata, newest first. A limit of 0 returns
// all runs. The optional site filter matches runs that crawled it.
func (hdb *HistoryDB) ListRuns(ctx context.Context, site string, limit int) ([]RunMetadata, error) {
	query := `
	SELECT id, sites, targets, timestamp, pages_crawled, total_matches, timed_out, error
	FROM runs
	`
	args := make([]any, 0, 2)

	if site != "" {
		query += " WHERE sites LIKE ?"
		args = append(args, "%"+site+"%")
	}

	query += " ORDER BY timestamp DESC, id DESC"

	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := hdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var results []RunMetadata
	for rows.Next() {
		var (
			meta      RunMetadata
			sites     string
			targets   string
			timestamp string
			timedOut  int
			errMsg    sql.NullString
		)

		if err := rows.Scan(&meta.ID, &sites, &targets, &timestamp,
			&meta.PagesCrawled, &meta.TotalMatches, &timedOut, &errMsg); err != nil {
			return nil, fmt.Errorf("failed to scan run metadata: %w", err)
		}

		meta.Sites = splitList(sites)
		meta.Targets = splitList(targets)
		meta.Timestamp = parseTimestamp(timestamp)
		meta.TimedOut = timedOut != 0
		if errMsg.Valid {
			meta.Error = errMsg.String
		}

		results = append(results, meta)
	}

	return results, rows.Err()
}

// GetRun retrieves a full crawl report by its run ID.
// Returns nil without error when the run doesn't exist.
func (hdb *HistoryDB) GetRun(ctx context.Context, id int64) (*model.CrawlReport, error) {
	var reportJSON string
	err := hdb.db.QueryRowContext(ctx,
		`SELECT report_json FROM runs WHERE id = ?`, id).Scan(&reportJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	var report model.CrawlReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}

	return &report, nil
}

// GetLatestRun retrieves the most recent run, optionally filtered by site.
// Returns nil without error when no run matches.
func (hdb *HistoryDB) GetLatestRun(ctx context.Context, site string) (*model.CrawlReport, error) {
	query := `SELECT report_json FROM runs`
	args := make([]any, 0, 1)

	if site != "" {
		query += " WHERE sites LIKE ?"
		args = append(args, "%"+site+"%")
	}

	query += " ORDER BY timestamp DESC, id DESC LIMIT 1"

	var reportJSON string
	err := hdb.db.QueryRowContext(ctx, query, args...).Scan(&reportJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest run: %w", err)
	}

	var report model.CrawlReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}

	return &report, nil
}

// MatchesForTarget returns the stored match records of one run for one
// target, straight from the relational copy.
func (hdb *HistoryDB) MatchesForTarget(ctx context.Context, runID int64, target string) ([]model.MatchRecord, error) {
	rows, err := hdb.db.QueryContext(ctx, `
	SELECT source_url, anchor_text FROM matches
	WHERE run_id = ? AND target = ?
	ORDER BY id
	`, runID, target)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	var records []model.MatchRecord
	for rows.Next() {
		var rec model.MatchRecord
		var anchor sql.NullString
		if err := rows.Scan(&rec.SourceURL, &anchor); err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		if anchor.Valid {
			rec.AnchorText = anchor.String
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// splitList splits a comma-joined column back into its values.
func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
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
