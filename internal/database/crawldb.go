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

	"github.com/dreat42/Ecom-Crawler/internal/model"
)

// CrawlDB provides SQLite-based storage for crawl results.
//
// Design decision: We use a single database file for all domains rather
// than one file per domain. Cross-domain queries (list everything crawled,
// global product counts) stay simple and backup is a single file copy.
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

// Open opens or creates a CrawlDB at the specified path.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*CrawlDB, error) {
	dbPath := filepath.Join(dbDir, "ecomcrawler.db")

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

	// modernc.org/sqlite uses mode=rw to prevent creating new files and
	// mode=rwc to allow creation.
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

	// SQLite only supports one writer
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

// createTables creates the database schema if it doesn't exist.
func (cdb *CrawlDB) createTables() error {
	schema := `
	-- Product URLs discovered across crawl sessions.
	-- UNIQUE(domain, url) deduplicates across runs; last_seen tracks
	-- the most recent session that confirmed the URL.
	CREATE TABLE IF NOT EXISTS products (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		domain TEXT NOT NULL,
		url TEXT NOT NULL,
		matched_by TEXT,
		session_id TEXT NOT NULL,
		first_seen DATETIME DEFAULT CURRENT_TIMESTAMP,
		last_seen DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(domain, url)
	);

	CREATE INDEX IF NOT EXISTS idx_products_domain ON products(domain);
	CREATE INDEX IF NOT EXISTS idx_products_session ON products(session_id);

	-- Complete crawl reports stored as JSON for history and comparison.
	CREATE TABLE IF NOT EXISTS crawl_reports (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		domain TEXT NOT NULL,
		session_id TEXT NOT NULL,
		state TEXT NOT NULL,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		report_json TEXT NOT NULL,
		stats_summary TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_reports_domain ON crawl_reports(domain);
	CREATE INDEX IF NOT EXISTS idx_reports_timestamp ON crawl_reports(timestamp);
	`

	_, err := cdb.db.ExecContext(context.Background(), schema)
	return err
}

// ProductRecord represents a stored product URL.
type ProductRecord struct {
	ID        int64
	Domain    string
	URL       string
	MatchedBy string
	SessionID string
	FirstSeen time.Time
	LastSeen  time.Time
}

// InsertProduct inserts or refreshes a product URL.
// Uses UPSERT so a URL rediscovered in a later session keeps its
// first_seen time and updates last_seen.
func (cdb *CrawlDB) InsertProduct(ctx context.Context, record *ProductRecord) error {
	query := `
	INSERT INTO products (domain, url, matched_by, session_id)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(domain, url) DO UPDATE SET
		matched_by = excluded.matched_by,
		session_id = excluded.session_id,
		last_seen = CURRENT_TIMESTAMP
	`

	_, err := cdb.db.ExecContext(ctx, query,
		record.Domain,
		record.URL,
		record.MatchedBy,
		record.SessionID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert product: %w", err)
	}
	return nil
}

// GetProducts retrieves all product URLs for a domain, ordered by URL.
func (cdb *CrawlDB) GetProducts(ctx context.Context, domain string) ([]ProductRecord, error) {
	query := `
	SELECT id, domain, url, matched_by, session_id, first_seen, last_seen
	FROM products
	WHERE domain = ?
	ORDER BY url
	`

	rows, err := cdb.db.QueryContext(ctx, query, domain)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var results []ProductRecord
	for rows.Next() {
		var rec ProductRecord
		var matchedBy sql.NullString
		var firstSeen, lastSeen string

		if err := rows.Scan(&rec.ID, &rec.Domain, &rec.URL, &matchedBy, &rec.SessionID, &firstSeen, &lastSeen); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		rec.MatchedBy = matchedBy.String
		rec.FirstSeen = parseTimestamp(firstSeen)
		rec.LastSeen = parseTimestamp(lastSeen)
		results = append(results, rec)
	}

	return results, rows.Err()
}

// SaveCrawlReport saves a complete crawl report as JSON.
// The report's product URLs are also upserted into the products table.
func (cdb *CrawlDB) SaveCrawlReport(ctx context.Context, report *model.CrawlReport) error {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to serialize report: %w", err)
	}

	statsJSON, _ := json.Marshal(report.Stats) //nolint:errcheck,errchkjson // CrawlStats is a flat struct; Marshal won't fail

	query := `
	INSERT INTO crawl_reports (domain, session_id, state, report_json, stats_summary)
	VALUES (?, ?, ?, ?, ?)
	`

	if _, err := cdb.db.ExecContext(ctx, query,
		report.Domain,
		report.SessionID,
		string(report.State),
		string(reportJSON),
		string(statsJSON),
	); err != nil {
		return fmt.Errorf("failed to save crawl report: %w", err)
	}

	for _, u := range report.ProductURLs {
		rec := &ProductRecord{
			Domain:    report.Domain,
			URL:       u,
			SessionID: report.SessionID,
		}
		if err := cdb.InsertProduct(ctx, rec); err != nil {
			return err
		}
	}

	return nil
}

// GetLatestCrawlReport retrieves the most recent crawl report for a domain.
// Returns nil without error when the domain has never been crawled.
func (cdb *CrawlDB) GetLatestCrawlReport(ctx context.Context, domain string) (*model.CrawlReport, error) {
	query := `
	SELECT report_json FROM crawl_reports
	WHERE domain = ?
	ORDER BY timestamp DESC, id DESC
	LIMIT 1
	`

	var reportJSON string
	err := cdb.db.QueryRowContext(ctx, query, domain).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get crawl report: %w", err)
	}

	var report model.CrawlReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}

	return &report, nil
}

// GetCrawlReportByID retrieves a specific crawl report by its row ID.
// Returns nil without error when no report has that ID.
func (cdb *CrawlDB) GetCrawlReportByID(ctx context.Context, id int64) (*model.CrawlReport, error) {
	query := `
	SELECT report_json FROM crawl_reports
	WHERE id = ?
	`

	var reportJSON string
	err := cdb.db.QueryRowContext(ctx, query, id).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get crawl report %d: %w", id, err)
	}

	var report model.CrawlReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}

	return &report, nil
}

// GetCrawlHistory retrieves all crawl reports for a domain, newest first.
func (cdb *CrawlDB) GetCrawlHistory(ctx context.Context, domain string) ([]*model.CrawlReport, error) {
	query := `
	SELECT report_json FROM crawl_reports
	WHERE domain = ?
	ORDER BY timestamp DESC, id DESC
	`

	rows, err := cdb.db.QueryContext(ctx, query, domain)
	if err != nil {
		return nil, fmt.Errorf("failed to get crawl history: %w", err)
	}
	defer rows.Close()

	var reports []*model.CrawlReport
	for rows.Next() {
		var reportJSON string
		if err := rows.Scan(&reportJSON); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}

		var report model.CrawlReport
		if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
			continue // Skip malformed reports
		}
		reports = append(reports, &report)
	}

	return reports, rows.Err()
}

// ListCrawledDomains returns all domains with at least one stored report.
func (cdb *CrawlDB) ListCrawledDomains(ctx context.Context) ([]string, error) {
	query := `
	SELECT DISTINCT domain FROM crawl_reports
	ORDER BY domain
	`

	rows, err := cdb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list domains: %w", err)
	}
	defer rows.Close()

	var domains []string
	for rows.Next() {
		var domain string
		if err := rows.Scan(&domain); err != nil {
			return nil, fmt.Errorf("failed to scan domain: %w", err)
		}
		domains = append(domains, domain)
	}

	return domains, rows.Err()
}

// CrawlReportMetadata contains summary information about a stored report.
// Used for displaying crawl history without loading the full report.
type CrawlReportMetadata struct {
	// ID is the unique identifier of the report in the database.
	ID int64

	// Domain is the crawled domain.
	Domain string

	// SessionID identifies the crawl session.
	SessionID string

	// State is the terminal state the session ended in.
	State string

	// Timestamp is when the report was stored.
	Timestamp time.Time

	// Stats holds the session counters.
	Stats model.CrawlStats
}

// GetCrawlHistoryWithMetadata retrieves report metadata for a domain.
// This is more efficient than GetCrawlHistory when only summaries are needed.
func (cdb *CrawlDB) GetCrawlHistoryWithMetadata(ctx context.Context, domain string) ([]CrawlReportMetadata, error) {
	query := `
	SELECT id, domain, session_id, state, timestamp, stats_summary
	FROM crawl_reports
	WHERE domain = ?
	ORDER BY timestamp DESC, id DESC
	`

	rows, err := cdb.db.QueryContext(ctx, query, domain)
	if err != nil {
		return nil, fmt.Errorf("failed to get crawl history: %w", err)
	}
	defer rows.Close()

	var results []CrawlReportMetadata
	for rows.Next() {
		var meta CrawlReportMetadata
		var timestamp string
		var statsJSON sql.NullString

		if err := rows.Scan(&meta.ID, &meta.Domain, &meta.SessionID, &meta.State, &timestamp, &statsJSON); err != nil {
			return nil, fmt.Errorf("failed to scan metadata: %w", err)
		}

		meta.Timestamp = parseTimestamp(timestamp)
		if statsJSON.Valid && statsJSON.String != "" {
			// Malformed stats leave the zero value; the full report
			// is still available through GetCrawlHistory.
			_ = json.Unmarshal([]byte(statsJSON.String), &meta.Stats) //nolint:errcheck
		}

		results = append(results, meta)
	}

	return results, rows.Err()
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
