package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/telnetpot/internal/model"
)

// CaptureDB provides SQLite-based storage for captured credentials.
// It manages connection pooling and provides methods for insert and
// aggregate queries.
//
// The credentials table is append-only. Peers frequently replay the same
// username/password pair, and every replay is a separate observation.
type CaptureDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures CaptureDB behavior.
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

// Open opens or creates a CaptureDB at the specified path.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*CaptureDB, error) {
	dbPath := filepath.Join(dbDir, "telnetpot.db")

	// Check if we should create the database or require it to exist
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

	// Build connection string.
	// When CreateIfNotExists is false, mode=rw prevents creating new files.
	// When CreateIfNotExists is true, mode=rwc allows creation.
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

	cdb := &CaptureDB{
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
func (cdb *CaptureDB) Close() error {
	return cdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (cdb *CaptureDB) createTables() error {
	schema := `
	-- Credentials store individual login attempts, one row per attempt
	CREATE TABLE IF NOT EXISTS credentials (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		source_addr TEXT NOT NULL,
		username TEXT NOT NULL,
		password TEXT NOT NULL,
		fingerprint TEXT NOT NULL,
		terminal_type TEXT,
		terminal_width INTEGER,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_credentials_source ON credentials(source_addr);
	CREATE INDEX IF NOT EXISTS idx_credentials_fingerprint ON credentials(fingerprint);
	CREATE INDEX IF NOT EXISTS idx_credentials_timestamp ON credentials(timestamp);
	`

	_, err := cdb.db.ExecContext(context.Background(), schema)
	return err
}

// InsertCredential appends a captured login attempt and returns its row ID.
// Duplicate pairs are inserted again on purpose.
func (cdb *CaptureDB) InsertCredential(ctx context.Context, cred model.Credential) (int64, error) {
	query := `
	INSERT INTO credentials (source_addr, username, password, fingerprint, terminal_type, terminal_width, timestamp)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	ts := cred.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	result, err := cdb.db.ExecContext(ctx, query,
		cred.SourceAddr,
		cred.Username,
		cred.Password,
		cred.Fingerprint(),
		cred.TerminalType,
		cred.TerminalWidth,
		ts.UTC().Format("2006-01-02 15:04:05"),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert credential: %w", err)
	}

	return result.LastInsertId()
}

// Record stores a captured login attempt. It satisfies session.Recorder.
func (cdb *CaptureDB) Record(ctx context.Context, cred model.Credential) error {
	_, err := cdb.InsertCredential(ctx, cred)
	return err
}

// ListCredentials returns up to limit stored attempts, newest first.
// A non-positive limit returns all attempts.
func (cdb *CaptureDB) ListCredentials(ctx context.Context, limit int) ([]model.Credential, error) {
	query := `
	SELECT id, source_addr, username, password, terminal_type, terminal_width, timestamp
	FROM credentials
	ORDER BY timestamp DESC, id DESC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := cdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list credentials: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []model.Credential
	for rows.Next() {
		var cred model.Credential
		var terminalType sql.NullString
		var terminalWidth sql.NullInt64
		var timestamp string

		if err := rows.Scan(
			&cred.ID,
			&cred.SourceAddr,
			&cred.Username,
			&cred.Password,
			&terminalType,
			&terminalWidth,
			&timestamp,
		); err != nil {
			return nil, fmt.Errorf("failed to scan credential: %w", err)
		}

		cred.TerminalType = terminalType.String
		cred.TerminalWidth = int(terminalWidth.Int64)
		cred.Timestamp = parseTimestamp(timestamp)
		results = append(results, cred)
	}

	return results, rows.Err()
}

// CountCredentials returns the total number of stored attempts.
func (cdb *CaptureDB) CountCredentials(ctx context.Context) (int, error) {
	return cdb.countQuery(ctx, "SELECT COUNT(*) FROM credentials")
}

// CountUniqueSources returns the number of distinct peer addresses.
func (cdb *CaptureDB) CountUniqueSources(ctx context.Context) (int, error) {
	return cdb.countQuery(ctx, "SELECT COUNT(DISTINCT source_addr) FROM credentials")
}

// CountUniquePairs returns the number of distinct credential fingerprints.
func (cdb *CaptureDB) CountUniquePairs(ctx context.Context) (int, error) {
	return cdb.countQuery(ctx, "SELECT COUNT(DISTINCT fingerprint) FROM credentials")
}

func (cdb *CaptureDB) countQuery(ctx context.Context, query string) (int, error) {
	var count int
	if err := cdb.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count credentials: %w", err)
	}
	return count, nil
}

// TopUsernames returns the most frequently tried usernames, most frequent first.
func (cdb *CaptureDB) TopUsernames(ctx context.Context, limit int) ([]model.CountedValue, error) {
	return cdb.topQuery(ctx, "username", limit)
}

// TopPasswords returns the most frequently tried passwords, most frequent first.
func (cdb *CaptureDB) TopPasswords(ctx context.Context, limit int) ([]model.CountedValue, error) {
	return cdb.topQuery(ctx, "password", limit)
}

// TopSources returns the most active peer addresses, most active first.
func (cdb *CaptureDB) TopSources(ctx context.Context, limit int) ([]model.CountedValue, error) {
	return cdb.topQuery(ctx, "source_addr", limit)
}

// topQuery aggregates one column by frequency. The column name is always
// one of the fixed identifiers above, never user input.
func (cdb *CaptureDB) topQuery(ctx context.Context, column string, limit int) ([]model.CountedValue, error) {
	query := fmt.Sprintf(`
	SELECT %s, COUNT(*) AS n
	FROM credentials
	GROUP BY %s
	ORDER BY n DESC, %s ASC
	LIMIT ?
	`, column, column, column)

	rows, err := cdb.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate %s: %w", column, err)
	}
	defer func() { _ = rows.Close() }()

	var results []model.CountedValue
	for rows.Next() {
		var cv model.CountedValue
		if err := rows.Scan(&cv.Value, &cv.Count); err != nil {
			return nil, fmt.Errorf("failed to scan aggregate row: %w", err)
		}
		results = append(results, cv)
	}

	return results, rows.Err()
}

// BuildReport assembles the aggregate capture report the report command
// renders. topN bounds the top lists, recentN bounds the recent captures.
// A non-positive bound omits the corresponding lists entirely.
func (cdb *CaptureDB) BuildReport(ctx context.Context, topN, recentN int) (*model.CaptureReport, error) {
	report := &model.CaptureReport{
		GeneratedAt: time.Now().UTC(),
	}

	var err error
	if report.TotalAttempts, err = cdb.CountCredentials(ctx); err != nil {
		return nil, err
	}
	if report.UniqueSources, err = cdb.CountUniqueSources(ctx); err != nil {
		return nil, err
	}
	if report.UniquePairs, err = cdb.CountUniquePairs(ctx); err != nil {
		return nil, err
	}
	if report.TopUsernames, err = cdb.TopUsernames(ctx, topN); err != nil {
		return nil, err
	}
	if report.TopPasswords, err = cdb.TopPasswords(ctx, topN); err != nil {
		return nil, err
	}
	if report.TopSources, err = cdb.TopSources(ctx, topN); err != nil {
		return nil, err
	}
	if recentN > 0 {
		if report.Recent, err = cdb.ListCredentials(ctx, recentN); err != nil {
			return nil, err
		}
	}

	return report, nil
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
