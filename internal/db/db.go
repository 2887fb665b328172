package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when no history record matches an install ID
var ErrNotFound = errors.New("install not found")

// DB represents the install history database with separate read/write pools
type DB struct {
	write *sql.DB
	read  *sql.DB
	path  string
}

// New opens (creating if needed) the history database at dbPath
func New(ctx context.Context, dbPath string) (*DB, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	connStr := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", dbPath)

	// Write pool: MUST be 1 connection only
	write, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open write connection: %w", err)
	}
	write.SetMaxOpenConns(1)
	write.SetMaxIdleConns(1)
	write.SetConnMaxIdleTime(time.Minute)
	write.SetConnMaxLifetime(time.Hour)

	read, err := sql.Open("sqlite", connStr)
	if err != nil {
		write.Close()
		return nil, fmt.Errorf("open read connection: %w", err)
	}
	read.SetMaxOpenConns(10)
	read.SetMaxIdleConns(5)
	read.SetConnMaxIdleTime(time.Minute)
	read.SetConnMaxLifetime(time.Hour)

	db := &DB{
		write: write,
		read:  read,
		path:  dbPath,
	}

	if err := db.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return db, nil
}

// Path returns the database file path
func (db *DB) Path() string {
	return db.path
}

// Close closes both database connections
func (db *DB) Close() error {
	writeErr := db.write.Close()
	readErr := db.read.Close()
	if writeErr != nil {
		return writeErr
	}
	return readErr
}

// initSchema creates the schema if it doesn't exist
func (db *DB) initSchema(ctx context.Context) error {
	schema := `
CREATE TABLE IF NOT EXISTS installs (
    install_id TEXT PRIMARY KEY,
    package TEXT NOT NULL,
    version TEXT,
    package_file TEXT NOT NULL,
    status TEXT NOT NULL,
    exit_code INTEGER NOT NULL DEFAULT 0,
    install_date DATETIME DEFAULT CURRENT_TIMESTAMP,
    duration_ms INTEGER NOT NULL DEFAULT 0,
    log TEXT,
    metadata TEXT
);

CREATE INDEX IF NOT EXISTS idx_installs_package ON installs(package);
CREATE INDEX IF NOT EXISTS idx_installs_status ON installs(status);
	`

	_, err := db.write.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	return nil
}

// Install is one recorded installation attempt
type Install struct {
	InstallID   string
	Package     string
	Version     string
	PackageFile string
	// Status is the final session status ("succeeded" or "failed")
	Status      string
	ExitCode    int
	InstallDate time.Time
	Duration    time.Duration
	// Log holds the dpkg output relayed during the install
	Log      string
	Metadata map[string]string
}

const installColumns = `install_id, package, version, package_file, status, exit_code, install_date, duration_ms, log, metadata`

// Create records an installation attempt
func (db *DB) Create(ctx context.Context, install *Install) error {
	metadataJSON, err := json.Marshal(install.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	query := `INSERT INTO installs (` + installColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = db.write.ExecContext(ctx, query,
		install.InstallID,
		install.Package,
		install.Version,
		install.PackageFile,
		install.Status,
		install.ExitCode,
		install.InstallDate,
		install.Duration.Milliseconds(),
		install.Log,
		string(metadataJSON),
	)
	if err != nil {
		return fmt.Errorf("insert install: %w", err)
	}

	return nil
}

// Get retrieves an install record by ID
func (db *DB) Get(ctx context.Context, installID string) (*Install, error) {
	query := `SELECT ` + installColumns + ` FROM installs WHERE install_id = ?`

	install, err := scanInstall(db.read.QueryRowContext(ctx, query, installID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, installID)
	}
	if err != nil {
		return nil, err
	}

	return install, nil
}

// List retrieves all install records, newest first
func (db *DB) List(ctx context.Context) ([]Install, error) {
	query := `SELECT ` + installColumns + ` FROM installs ORDER BY install_date DESC, install_id DESC`

	rows, err := db.read.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query installs: %w", err)
	}
	defer rows.Close()

	var installs []Install
	for rows.Next() {
		install, err := scanInstall(rows)
		if err != nil {
			return nil, err
		}
		installs = append(installs, *install)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return installs, nil
}

// Delete removes an install record
func (db *DB) Delete(ctx context.Context, installID string) error {
	result, err := db.write.ExecContext(ctx, "DELETE FROM installs WHERE install_id = ?", installID)
	if err != nil {
		return fmt.Errorf("delete install: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, installID)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInstall(row rowScanner) (*Install, error) {
	var install Install
	var version, log, metadataJSON sql.NullString
	var durationMs int64

	err := row.Scan(
		&install.InstallID,
		&install.Package,
		&version,
		&install.PackageFile,
		&install.Status,
		&install.ExitCode,
		&install.InstallDate,
		&durationMs,
		&log,
		&metadataJSON,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan install: %w", err)
	}

	install.Version = version.String
	install.Log = log.String
	install.Duration = time.Duration(durationMs) * time.Millisecond

	if metadataJSON.Valid && metadataJSON.String != "" {
		if err := json.Unmarshal([]byte(metadataJSON.String), &install.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}

	return &install, nil
}
