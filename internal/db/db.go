package db

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"starmap/internal/logger"
	_ "modernc.org/sqlite"
)

// ErrUnknownPilot is returned when a pilot has never been saved.
var ErrUnknownPilot = errors.New("db: unknown pilot")

// DB wraps a SQLite database connection.
type DB struct {
	sql *sql.DB
}

// DefaultPath returns starmap.db in the working directory, falling back to
// the executable's directory.
func DefaultPath() string {
	if wd, err := os.Getwd(); err == nil {
		return filepath.Join(wd, "starmap.db")
	}
	exe, _ := os.Executable()
	return filepath.Join(filepath.Dir(exe), "starmap.db")
}

// Open opens (or creates) the SQLite database at path and runs migrations.
func Open(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	d := &DB{sql: sqlDB}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrate db: %w", err)
	}
	logger.Success("DB", fmt.Sprintf("Opened %s", path))
	return d, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.sql.Close()
}

func (d *DB) migrate() error {
	version := 0
	// Missing table on a fresh database leaves version at 0
	d.sql.QueryRow("SELECT version FROM schema_version ORDER BY version DESC LIMIT 1").Scan(&version)

	if version < 1 {
		_, err := d.sql.Exec(`
			CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY);

			CREATE TABLE IF NOT EXISTS config (
				key   TEXT PRIMARY KEY,
				value TEXT NOT NULL
			);

			CREATE TABLE IF NOT EXISTS systems (
				id   INTEGER PRIMARY KEY,
				name TEXT NOT NULL,
				x    REAL NOT NULL DEFAULT 0,
				y    REAL NOT NULL DEFAULT 0
			);
			CREATE INDEX IF NOT EXISTS idx_systems_name ON systems(name COLLATE NOCASE);

			CREATE TABLE IF NOT EXISTS links (
				from_system INTEGER NOT NULL REFERENCES systems(id) ON DELETE CASCADE,
				to_system   INTEGER NOT NULL REFERENCES systems(id) ON DELETE CASCADE,
				ord         INTEGER NOT NULL,
				PRIMARY KEY (from_system, to_system)
			);

			INSERT OR IGNORE INTO schema_version (version) VALUES (1);
		`)
		if err != nil {
			return fmt.Errorf("migration v1: %w", err)
		}
		logger.Info("DB", "Applied migration v1 (galaxy)")
	}

	if version < 2 {
		_, err := d.sql.Exec(`
			CREATE TABLE IF NOT EXISTS pilots (
				name        TEXT PRIMARY KEY,
				has_ship    INTEGER NOT NULL DEFAULT 0,
				ship_name   TEXT NOT NULL DEFAULT '',
				ship_system INTEGER NOT NULL DEFAULT 0,
				attributes  TEXT NOT NULL DEFAULT '{}',
				updated_at  TEXT NOT NULL
			);

			CREATE TABLE IF NOT EXISTS pilot_seen (
				pilot  TEXT NOT NULL REFERENCES pilots(name) ON DELETE CASCADE,
				system INTEGER NOT NULL,
				PRIMARY KEY (pilot, system)
			);

			CREATE TABLE IF NOT EXISTS pilot_visited (
				pilot  TEXT NOT NULL REFERENCES pilots(name) ON DELETE CASCADE,
				system INTEGER NOT NULL,
				PRIMARY KEY (pilot, system)
			);

			INSERT OR IGNORE INTO schema_version (version) VALUES (2);
		`)
		if err != nil {
			return fmt.Errorf("migration v2: %w", err)
		}
		logger.Info("DB", "Applied migration v2 (pilots)")
	}

	return nil
}
