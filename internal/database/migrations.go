package database

import (
	"database/sql"
	"fmt"
	"time"
)

// Migration represents a database schema migration
type Migration struct {
	Version     int
	Description string
	Up          func(*sql.Tx) error
	Down        func(*sql.Tx) error
}

// migrations is the ordered list of all database migrations
var migrations = []Migration{
	{
		Version:     1,
		Description: "Create schema_version table",
		Up:          migration001Up,
		Down:        migration001Down,
	},
	{
		Version:     2,
		Description: "Create run_sessions and deploy_log tables",
		Up:          migration002Up,
		Down:        migration002Down,
	},
	{
		Version:     3,
		Description: "Create recent_deploys view",
		Up:          migration003Up,
		Down:        migration003Down,
	},
}

// RunMigrations runs all pending database migrations
func (db *DB) RunMigrations() error {
	currentVersion, err := db.getCurrentVersion()
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		err := db.ExecTx(func(tx *sql.Tx) error {
			if err := migration.Up(tx); err != nil {
				return fmt.Errorf("migration %d failed: %w", migration.Version, err)
			}

			_, err := tx.Exec(`
				INSERT INTO schema_version (version, description, applied_at)
				VALUES (?, ?, ?)
			`, migration.Version, migration.Description, time.Now())

			return err
		})

		if err != nil {
			return err
		}
	}

	return nil
}

// getCurrentVersion returns the current schema version
func (db *DB) getCurrentVersion() (int, error) {
	var tableExists bool
	err := db.conn.QueryRow(`
		SELECT COUNT(*) > 0
		FROM sqlite_master
		WHERE type='table' AND name='schema_version'
	`).Scan(&tableExists)

	if err != nil {
		return 0, err
	}

	if !tableExists {
		return 0, nil
	}

	var version int
	err = db.conn.QueryRow(`
		SELECT COALESCE(MAX(version), 0)
		FROM schema_version
	`).Scan(&version)

	if err != nil {
		return 0, err
	}

	return version, nil
}

// Migration 001: Schema version tracking table
func migration001Up(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			version INTEGER NOT NULL UNIQUE,
			description TEXT NOT NULL,
			applied_at DATETIME NOT NULL
		)
	`)
	return err
}

func migration001Down(tx *sql.Tx) error {
	_, err := tx.Exec(`DROP TABLE IF EXISTS schema_version`)
	return err
}

// Migration 002: Run sessions and per-deploy log
func migration002Up(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE run_sessions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			window_title TEXT NOT NULL,
			randomized INTEGER NOT NULL DEFAULT 0,
			started_at DATETIME NOT NULL,
			completed_at DATETIME,
			status TEXT NOT NULL DEFAULT 'running',
			deploys INTEGER NOT NULL DEFAULT 0,
			failed_cycles INTEGER NOT NULL DEFAULT 0
		)
	`)
	if err != nil {
		return err
	}

	_, err = tx.Exec(`
		CREATE TABLE deploy_log (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id INTEGER NOT NULL REFERENCES run_sessions(id),
			slot INTEGER NOT NULL,
			card TEXT NOT NULL DEFAULT 'unknown',
			confidence REAL NOT NULL DEFAULT 0,
			target_x REAL NOT NULL,
			target_y REAL NOT NULL,
			dry_run INTEGER NOT NULL DEFAULT 0,
			deployed_at DATETIME NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	_, err = tx.Exec(`CREATE INDEX idx_deploy_log_session ON deploy_log(session_id)`)
	return err
}

func migration002Down(tx *sql.Tx) error {
	if _, err := tx.Exec(`DROP TABLE IF EXISTS deploy_log`); err != nil {
		return err
	}
	_, err := tx.Exec(`DROP TABLE IF EXISTS run_sessions`)
	return err
}

// Migration 003: Convenience view over recent deploys
func migration003Up(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE VIEW recent_deploys AS
		SELECT
			d.id,
			d.session_id,
			s.window_title,
			d.slot,
			d.card,
			d.confidence,
			d.target_x,
			d.target_y,
			d.dry_run,
			d.deployed_at
		FROM deploy_log d
		JOIN run_sessions s ON s.id = d.session_id
		ORDER BY d.deployed_at DESC
	`)
	return err
}

func migration003Down(tx *sql.Tx) error {
	_, err := tx.Exec(`DROP VIEW IF EXISTS recent_deploys`)
	return err
}
