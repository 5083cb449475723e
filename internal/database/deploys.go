package database

import (
	"database/sql"
	"fmt"
	"time"

	"jordanella.com/clash-arena-go/internal/bot"
)

// Deploy history operations. DB satisfies bot.Recorder.

// Session is a row from run_sessions
type Session struct {
	ID           int64
	WindowTitle  string
	Randomized   bool
	StartedAt    time.Time
	CompletedAt  *time.Time
	Status       string
	Deploys      int
	FailedCycles int
}

// Deploy is a row from the recent_deploys view
type Deploy struct {
	ID          int64
	SessionID   int64
	WindowTitle string
	Slot        int
	Card        string
	Confidence  float64
	TargetX     float64
	TargetY     float64
	DryRun      bool
	DeployedAt  time.Time
}

// StartSession creates a new run session and returns its ID
func (db *DB) StartSession(windowTitle string, randomize bool) (int64, error) {
	var sessionID int64
	err := db.ExecTx(func(tx *sql.Tx) error {
		result, err := tx.Exec(`
			INSERT INTO run_sessions (window_title, randomized, started_at, status)
			VALUES (?, ?, ?, 'running')
		`, windowTitle, randomize, time.Now())

		if err != nil {
			return fmt.Errorf("failed to insert run session: %w", err)
		}

		sessionID, err = result.LastInsertId()
		return err
	})

	if err != nil {
		return 0, err
	}

	return sessionID, nil
}

// RecordDeploy logs one executed deploy against a session
func (db *DB) RecordDeploy(sessionID int64, record bot.DeployRecord) error {
	return db.ExecTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO deploy_log (
				session_id, slot, card, confidence,
				target_x, target_y, dry_run, deployed_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, sessionID, record.Slot, record.Card, record.Confidence,
			record.TargetX, record.TargetY, record.DryRun, record.At)

		if err != nil {
			return fmt.Errorf("failed to insert deploy: %w", err)
		}
		return nil
	})
}

// CompleteSession finalizes a run session with its outcome
func (db *DB) CompleteSession(sessionID int64, deploys, failedCycles int, status string) error {
	return db.ExecTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			UPDATE run_sessions
			SET completed_at = ?,
				status = ?,
				deploys = ?,
				failed_cycles = ?
			WHERE id = ?
		`, time.Now(), status, deploys, failedCycles, sessionID)
		return err
	})
}

// GetSession fetches a single run session
func (db *DB) GetSession(sessionID int64) (*Session, error) {
	var s Session
	var randomized int
	err := db.conn.QueryRow(`
		SELECT id, window_title, randomized, started_at, completed_at,
			status, deploys, failed_cycles
		FROM run_sessions
		WHERE id = ?
	`, sessionID).Scan(&s.ID, &s.WindowTitle, &randomized, &s.StartedAt,
		&s.CompletedAt, &s.Status, &s.Deploys, &s.FailedCycles)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("session %d not found", sessionID)
	}
	if err != nil {
		return nil, err
	}

	s.Randomized = randomized != 0
	return &s, nil
}

// RecentDeploys returns the latest deploys across all sessions, newest first
func (db *DB) RecentDeploys(limit int) ([]Deploy, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := db.conn.Query(`
		SELECT id, session_id, window_title, slot, card, confidence,
			target_x, target_y, dry_run, deployed_at
		FROM recent_deploys
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent deploys: %w", err)
	}
	defer rows.Close()

	var deploys []Deploy
	for rows.Next() {
		var d Deploy
		var dryRun int
		if err := rows.Scan(&d.ID, &d.SessionID, &d.WindowTitle, &d.Slot,
			&d.Card, &d.Confidence, &d.TargetX, &d.TargetY,
			&dryRun, &d.DeployedAt); err != nil {
			return nil, err
		}
		d.DryRun = dryRun != 0
		deploys = append(deploys, d)
	}

	return deploys, rows.Err()
}
