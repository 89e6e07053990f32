package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tphummel/lab_post/internal/models"
	_ "modernc.org/sqlite"
)

// DB wraps a SQLite connection holding the boot run journal.
type DB struct {
	conn *sql.DB
}

// New opens the SQLite database at path, enables WAL mode, and runs migrations.
func New(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if path == ":memory:" {
		// Each connection would get its own empty database.
		conn.SetMaxOpenConns(1)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("enable WAL: %w", err)
	}

	if err := migrate(conn); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &DB{conn: conn}, nil
}

func migrate(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE TABLE IF NOT EXISTS boot_runs (
			id              TEXT PRIMARY KEY,
			serial          TEXT NOT NULL DEFAULT '',
			standby_voltage REAL NOT NULL DEFAULT 0,
			normal_voltage  REAL NOT NULL DEFAULT 0,
			state           TEXT NOT NULL,
			outcome         TEXT NOT NULL,
			stage           TEXT NOT NULL DEFAULT '',
			reason          TEXT NOT NULL DEFAULT '',
			messages        TEXT NOT NULL DEFAULT '[]',
			devices         TEXT NOT NULL DEFAULT '[]',
			started_at      DATETIME NOT NULL,
			finished_at     DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_boot_runs_outcome ON boot_runs(outcome);
		CREATE INDEX IF NOT EXISTS idx_boot_runs_started_at ON boot_runs(started_at);
	`)
	return err
}

// Close closes the underlying database connection.
func (d *DB) Close() error {
	return d.conn.Close()
}

// Ping verifies the database connection is alive.
func (d *DB) Ping() error {
	return d.conn.Ping()
}

const selectColumns = `
	SELECT id, serial, standby_voltage, normal_voltage, state, outcome, stage, reason,
	       messages, devices, started_at, finished_at
	FROM boot_runs`

// Create inserts a finished boot run.
func (d *DB) Create(run *models.BootRun) error {
	messages, err := json.Marshal(run.Messages)
	if err != nil {
		return fmt.Errorf("encode messages: %w", err)
	}
	devices, err := json.Marshal(run.Devices)
	if err != nil {
		return fmt.Errorf("encode devices: %w", err)
	}
	_, err = d.conn.Exec(`
		INSERT INTO boot_runs (id, serial, standby_voltage, normal_voltage, state, outcome, stage, reason,
		                       messages, devices, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Serial, run.StandbyVoltage, run.NormalVoltage,
		run.State, run.Outcome, run.Stage, run.Reason,
		string(messages), string(devices),
		run.StartedAt.UTC().Format(time.RFC3339Nano),
		run.FinishedAt.UTC().Format(time.RFC3339Nano),
	)
	return err
}

// GetByID returns the boot run with the given ID, or sql.ErrNoRows if not found.
func (d *DB) GetByID(id string) (*models.BootRun, error) {
	return scan(d.conn.QueryRow(selectColumns+` WHERE id = ?`, id))
}

// List returns all boot runs in start order, optionally filtered by outcome.
func (d *DB) List(outcome string) ([]*models.BootRun, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if outcome != "" {
		rows, err = d.conn.Query(selectColumns+` WHERE outcome = ? ORDER BY started_at, id`, outcome)
	} else {
		rows, err = d.conn.Query(selectColumns + ` ORDER BY started_at, id`)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*models.BootRun
	for rows.Next() {
		run, err := scan(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Delete removes the boot run with the given ID.
// Returns sql.ErrNoRows if no such run exists.
func (d *DB) Delete(id string) error {
	res, err := d.conn.Exec(`DELETE FROM boot_runs WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CountByOutcome returns the number of recorded runs per outcome.
func (d *DB) CountByOutcome() (map[string]int, error) {
	rows, err := d.conn.Query(`SELECT outcome, COUNT(*) FROM boot_runs GROUP BY outcome`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			outcome string
			n       int
		)
		if err := rows.Scan(&outcome, &n); err != nil {
			return nil, err
		}
		counts[outcome] = n
	}
	return counts, rows.Err()
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scan(s scanner) (*models.BootRun, error) {
	var (
		run                   models.BootRun
		messages, devices     string
		startedAt, finishedAt string
	)
	if err := s.Scan(
		&run.ID, &run.Serial, &run.StandbyVoltage, &run.NormalVoltage,
		&run.State, &run.Outcome, &run.Stage, &run.Reason,
		&messages, &devices, &startedAt, &finishedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(messages), &run.Messages); err != nil {
		return nil, fmt.Errorf("decode messages: %w", err)
	}
	if err := json.Unmarshal([]byte(devices), &run.Devices); err != nil {
		return nil, fmt.Errorf("decode devices: %w", err)
	}
	var err error
	run.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt)
	if err != nil {
		return nil, fmt.Errorf("parse started_at %q: %w", startedAt, err)
	}
	run.FinishedAt, err = time.Parse(time.RFC3339Nano, finishedAt)
	if err != nil {
		return nil, fmt.Errorf("parse finished_at %q: %w", finishedAt, err)
	}
	return &run, nil
}
