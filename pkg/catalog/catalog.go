// Package catalog keeps a small SQLite record of the source files that were
// loaded and the outcome of the last load of each.
package catalog

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when no catalogued source matches.
var ErrNotFound = errors.New("source not found")

// Entry is one row of the sources table.
type Entry struct {
	Path        string
	Name        string
	Size        int64
	Checksum    string
	SnapshotID  *string
	ValidRows   int
	DroppedRows int
	LoadedAt    *int64
	LastError   *string
	UpdatedAt   int64
}

// Catalog manages the sources SQLite table.
type Catalog struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (or creates) the SQLite database at path and ensures the
// sources table exists.
func Open(path string) (*Catalog, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}

	const ddl = `CREATE TABLE IF NOT EXISTS sources (
		path          TEXT PRIMARY KEY,
		name          TEXT NOT NULL,
		size          INTEGER NOT NULL DEFAULT 0,
		checksum      TEXT NOT NULL DEFAULT '',
		snapshot_id   TEXT,
		valid_rows    INTEGER NOT NULL DEFAULT 0,
		dropped_rows  INTEGER NOT NULL DEFAULT 0,
		loaded_at     INTEGER,
		last_error    TEXT,
		updated_at    INTEGER NOT NULL
	)`
	if _, err := db.Exec(ddl); err != nil {
		db.Close()
		return nil, fmt.Errorf("create sources table: %w", err)
	}

	return &Catalog{db: db, now: time.Now}, nil
}

// Close closes the SQLite connection.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// RecordLoad stores a successful load. The previous error, if any, is cleared.
func (c *Catalog) RecordLoad(e Entry) error {
	now := c.now().Unix()
	_, err := c.db.Exec(`INSERT INTO sources
		(path, name, size, checksum, snapshot_id, valid_rows, dropped_rows, loaded_at, last_error, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, NULL, ?)
		ON CONFLICT(path) DO UPDATE SET
			name = excluded.name, size = excluded.size, checksum = excluded.checksum,
			snapshot_id = excluded.snapshot_id, valid_rows = excluded.valid_rows,
			dropped_rows = excluded.dropped_rows, loaded_at = excluded.loaded_at,
			last_error = NULL, updated_at = excluded.updated_at`,
		e.Path, e.Name, e.Size, e.Checksum, e.SnapshotID, e.ValidRows, e.DroppedRows, now, now)
	if err != nil {
		return fmt.Errorf("record load of %s: %w", e.Path, err)
	}
	return nil
}

// RecordFailure stores a failed load. Fields of the last successful load are kept.
func (c *Catalog) RecordFailure(path, name string, loadErr error) error {
	now := c.now().Unix()
	msg := loadErr.Error()
	_, err := c.db.Exec(`INSERT INTO sources (path, name, last_error, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET last_error = excluded.last_error, updated_at = excluded.updated_at`,
		path, name, msg, now)
	if err != nil {
		return fmt.Errorf("record failure of %s: %w", path, err)
	}
	return nil
}

const selectEntry = `SELECT path, name, size, checksum, snapshot_id, valid_rows, dropped_rows,
	loaded_at, last_error, updated_at FROM sources`

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (Entry, error) {
	var e Entry
	err := s.Scan(&e.Path, &e.Name, &e.Size, &e.Checksum, &e.SnapshotID, &e.ValidRows,
		&e.DroppedRows, &e.LoadedAt, &e.LastError, &e.UpdatedAt)
	return e, err
}

// Get returns the entry for path.
func (c *Catalog) Get(path string) (Entry, error) {
	e, err := scanEntry(c.db.QueryRow(selectEntry+` WHERE path = ?`, path))
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	if err != nil {
		return Entry{}, fmt.Errorf("get %s: %w", path, err)
	}
	return e, nil
}

// LastGood returns the most recently loaded source whose last load succeeded.
func (c *Catalog) LastGood() (Entry, error) {
	e, err := scanEntry(c.db.QueryRow(selectEntry +
		` WHERE last_error IS NULL AND loaded_at IS NOT NULL ORDER BY loaded_at DESC, path LIMIT 1`))
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("last good source: %w", err)
	}
	return e, nil
}

// List returns all entries ordered by path.
func (c *Catalog) List() ([]Entry, error) {
	rows, err := c.db.Query(selectEntry + ` ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan source: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
