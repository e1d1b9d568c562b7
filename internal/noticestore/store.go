// Package noticestore persists procurement-notice metadata so deck runs can
// pull the issuing agency into the cover and closing slides. The store is a
// single sqlite table; a missing notice is not an error for callers, they get
// a nil row and fall back to the plain deck.
package noticestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const schema = `
CREATE TABLE IF NOT EXISTS notices (
    id         TEXT PRIMARY KEY,
    title      TEXT NOT NULL DEFAULT '',
    author     TEXT NOT NULL DEFAULT '',
    agency     TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL DEFAULT (strftime('%s','now'))
);
`

// Notice is one announcement row. Agency is the field the pipeline injects
// into cover/thanks tables; the rest is kept for the notice API.
type Notice struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	Agency    string    `json:"agency"`
	CreatedAt time.Time `json:"created_at"`
}

// Store wraps the notices table on an open sqlite handle.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the sqlite database at path and applies the
// notices schema. The caller must blank-import a database/sql sqlite driver:
//
//	import _ "modernc.org/sqlite"
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("noticestore: mkdir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("noticestore: open: %w", err)
	}
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("noticestore: %s: %w", p, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("noticestore: schema: %w", err)
	}
	if path == ":memory:" {
		// Each connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// Get returns the notice with the given id, or (nil, nil) when no row exists.
func (s *Store) Get(ctx context.Context, id string) (*Notice, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, author, agency, created_at FROM notices WHERE id = ?`, id)

	var n Notice
	var created int64
	err := row.Scan(&n.ID, &n.Title, &n.Author, &n.Agency, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("noticestore: get %q: %w", id, err)
	}
	n.CreatedAt = time.Unix(created, 0).UTC()
	return &n, nil
}

// Put inserts or replaces a notice. The id must be non-empty; CreatedAt is
// set on first insert and preserved on update.
func (s *Store) Put(ctx context.Context, n *Notice) error {
	if strings.TrimSpace(n.ID) == "" {
		return errors.New("noticestore: empty notice id")
	}
	created := n.CreatedAt.Unix()
	if n.CreatedAt.IsZero() {
		created = time.Now().Unix()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notices (id, title, author, agency, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
		    title  = excluded.title,
		    author = excluded.author,
		    agency = excluded.agency`,
		n.ID, n.Title, n.Author, n.Agency, created)
	if err != nil {
		return fmt.Errorf("noticestore: put %q: %w", n.ID, err)
	}
	return nil
}

// List returns up to limit notices, newest first. limit <= 0 means 50.
func (s *Store) List(ctx context.Context, limit int) ([]*Notice, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, author, agency, created_at
		FROM notices ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("noticestore: list: %w", err)
	}
	defer rows.Close()

	var out []*Notice
	for rows.Next() {
		var n Notice
		var created int64
		if err := rows.Scan(&n.ID, &n.Title, &n.Author, &n.Agency, &created); err != nil {
			return nil, fmt.Errorf("noticestore: list scan: %w", err)
		}
		n.CreatedAt = time.Unix(created, 0).UTC()
		out = append(out, &n)
	}
	return out, rows.Err()
}
