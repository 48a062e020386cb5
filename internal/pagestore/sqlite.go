// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pagestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/wikibacon/pkg/types"
)

const sqliteFile = "pages.db"

// SQLite stores pages in dir/pages.db.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens or creates the page database in dir and creates the
// schema if it does not exist.
func OpenSQLite(dir string) (*SQLite, error) {
	if dir == "" {
		return nil, errors.New("sqlite store: path is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	dbPath := filepath.Join(dir, sqliteFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &SQLite{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

func (s *SQLite) createSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS pages (
		key TEXT PRIMARY KEY,
		id TEXT NOT NULL,
		title TEXT,
		summary TEXT,
		links TEXT,
		categories TEXT,
		namespace INTEGER,
		disambiguation INTEGER,
		fetched_at TEXT
	)`)
	if err != nil {
		return fmt.Errorf("executing schema statement: %w", err)
	}
	return nil
}

// Get implements Store.
func (s *SQLite) Get(ctx context.Context, key string) (*types.Page, error) {
	var (
		p                   types.Page
		linksJSON, catsJSON string
		disambiguation      int
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, summary, links, categories, namespace, disambiguation
		 FROM pages WHERE key = ?`, key,
	).Scan(&p.ID, &p.Title, &p.Summary, &linksJSON, &catsJSON, &p.Namespace, &disambiguation)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("querying page %q: %w", key, err)
	}

	if err := json.Unmarshal([]byte(linksJSON), &p.Links); err != nil {
		return nil, fmt.Errorf("decoding links of %q: %w", key, err)
	}
	if err := json.Unmarshal([]byte(catsJSON), &p.Categories); err != nil {
		return nil, fmt.Errorf("decoding categories of %q: %w", key, err)
	}
	p.Disambiguation = disambiguation != 0
	return &p, nil
}

// Put implements Store. An existing row for key is replaced.
func (s *SQLite) Put(ctx context.Context, key string, page *types.Page) error {
	linksJSON, _ := json.Marshal(page.Links)
	catsJSON, _ := json.Marshal(page.Categories)
	disambiguation := 0
	if page.Disambiguation {
		disambiguation = 1
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO pages (key, id, title, summary, links, categories, namespace, disambiguation, fetched_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET
			id=excluded.id, title=excluded.title, summary=excluded.summary,
			links=excluded.links, categories=excluded.categories, namespace=excluded.namespace,
			disambiguation=excluded.disambiguation, fetched_at=excluded.fetched_at`,
		key, page.ID, page.Title, page.Summary, string(linksJSON), string(catsJSON),
		page.Namespace, disambiguation, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upserting page %q: %w", key, err)
	}
	return nil
}

// Count implements Store.
func (s *SQLite) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM pages`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting pages: %w", err)
	}
	return n, nil
}

// Purge implements Store.
func (s *SQLite) Purge(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM pages`); err != nil {
		return fmt.Errorf("purging pages: %w", err)
	}
	return nil
}

// Close releases the database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}
