package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// SQLite stores records in a single-file database.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(ctx context.Context, path string) (*SQLite, error) {
	if path == "" {
		path = "crawl.db"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create archive directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	// SQLite only supports one writer
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &SQLite{db: db}
	if err := s.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return s, nil
}

func (s *SQLite) createTables(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS pages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		url TEXT NOT NULL UNIQUE,
		host TEXT NOT NULL,
		status_code INTEGER,
		content_type TEXT,
		title TEXT,
		content TEXT,
		word_count INTEGER,
		bytes INTEGER,
		fetched_at DATETIME
	);

	CREATE INDEX IF NOT EXISTS idx_pages_host ON pages(host);
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Save inserts rec, replacing an earlier record for the same URL.
func (s *SQLite) Save(ctx context.Context, rec Record) error {
	query := `
	INSERT INTO pages (url, host, status_code, content_type, title, content, word_count, bytes, fetched_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(url) DO UPDATE SET
		host = excluded.host,
		status_code = excluded.status_code,
		content_type = excluded.content_type,
		title = excluded.title,
		content = excluded.content,
		word_count = excluded.word_count,
		bytes = excluded.bytes,
		fetched_at = excluded.fetched_at
	`
	_, err := s.db.ExecContext(ctx, query,
		rec.URL, rec.Host, rec.StatusCode, rec.ContentType, rec.Title,
		rec.Content, rec.Words, rec.Bytes, rec.FetchedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert page: %w", err)
	}
	return nil
}

// Count returns the number of stored pages.
func (s *SQLite) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pages`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *SQLite) Close(context.Context) error {
	return s.db.Close()
}
