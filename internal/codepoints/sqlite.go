package codepoints

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists assignments across process invocations.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens (or creates) the assignment database.
// Use ":memory:" for an in-memory database, or a file path for persistent storage.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// a single connection keeps ":memory:" databases coherent
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS codepoints (
		font TEXT NOT NULL,
		glyph TEXT NOT NULL,
		codepoint INTEGER NOT NULL,
		PRIMARY KEY (font, glyph)
	);
	CREATE INDEX IF NOT EXISTS idx_codepoints_font ON codepoints(font);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Load returns every assignment recorded for font.
func (s *SQLiteStore) Load(ctx context.Context, font string) (map[string]rune, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT glyph, codepoint FROM codepoints WHERE font = ?", font)
	if err != nil {
		return nil, fmt.Errorf("query codepoints: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[string]rune)
	for rows.Next() {
		var glyph string
		var cp int64
		if err := rows.Scan(&glyph, &cp); err != nil {
			return nil, fmt.Errorf("scan codepoint: %w", err)
		}
		out[glyph] = rune(cp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

// Save upserts assignments. Glyphs that disappeared keep their rows so a
// returning icon gets its old code point back.
func (s *SQLiteStore) Save(ctx context.Context, font string, assigned map[string]rune) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO codepoints (font, glyph, codepoint) VALUES (?, ?, ?) ON CONFLICT(font, glyph) DO UPDATE SET codepoint = excluded.codepoint")
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for glyph, cp := range assigned {
		if _, err := stmt.ExecContext(ctx, font, glyph, int64(cp)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("upsert codepoint: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit codepoints: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
