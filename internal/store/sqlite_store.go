package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"hydratutor/internal/stash"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps one row per stash in a WAL-mode database.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dbPath = strings.TrimSpace(dbPath)
	if dbPath == "" {
		return nil, fmt.Errorf("sqlite db path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("exec %q: %w", p, err)
		}
	}

	st := &SQLiteStore{db: db, path: dbPath}
	if err := st.ensureSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return st, nil
}

func (st *SQLiteStore) ensureSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS stashes (
		uid        TEXT NOT NULL,
		variant    TEXT NOT NULL,
		entries    TEXT NOT NULL DEFAULT '[]',
		updated_at TEXT NOT NULL,
		PRIMARY KEY(uid, variant)
	);
	`
	_, err := st.db.Exec(schema)
	return err
}

func (st *SQLiteStore) Path() string {
	return st.path
}

func (st *SQLiteStore) Save(ctx context.Context, key Key, entries []stash.Entry) error {
	doc, err := stash.Encode(entries)
	if err != nil {
		return fmt.Errorf("marshal stash: %w", err)
	}
	_, err = st.db.ExecContext(ctx, `
		INSERT INTO stashes(uid, variant, entries, updated_at) VALUES(?, ?, ?, ?)
		ON CONFLICT(uid, variant) DO UPDATE SET entries = excluded.entries, updated_at = excluded.updated_at`,
		key.UID, key.Variant, doc, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("save stash %s: %w", key, err)
	}
	return nil
}

func (st *SQLiteStore) Get(ctx context.Context, key Key) ([]stash.Entry, bool, error) {
	var doc string
	err := st.db.QueryRowContext(ctx,
		`SELECT entries FROM stashes WHERE uid = ? AND variant = ?`, key.UID, key.Variant).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load stash %s: %w", key, err)
	}
	entries, err := stash.Decode(doc)
	if err != nil {
		return nil, false, fmt.Errorf("decode stash %s: %w", key, err)
	}
	return entries, true, nil
}

func (st *SQLiteStore) Delete(ctx context.Context, key Key) error {
	if _, err := st.db.ExecContext(ctx,
		`DELETE FROM stashes WHERE uid = ? AND variant = ?`, key.UID, key.Variant); err != nil {
		return fmt.Errorf("delete stash %s: %w", key, err)
	}
	return nil
}

func (st *SQLiteStore) Close() error {
	return st.db.Close()
}
