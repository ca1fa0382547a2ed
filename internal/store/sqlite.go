package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/kstrand/attic/internal/ident"
	"github.com/kstrand/attic/internal/session"
)

// maxRevisions bounds the tree revision audit table.
const maxRevisions = 20

// SQLiteStore keeps the current session state in a single-row table
// and a bounded log of tree revisions for recovery.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS state (
		id         INTEGER PRIMARY KEY CHECK (id = 1),
		data       TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS revisions (
		id         TEXT PRIMARY KEY,
		tree       TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_revisions_created ON revisions(created_at DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) Load(ctx context.Context) (*session.State, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM state WHERE id = 1`).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}
	var st session.State
	if err := json.Unmarshal([]byte(data), &st); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	return &st, nil
}

func (s *SQLiteStore) Save(ctx context.Context, st *session.State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	treeJSON, err := json.Marshal(st.Tree)
	if err != nil {
		return fmt.Errorf("encode tree: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO state (id, data, updated_at) VALUES (1, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		string(data), now); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO revisions (id, tree, created_at) VALUES (?, ?, ?)`,
		ident.New(), string(treeJSON), now); err != nil {
		return fmt.Errorf("save revision: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM revisions WHERE id NOT IN (
			SELECT id FROM revisions ORDER BY created_at DESC, id DESC LIMIT ?
		)`, maxRevisions); err != nil {
		return fmt.Errorf("trim revisions: %w", err)
	}
	return tx.Commit()
}

func (s *SQLiteStore) Flush(ctx context.Context) error { return nil }

func (s *SQLiteStore) Close() error { return s.db.Close() }
