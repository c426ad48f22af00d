package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"riddleme-service/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS game_state (
    id         INTEGER PRIMARY KEY,
    data       TEXT NOT NULL,
    updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
);`

// StateStore keeps the game aggregate as a JSON document in a local SQLite file.
type StateStore struct {
	db *sql.DB
}

// Open creates the database file (and its directory) if missing and ensures the schema.
func Open(path string) (*StateStore, error) {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &StateStore{db: db}, nil
}

func (s *StateStore) Close() error {
	return s.db.Close()
}

func (s *StateStore) Load(ctx context.Context) (domain.State, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM game_state WHERE id = 1`).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.State{}, nil
	}
	if err != nil {
		return domain.State{}, fmt.Errorf("load state: %w", err)
	}
	var state domain.State
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return domain.State{}, fmt.Errorf("unmarshal state: %w", err)
	}
	return state, nil
}

func (s *StateStore) Save(ctx context.Context, state domain.State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO game_state (id, data) VALUES (1, ?)
		ON CONFLICT(id) DO UPDATE SET data = excluded.data,
			updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')`, string(data))
	if err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}
