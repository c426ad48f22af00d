package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"riddleme-service/internal/domain"
)

// stateRowID is the primary key of the single aggregate row.
const stateRowID = 1

// StateStore keeps the game aggregate as JSONB in the game_state table.
type StateStore struct {
	pool *pgxpool.Pool
}

func NewStateStore(pool *pgxpool.Pool) *StateStore {
	return &StateStore{pool: pool}
}

func (s *StateStore) Load(ctx context.Context) (domain.State, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM game_state WHERE id=$1`, stateRowID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.State{}, nil
	}
	if err != nil {
		return domain.State{}, fmt.Errorf("load state: %w", err)
	}
	var state domain.State
	if err := json.Unmarshal(raw, &state); err != nil {
		return domain.State{}, fmt.Errorf("unmarshal state: %w", err)
	}
	return state, nil
}

func (s *StateStore) Save(ctx context.Context, state domain.State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO game_state (id, data, updated_at) VALUES ($1, $2::jsonb, now())
		ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`,
		stateRowID, string(data))
	if err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}
