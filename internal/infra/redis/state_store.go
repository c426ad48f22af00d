package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"riddleme-service/internal/domain"
)

// DefaultStateKey is where the aggregate lives when no key is configured.
const DefaultStateKey = "riddleme:state"

// StateStore keeps the game aggregate as one JSON document in Redis.
// Stored as: SET {key} {json}
type StateStore struct {
	client *redis.Client
	key    string
}

func NewStateStore(client *redis.Client, key string) *StateStore {
	if key == "" {
		key = DefaultStateKey
	}
	return &StateStore{client: client, key: key}
}

func (s *StateStore) Load(ctx context.Context) (domain.State, error) {
	raw, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.State{}, nil
	}
	if err != nil {
		return domain.State{}, fmt.Errorf("redis get %s: %w", s.key, err)
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
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", s.key, err)
	}
	return nil
}
