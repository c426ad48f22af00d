package app

import (
	"context"
	"fmt"
	"sync"

	"riddleme-service/internal/domain"
)

// StateRepository abstracts how the game aggregate is stored (in-memory, SQLite, Redis, Postgres).
// Load on an empty store returns a zero State and no error.
type StateRepository interface {
	Load(ctx context.Context) (domain.State, error)
	Save(ctx context.Context, state domain.State) error
}

// RiddleGenerator produces new riddle content. Implementations return
// domain.ErrGenerationUnavailable when rate limited or failing and
// domain.ErrMalformedProviderResponse when the content cannot be parsed.
type RiddleGenerator interface {
	Generate(ctx context.Context, req domain.GenerationRequest) (domain.GeneratedRiddle, error)
}

// stateGuard serializes read-modify-write cycles on the aggregate within the process.
type stateGuard struct {
	store StateRepository
	mu    sync.Mutex
}

func (g *stateGuard) load(ctx context.Context) (domain.State, error) {
	state, err := g.store.Load(ctx)
	if err != nil {
		return domain.State{}, fmt.Errorf("%w: load state: %w", domain.ErrPersistence, err)
	}
	return state, nil
}

// update loads the state, applies fn and saves the result. Nothing is written when fn fails.
func (g *stateGuard) update(ctx context.Context, fn func(state *domain.State) error) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	state, err := g.load(ctx)
	if err != nil {
		return err
	}
	if err := fn(&state); err != nil {
		return err
	}
	if err := g.store.Save(ctx, state); err != nil {
		return fmt.Errorf("%w: save state: %w", domain.ErrPersistence, err)
	}
	return nil
}
