package app_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"riddleme-service/internal/app"
	"riddleme-service/internal/domain"
	"riddleme-service/internal/infra/memory"
)

type step struct {
	riddle domain.GeneratedRiddle
	err    error
}

// scriptedGenerator replays queued results, then produces unique riddles.
type scriptedGenerator struct {
	mu       sync.Mutex
	steps    []step
	requests []domain.GenerationRequest
}

func (g *scriptedGenerator) Generate(_ context.Context, req domain.GenerationRequest) (domain.GeneratedRiddle, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.requests = append(g.requests, req)
	if len(g.steps) > 0 {
		next := g.steps[0]
		g.steps = g.steps[1:]
		return next.riddle, next.err
	}
	return riddleWithAnswer(fmt.Sprintf("answer-%d", len(g.requests))), nil
}

func (g *scriptedGenerator) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.requests)
}

func riddleWithAnswer(answer string) domain.GeneratedRiddle {
	return domain.GeneratedRiddle{
		Question: "What am I? (" + answer + ")",
		Answer:   answer,
		Hints:    []string{"first hint", "second hint", "third hint"},
	}
}

func echoRiddle() domain.GeneratedRiddle {
	return domain.GeneratedRiddle{
		Question: "I speak without a mouth and hear without ears. What am I?",
		Answer:   "Echo",
		Hints:    []string{"I bounce back", "Sound related", "Mountains have me"},
	}
}

// tickingClock returns a clock that advances one second per call.
func tickingClock() func() time.Time {
	var mu sync.Mutex
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Second)
		return now
	}
}

type fixture struct {
	store     *memory.StateStore
	generator *scriptedGenerator
	feed      *app.Feed
	riddles   *app.RiddleService
	scoring   *app.ScoringService
}

func newFixture(seed domain.State, steps ...step) *fixture {
	store := memory.NewStateStoreWith(seed)
	gen := &scriptedGenerator{steps: steps}
	feed := app.NewFeed()
	riddles := app.NewRiddleServiceWithClock(store, gen, feed, app.RiddleOptions{}, tickingClock())
	scoring := app.NewScoringService(riddles, feed, app.ScoringOptions{Enforce: true})
	return &fixture{store: store, generator: gen, feed: feed, riddles: riddles, scoring: scoring}
}

func newUnenforcedFixture(steps ...step) *fixture {
	f := newFixture(domain.State{}, steps...)
	f.scoring = app.NewScoringService(f.riddles, f.feed, app.ScoringOptions{Enforce: false})
	return f
}

// failingSaves rejects every Save while serving loads from the wrapped store.
type failingSaves struct {
	*memory.StateStore
}

func (failingSaves) Save(context.Context, domain.State) error {
	return errors.New("disk full")
}
