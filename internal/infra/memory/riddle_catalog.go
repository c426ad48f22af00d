package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"riddleme-service/internal/domain"
)

// classicRiddles is the built-in catalog used when no generative provider is configured.
var classicRiddles = []domain.GeneratedRiddle{
	{
		Question: "I speak without a mouth and hear without ears. I have no body, but I come alive with wind. What am I?",
		Answer:   "echo",
		Hints:    []string{"I bounce back", "Sound related", "Mountains have me"},
	},
	{
		Question: "The more you take, the more you leave behind. What am I?",
		Answer:   "footsteps",
		Hints:    []string{"Walking related", "You create me", "Found on paths"},
	},
	{
		Question: "I have cities, but no houses. I have mountains, but no trees. I have water, but no fish. What am I?",
		Answer:   "map",
		Hints:    []string{"Paper or digital", "Helps navigation", "Shows locations"},
	},
	{
		Question: "What has keys but no locks, space but no room, and you can enter but can't go inside?",
		Answer:   "keyboard",
		Hints:    []string{"Computer related", "You type on me", "Has many buttons"},
	},
	{
		Question: "I'm tall when I'm young, and I'm short when I'm old. What am I?",
		Answer:   "candle",
		Hints:    []string{"Fire related", "Gives light", "Made of wax"},
	},
	{
		Question: "What has hands but cannot clap?",
		Answer:   "clock",
		Hints:    []string{"Tells something", "On the wall", "Has numbers"},
	},
	{
		Question: "What gets wet while drying?",
		Answer:   "towel",
		Hints:    []string{"Bathroom item", "Made of cloth", "Absorbs water"},
	},
}

// RiddleCatalog is a RiddleGenerator backed by a fixed list of riddles (useful for tests/demos).
// It prefers riddles whose answer is not excluded and falls back to any riddle once all are used.
type RiddleCatalog struct {
	riddles []domain.GeneratedRiddle
	mu      sync.Mutex
	rnd     *rand.Rand
}

// NewClassicCatalog returns the built-in catalog.
func NewClassicCatalog() *RiddleCatalog {
	return NewRiddleCatalog(classicRiddles, time.Now().UnixNano())
}

func NewRiddleCatalog(riddles []domain.GeneratedRiddle, seed int64) *RiddleCatalog {
	return &RiddleCatalog{
		riddles: riddles,
		rnd:     rand.New(rand.NewSource(seed)),
	}
}

func (c *RiddleCatalog) Generate(_ context.Context, req domain.GenerationRequest) (domain.GeneratedRiddle, error) {
	if len(c.riddles) == 0 {
		return domain.GeneratedRiddle{}, domain.ErrGenerationUnavailable
	}
	excluded := make(map[string]struct{}, len(req.Exclude))
	for _, a := range req.Exclude {
		excluded[domain.NormalizeAnswer(a)] = struct{}{}
	}

	candidates := make([]domain.GeneratedRiddle, 0, len(c.riddles))
	for _, r := range c.riddles {
		if _, ok := excluded[domain.NormalizeAnswer(r.Answer)]; !ok {
			candidates = append(candidates, r)
		}
	}
	if len(candidates) == 0 {
		candidates = c.riddles
	}

	c.mu.Lock()
	picked := candidates[c.rnd.Intn(len(candidates))]
	c.mu.Unlock()

	picked.Hints = append([]string(nil), picked.Hints...)
	return picked, nil
}
