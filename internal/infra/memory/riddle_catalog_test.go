package memory

import (
	"context"
	"testing"

	"riddleme-service/internal/domain"
)

func TestRiddleCatalogAvoidsExcludedAnswers(t *testing.T) {
	catalog := NewRiddleCatalog(classicRiddles, 1)
	exclude := []string{"echo", "footsteps", "map", "keyboard", "candle", "clock"}

	for i := 0; i < 20; i++ {
		r, err := catalog.Generate(context.Background(), domain.GenerationRequest{Exclude: exclude})
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if r.Answer != "towel" {
			t.Fatalf("expected the only non-excluded riddle, got %q", r.Answer)
		}
	}
}

func TestRiddleCatalogFallsBackWhenExhausted(t *testing.T) {
	catalog := NewRiddleCatalog(classicRiddles[:1], 1)
	r, err := catalog.Generate(context.Background(), domain.GenerationRequest{Exclude: []string{"echo"}})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if r.Answer != "echo" {
		t.Fatalf("expected fallback to excluded riddle, got %q", r.Answer)
	}
	if err := r.Validate(); err != nil {
		t.Fatalf("catalog riddle invalid: %v", err)
	}
}

func TestRiddleCatalogEmpty(t *testing.T) {
	catalog := NewRiddleCatalog(nil, 1)
	if _, err := catalog.Generate(context.Background(), domain.GenerationRequest{}); err != domain.ErrGenerationUnavailable {
		t.Fatalf("expected unavailable, got %v", err)
	}
}
