package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"riddleme-service/internal/app"
	"riddleme-service/internal/domain"
	"riddleme-service/internal/infra/memory"
)

// sequenceGenerator yields the echo riddle first, then unique riddles.
type sequenceGenerator struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (g *sequenceGenerator) Generate(_ context.Context, _ domain.GenerationRequest) (domain.GeneratedRiddle, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.err != nil {
		return domain.GeneratedRiddle{}, g.err
	}
	if g.calls == 1 {
		return domain.GeneratedRiddle{
			Question: "I speak without a mouth and hear without ears. What am I?",
			Answer:   "Echo",
			Hints:    []string{"I bounce back", "Sound related", "Mountains have me"},
		}, nil
	}
	return domain.GeneratedRiddle{
		Question: fmt.Sprintf("Riddle number %d?", g.calls),
		Answer:   fmt.Sprintf("answer-%d", g.calls),
		Hints:    []string{"one", "two", "three"},
	}, nil
}

func newTestServer(t *testing.T, gen app.RiddleGenerator, opts Options) *Server {
	t.Helper()
	feed := app.NewFeed()
	riddles := app.NewRiddleService(memory.NewStateStore(), gen, feed, app.RiddleOptions{})
	scoring := app.NewScoringService(riddles, feed, app.ScoringOptions{Enforce: true})
	return NewServer(riddles, scoring, feed, opts)
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}
