package client

import (
	"context"
	"errors"
	"fmt"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"riddleme-service/internal/app"
	"riddleme-service/internal/domain"
	"riddleme-service/internal/infra/memory"
	transport "riddleme-service/internal/transport/http"
)

type echoFirst struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (g *echoFirst) Generate(_ context.Context, _ domain.GenerationRequest) (domain.GeneratedRiddle, error) {
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
		Question: fmt.Sprintf("Riddle %d?", g.calls),
		Answer:   fmt.Sprintf("answer-%d", g.calls),
		Hints:    []string{"a", "b", "c"},
	}, nil
}

func newAPI(t *testing.T, gen app.RiddleGenerator) *Client {
	t.Helper()
	feed := app.NewFeed()
	riddles := app.NewRiddleService(memory.NewStateStore(), gen, feed, app.RiddleOptions{})
	scoring := app.NewScoringService(riddles, feed, app.ScoringOptions{Enforce: true})
	srv := httptest.NewServer(transport.NewServer(riddles, scoring, feed, transport.Options{}))
	t.Cleanup(srv.Close)
	return New(srv.URL, 5*time.Second)
}

func TestGameSolvesWithHintAndMistake(t *testing.T) {
	api := newAPI(t, &echoFirst{})
	var out strings.Builder
	game := NewGame(api, "alice", strings.NewReader("hint\nshadow\necho\nboard\nquit\n"), &out)

	require.NoError(t, game.Run(context.Background()))

	transcript := out.String()
	assert.Contains(t, transcript, "Riddle #1")
	assert.Contains(t, transcript, "Hint 1: I bounce back (now worth 15 points)")
	assert.Contains(t, transcript, "10 points left")
	assert.Contains(t, transcript, "Correct! You earned 10 points!")
	assert.Contains(t, transcript, "Riddle #2")
	assert.Contains(t, transcript, " 1. alice")
}

func TestGameAutoSkipsWhenExhausted(t *testing.T) {
	api := newAPI(t, &echoFirst{})
	var out strings.Builder
	game := NewGame(api, "bob", strings.NewReader("hint\nhint\nhint\nhint\nnope\n"), &out)

	require.NoError(t, game.Run(context.Background()))

	transcript := out.String()
	assert.Contains(t, transcript, "No more hints for this riddle.")
	assert.Contains(t, transcript, "No points left")
	assert.Contains(t, transcript, "Skipped.")
	assert.Contains(t, transcript, "Riddle #2")

	board, err := api.Leaderboard(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, []domain.LeaderboardEntry{{Username: "bob", Points: 0}}, board)
}

func TestClientMapsErrorStatuses(t *testing.T) {
	api := newAPI(t, &echoFirst{err: errors.New("provider down")})

	_, err := api.Current(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrGenerationUnavailable)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 503, apiErr.Status)
	assert.Equal(t, "generation_unavailable", apiErr.Code)

	_, err = api.Answer(context.Background(), AnswerRequest{Username: "alice", Answer: "x", RiddleID: 42})
	assert.ErrorIs(t, err, domain.ErrRiddleNotFound)

	_, err = api.Answer(context.Background(), AnswerRequest{Answer: "x", RiddleID: 42})
	assert.ErrorIs(t, err, domain.ErrValidation)
}
