package client

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"riddleme-service/internal/domain"
)

// Game is an interactive terminal session against the API. It keeps the
// hint/attempt scorecard locally and proposes the resulting points on each answer.
type Game struct {
	api      *Client
	username string
	in       *bufio.Scanner
	out      io.Writer

	riddle domain.PublicRiddle
	card   domain.Scorecard
}

func NewGame(api *Client, username string, in io.Reader, out io.Writer) *Game {
	return &Game{api: api, username: username, in: bufio.NewScanner(in), out: out}
}

// Run plays until the input ends or the player types "quit".
func (g *Game) Run(ctx context.Context) error {
	riddle, err := g.api.Current(ctx)
	if err != nil {
		return err
	}
	g.show(riddle)

	for {
		fmt.Fprintf(g.out, "[%d pts] answer, or hint | skip | board | quit > ", g.card.Points())
		if !g.in.Scan() {
			fmt.Fprintln(g.out)
			return g.in.Err()
		}
		line := strings.TrimSpace(g.in.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case "quit", "exit":
			return nil
		case "hint":
			g.hint()
		case "skip":
			if err := g.skip(ctx); err != nil {
				return err
			}
		case "board":
			if err := g.board(ctx); err != nil {
				return err
			}
		default:
			if err := g.answer(ctx, line); err != nil {
				return err
			}
		}
	}
}

func (g *Game) show(r domain.PublicRiddle) {
	g.riddle = r
	g.card = domain.Scorecard{}
	fmt.Fprintf(g.out, "\nRiddle #%d: %s\n", r.ID, r.Question)
}

func (g *Game) hint() {
	next := g.card.HintsUsed + 1
	if err := g.card.RevealHint(next); err != nil {
		fmt.Fprintln(g.out, "No more hints for this riddle.")
		return
	}
	fmt.Fprintf(g.out, "Hint %d: %s (now worth %d points)\n", next, g.riddle.Hints[next-1], g.card.Points())
}

func (g *Game) answer(ctx context.Context, text string) error {
	res, err := g.api.Answer(ctx, AnswerRequest{
		Username:      g.username,
		Answer:        text,
		RiddleID:      g.riddle.ID,
		HintsUsed:     g.card.HintsUsed,
		CurrentPoints: g.card.Points(),
	})
	if errors.Is(err, domain.ErrRiddleNotFound) {
		fmt.Fprintln(g.out, "That riddle is gone, fetching the current one.")
		return g.refresh(ctx)
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(g.out, res.Message)

	switch {
	case res.Correct || res.AlreadyCompleted:
		fmt.Fprintf(g.out, "Total: %d points\n", res.TotalPoints)
		return g.refresh(ctx)
	default:
		g.card.RecordWrong()
		if res.SkipRequired || g.card.Exhausted() {
			return g.skip(ctx)
		}
	}
	return nil
}

func (g *Game) skip(ctx context.Context) error {
	next, err := g.api.Skip(ctx, g.username, g.riddle.ID)
	if err != nil {
		return err
	}
	fmt.Fprintln(g.out, "Skipped.")
	g.show(next)
	return nil
}

func (g *Game) refresh(ctx context.Context) error {
	next, err := g.api.Current(ctx)
	if err != nil {
		return err
	}
	g.show(next)
	return nil
}

func (g *Game) board(ctx context.Context) error {
	entries, err := g.api.Leaderboard(ctx, 0)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(g.out, "Leaderboard is empty.")
		return nil
	}
	for i, e := range entries {
		fmt.Fprintf(g.out, "%2d. %-20s %d\n", i+1, e.Username, e.Points)
	}
	return nil
}
