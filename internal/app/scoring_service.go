package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"riddleme-service/internal/domain"
	"riddleme-service/internal/metrics"
)

// ScoringOptions tunes answer evaluation.
type ScoringOptions struct {
	// Enforce clamps client-proposed points to the server-side hint/attempt ceiling.
	Enforce bool
}

// ScoringService applies the point-decay rule, records history and ranks players.
type ScoringService struct {
	riddles *RiddleService
	feed    *Feed
	opts    ScoringOptions
	now     func() time.Time
}

// NewScoringService shares the riddle service's state lock so rotations and
// awards never interleave.
func NewScoringService(riddles *RiddleService, feed *Feed, opts ScoringOptions) *ScoringService {
	return &ScoringService{riddles: riddles, feed: feed, opts: opts, now: riddles.now}
}

// SubmitAnswer evaluates an answer and updates the leaderboard.
func (s *ScoringService) SubmitAnswer(ctx context.Context, sub domain.AnswerSubmission) (domain.AnswerResult, error) {
	sub.Username = strings.TrimSpace(sub.Username)
	if err := validateSubmission(sub); err != nil {
		return domain.AnswerResult{}, err
	}

	var (
		result        domain.AnswerResult
		rotated       *domain.Riddle
		pointsChanged bool
	)
	err := s.riddles.guard.update(ctx, func(state *domain.State) error {
		riddle, ok := state.Riddle(sub.RiddleID)
		if !ok {
			return fmt.Errorf("%w: %d", domain.ErrRiddleNotFound, sub.RiddleID)
		}
		now := s.now()
		book := newLedger(state)
		correct := riddle.Matches(sub.Answer)

		if existing, ok := book.find(sub.Username); ok {
			if entry, seen := existing.History[riddle.ID]; seen && entry.Outcome.Terminal() {
				metrics.AnswersTotal.WithLabelValues("duplicate").Inc()
				result = domain.AnswerResult{
					Correct:          correct,
					Points:           0,
					TotalPoints:      existing.Points,
					AlreadyCompleted: true,
					Message:          "You have already finished this riddle.",
				}
				return nil
			}
		}

		player := book.player(sub.Username, now)
		player.LastActive = now
		entry, seen := player.History[riddle.ID]
		if !seen {
			entry = domain.HistoryEntry{RiddleID: riddle.ID, Timestamp: now, Outcome: domain.OutcomeAttempting}
		}
		if sub.HintsUsed > entry.HintsUsed {
			entry.HintsUsed = sub.HintsUsed
		}

		if !correct {
			entry.Attempts++
			player.History[riddle.ID] = entry
			remaining := domain.RemainingPoints(entry.HintsUsed, entry.Attempts)
			metrics.AnswersTotal.WithLabelValues("wrong").Inc()
			result = domain.AnswerResult{
				Correct:         false,
				TotalPoints:     player.Points,
				RemainingPoints: remaining,
				SkipRequired:    remaining == 0,
				Message:         wrongAnswerMessage(remaining),
			}
			return nil
		}

		ceiling := domain.BaseScore
		if s.opts.Enforce {
			ceiling = domain.RemainingPoints(entry.HintsUsed, entry.Attempts)
		}
		award := min(max(sub.ProposedPoints, 0), ceiling)
		entry.PointsAwarded = award
		entry.Timestamp = now
		if award > 0 {
			entry.Outcome = domain.OutcomeSolved
			player.Points += award
			pointsChanged = true
		} else {
			entry.Outcome = domain.OutcomeSkipped
		}
		player.History[riddle.ID] = entry
		total := player.Points

		metrics.AnswersTotal.WithLabelValues("correct").Inc()
		result = domain.AnswerResult{
			Correct:     true,
			Points:      award,
			TotalPoints: total,
			Message:     fmt.Sprintf("Correct! You earned %d points!", award),
		}

		if state.CurrentRiddleID != riddle.ID {
			return nil
		}
		next, err := s.riddles.advanceLocked(ctx, state, nil)
		if err != nil {
			if !errors.Is(err, domain.ErrGenerationUnavailable) {
				return err
			}
			// Keep the award; the next Current call generates the replacement.
			log.Warn().Err(err).Int64("riddleId", riddle.ID).Msg("rotation after solve deferred")
			state.CurrentRiddleID = 0
			return nil
		}
		rotated = &next
		return nil
	})
	if err != nil {
		return domain.AnswerResult{}, err
	}

	if rotated != nil {
		s.riddles.announce(*rotated, "solved")
	}
	if pointsChanged {
		s.publishLeaderboard(ctx)
	}
	return result, nil
}

// Skip records a zero-point skip for the player and rotates when the riddle is
// the current one. It returns the riddle now in play.
func (s *ScoringService) Skip(ctx context.Context, username string, riddleID int64) (domain.Riddle, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return domain.Riddle{}, fmt.Errorf("%w: username is required", domain.ErrValidation)
	}
	if riddleID <= 0 {
		return domain.Riddle{}, fmt.Errorf("%w: riddleId is required", domain.ErrValidation)
	}

	var (
		current domain.Riddle
		rotated bool
	)
	err := s.riddles.guard.update(ctx, func(state *domain.State) error {
		riddle, ok := state.Riddle(riddleID)
		if !ok {
			return fmt.Errorf("%w: %d", domain.ErrRiddleNotFound, riddleID)
		}
		now := s.now()
		player := newLedger(state).player(username, now)
		entry, seen := player.History[riddle.ID]
		if !seen || !entry.Outcome.Terminal() {
			if !seen {
				entry = domain.HistoryEntry{RiddleID: riddle.ID}
			}
			entry.Timestamp = now
			entry.PointsAwarded = 0
			entry.Outcome = domain.OutcomeSkipped
			player.History[riddle.ID] = entry
			player.LastActive = now
		}

		if active, ok := state.Current(); ok && active.ID != riddle.ID {
			current = active
			return nil
		}
		next, err := s.riddles.advanceLocked(ctx, state, nil)
		if err != nil {
			return err
		}
		current, rotated = next, true
		return nil
	})
	if err != nil {
		return domain.Riddle{}, err
	}
	if rotated {
		s.riddles.announce(current, "skip")
	}
	return current, nil
}

// Leaderboard returns the top players.
func (s *ScoringService) Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	state, err := s.riddles.guard.load(ctx)
	if err != nil {
		return nil, err
	}
	return rankPlayers(state.Leaderboard, limit), nil
}

// Player returns a copy of a player's profile and history.
func (s *ScoringService) Player(ctx context.Context, username string) (domain.Player, error) {
	state, err := s.riddles.guard.load(ctx)
	if err != nil {
		return domain.Player{}, err
	}
	p, ok := newLedger(&state).find(strings.TrimSpace(username))
	if !ok {
		return domain.Player{}, fmt.Errorf("%w: %s", domain.ErrPlayerNotFound, username)
	}
	return *p, nil
}

func (s *ScoringService) publishLeaderboard(ctx context.Context) {
	if s.feed == nil {
		return
	}
	entries, err := s.Leaderboard(ctx, DefaultLeaderboardLimit)
	if err != nil {
		log.Warn().Err(err).Msg("leaderboard snapshot for feed failed")
		return
	}
	s.feed.publishLeaderboard(entries)
}

func validateSubmission(sub domain.AnswerSubmission) error {
	switch {
	case strings.TrimSpace(sub.Username) == "":
		return fmt.Errorf("%w: username is required", domain.ErrValidation)
	case strings.TrimSpace(sub.Answer) == "":
		return fmt.Errorf("%w: answer is required", domain.ErrValidation)
	case sub.RiddleID <= 0:
		return fmt.Errorf("%w: riddleId is required", domain.ErrValidation)
	case sub.HintsUsed < 0 || sub.HintsUsed > domain.HintCount:
		return fmt.Errorf("%w: hintsUsed must be between 0 and %d", domain.ErrValidation, domain.HintCount)
	}
	return nil
}

func wrongAnswerMessage(remaining int) string {
	if remaining == 0 {
		return "Wrong answer! No points left, moving to the next riddle."
	}
	return fmt.Sprintf("Wrong answer, try again! %d points left.", remaining)
}
