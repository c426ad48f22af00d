package domain

import (
	"fmt"
	"strings"
	"time"
)

// HintCount is the number of hints every riddle carries.
const HintCount = 3

// Riddle is a generated riddle. Answer is stored normalized and must never leave the store.
type Riddle struct {
	ID        int64     `json:"id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Hints     []string  `json:"hints"`
	CreatedAt time.Time `json:"createdAt"`
}

// PublicRiddle is the client-facing view of a riddle.
type PublicRiddle struct {
	ID       int64    `json:"id"`
	Question string   `json:"question"`
	Hints    []string `json:"hints"`
}

// Public strips the answer.
func (r Riddle) Public() PublicRiddle {
	hints := make([]string, len(r.Hints))
	copy(hints, r.Hints)
	return PublicRiddle{ID: r.ID, Question: r.Question, Hints: hints}
}

// Matches reports whether a raw answer equals the stored one after normalization.
func (r Riddle) Matches(raw string) bool {
	return NormalizeAnswer(raw) == NormalizeAnswer(r.Answer)
}

// NormalizeAnswer trims and lowercases an answer. No fuzzy matching is applied.
func NormalizeAnswer(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// GeneratedRiddle is what a generation provider hands back before an ID is assigned.
type GeneratedRiddle struct {
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Hints    []string `json:"hints"`
}

// Outcome is the per-player state of a riddle.
type Outcome string

const (
	OutcomeAttempting Outcome = "attempting"
	OutcomeSolved     Outcome = "solved"
	OutcomeSkipped    Outcome = "skipped"
)

// Terminal reports whether further submissions must be ignored.
func (o Outcome) Terminal() bool {
	return o == OutcomeSolved || o == OutcomeSkipped
}

// HistoryEntry is the per-player, per-riddle record.
type HistoryEntry struct {
	RiddleID      int64     `json:"riddleId"`
	Timestamp     time.Time `json:"timestamp"`
	HintsUsed     int       `json:"hintsUsed"`
	PointsAwarded int       `json:"pointsAwarded"`
	Attempts      int       `json:"attempts"`
	Outcome       Outcome   `json:"outcome"`
}

// Player represents a leaderboard participant and their accumulated points.
type Player struct {
	Username   string                 `json:"username"`
	Points     int                    `json:"points"`
	LastActive time.Time              `json:"lastActive"`
	History    map[int64]HistoryEntry `json:"history"`
}

// LeaderboardEntry is a snapshot-friendly view of a player.
type LeaderboardEntry struct {
	Username string `json:"username"`
	Points   int    `json:"points"`
}

// State is the single persisted aggregate shared by the lifecycle and scoring engines.
type State struct {
	Riddles         []Riddle `json:"riddles"`
	Leaderboard     []Player `json:"leaderboard"`
	CurrentRiddleID int64    `json:"currentRiddleId"`
	RiddleCounter   int64    `json:"riddleCounter"`
}

// Riddle looks up a riddle in the log.
func (s *State) Riddle(id int64) (Riddle, bool) {
	for i := len(s.Riddles) - 1; i >= 0; i-- {
		if s.Riddles[i].ID == id {
			return s.Riddles[i], true
		}
	}
	return Riddle{}, false
}

// Current returns the active riddle, if any.
func (s *State) Current() (Riddle, bool) {
	if s.CurrentRiddleID == 0 {
		return Riddle{}, false
	}
	return s.Riddle(s.CurrentRiddleID)
}

// RecentAnswers returns up to n answers from the end of the riddle log, newest first.
func (s *State) RecentAnswers(n int) []string {
	out := make([]string, 0, n)
	for i := len(s.Riddles) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, s.Riddles[i].Answer)
	}
	return out
}

// NextRiddleID returns an ID above both the counter and every stored riddle.
func (s *State) NextRiddleID() int64 {
	highest := s.RiddleCounter
	for _, r := range s.Riddles {
		if r.ID > highest {
			highest = r.ID
		}
	}
	return highest + 1
}

// Clone returns a deep copy so stores never share maps or slices with callers.
func (s State) Clone() State {
	out := State{
		CurrentRiddleID: s.CurrentRiddleID,
		RiddleCounter:   s.RiddleCounter,
		Riddles:         make([]Riddle, len(s.Riddles)),
		Leaderboard:     make([]Player, len(s.Leaderboard)),
	}
	for i, r := range s.Riddles {
		r.Hints = append([]string(nil), r.Hints...)
		out.Riddles[i] = r
	}
	for i, p := range s.Leaderboard {
		history := make(map[int64]HistoryEntry, len(p.History))
		for k, v := range p.History {
			history[k] = v
		}
		p.History = history
		out.Leaderboard[i] = p
	}
	return out
}

// Validate checks the generated shape: non-empty question and answer, exactly HintCount non-empty hints.
func (g GeneratedRiddle) Validate() error {
	if strings.TrimSpace(g.Question) == "" {
		return fmt.Errorf("%w: empty question", ErrMalformedProviderResponse)
	}
	if NormalizeAnswer(g.Answer) == "" {
		return fmt.Errorf("%w: empty answer", ErrMalformedProviderResponse)
	}
	if len(g.Hints) != HintCount {
		return fmt.Errorf("%w: expected %d hints, got %d", ErrMalformedProviderResponse, HintCount, len(g.Hints))
	}
	for i, h := range g.Hints {
		if strings.TrimSpace(h) == "" {
			return fmt.Errorf("%w: hint %d is empty", ErrMalformedProviderResponse, i+1)
		}
	}
	return nil
}

// GenerationRequest carries the constraints handed to a generation provider.
type GenerationRequest struct {
	Exclude    []string
	Theme      string
	Difficulty string
	// Strict asks the provider to insist harder on avoiding excluded answers.
	Strict bool
}

// AnswerSubmission models an answer attempt sent by a client.
type AnswerSubmission struct {
	Username       string
	RiddleID       int64
	Answer         string
	HintsUsed      int
	ProposedPoints int
}

// AnswerResult summarizes the outcome of a submission for a single player.
type AnswerResult struct {
	Correct          bool   `json:"correct"`
	Points           int    `json:"points"`
	TotalPoints      int    `json:"totalPoints"`
	Message          string `json:"message"`
	AlreadyCompleted bool   `json:"alreadyCompleted,omitempty"`
	RemainingPoints  int    `json:"remainingPoints"`
	SkipRequired     bool   `json:"skipRequired,omitempty"`
}
