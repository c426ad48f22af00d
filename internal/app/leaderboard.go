package app

import (
	"sort"
	"time"

	"riddleme-service/internal/domain"
)

// DefaultLeaderboardLimit is used when callers pass a non-positive limit.
const DefaultLeaderboardLimit = 10

// ledger indexes the persisted player list by username.
type ledger struct {
	state *domain.State
	index map[string]int
}

func newLedger(state *domain.State) *ledger {
	index := make(map[string]int, len(state.Leaderboard))
	for i, p := range state.Leaderboard {
		index[p.Username] = i
	}
	return &ledger{state: state, index: index}
}

func (l *ledger) find(username string) (*domain.Player, bool) {
	i, ok := l.index[username]
	if !ok {
		return nil, false
	}
	return &l.state.Leaderboard[i], true
}

// player returns the named player, creating it on first interaction.
// The pointer is only valid until the next call that creates a player.
func (l *ledger) player(username string, now time.Time) *domain.Player {
	if p, ok := l.find(username); ok {
		if p.History == nil {
			p.History = make(map[int64]domain.HistoryEntry)
		}
		return p
	}
	l.state.Leaderboard = append(l.state.Leaderboard, domain.Player{
		Username:   username,
		LastActive: now,
		History:    make(map[int64]domain.HistoryEntry),
	})
	l.index[username] = len(l.state.Leaderboard) - 1
	return &l.state.Leaderboard[len(l.state.Leaderboard)-1]
}

// rankPlayers orders players by points, then most recent activity, then username.
func rankPlayers(players []domain.Player, limit int) []domain.LeaderboardEntry {
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}
	ordered := make([]domain.Player, len(players))
	copy(ordered, players)

	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Points != ordered[j].Points {
			return ordered[i].Points > ordered[j].Points
		}
		if !ordered[i].LastActive.Equal(ordered[j].LastActive) {
			return ordered[i].LastActive.After(ordered[j].LastActive)
		}
		return ordered[i].Username < ordered[j].Username
	})

	if len(ordered) > limit {
		ordered = ordered[:limit]
	}
	entries := make([]domain.LeaderboardEntry, 0, len(ordered))
	for _, p := range ordered {
		entries = append(entries, domain.LeaderboardEntry{Username: p.Username, Points: p.Points})
	}
	return entries
}
