package app

import (
	"sync"

	"riddleme-service/internal/domain"
	"riddleme-service/internal/metrics"
)

const (
	EventLeaderboard = "leaderboard"
	EventRiddle      = "riddle"
)

// Event is a live update pushed to feed subscribers.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Feed fans events out to subscribers. Slow subscribers lose their oldest pending event.
type Feed struct {
	mu          sync.Mutex
	subscribers map[chan Event]struct{}
}

func NewFeed() *Feed {
	return &Feed{subscribers: make(map[chan Event]struct{})}
}

// Subscribe returns a channel of events. The caller must invoke cancel to avoid leaks.
func (f *Feed) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 8)

	f.mu.Lock()
	f.subscribers[ch] = struct{}{}
	f.mu.Unlock()
	metrics.FeedSubscribers.Inc()

	cancel := func() {
		f.mu.Lock()
		if _, ok := f.subscribers[ch]; ok {
			delete(f.subscribers, ch)
			close(ch)
			metrics.FeedSubscribers.Dec()
		}
		f.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers ev to every subscriber without blocking.
func (f *Feed) Publish(ev Event) {
	if f == nil {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subscribers {
		select {
		case ch <- ev:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- ev
		}
	}
}

func (f *Feed) publishRiddle(r domain.Riddle) {
	f.Publish(Event{Type: EventRiddle, Payload: r.Public()})
}

func (f *Feed) publishLeaderboard(entries []domain.LeaderboardEntry) {
	f.Publish(Event{Type: EventLeaderboard, Payload: entries})
}
