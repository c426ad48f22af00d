package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"riddleme-service/internal/domain"
	"riddleme-service/internal/metrics"
)

// DefaultExcludeWindow is how many recent answers are passed to the provider.
const DefaultExcludeWindow = 10

// RiddleOptions tunes riddle generation.
type RiddleOptions struct {
	ExcludeWindow int
	Theme         string
	Difficulty    string
}

// RiddleService owns the current riddle and its rotation.
type RiddleService struct {
	guard     *stateGuard
	generator RiddleGenerator
	feed      *Feed
	opts      RiddleOptions
	now       func() time.Time
	sf        singleflight.Group
}

func NewRiddleService(store StateRepository, generator RiddleGenerator, feed *Feed, opts RiddleOptions) *RiddleService {
	return NewRiddleServiceWithClock(store, generator, feed, opts, time.Now)
}

// NewRiddleServiceWithClock allows deterministic timestamps in tests.
func NewRiddleServiceWithClock(store StateRepository, generator RiddleGenerator, feed *Feed, opts RiddleOptions, now func() time.Time) *RiddleService {
	if opts.ExcludeWindow <= 0 {
		opts.ExcludeWindow = DefaultExcludeWindow
	}
	return &RiddleService{
		guard:     &stateGuard{store: store},
		generator: generator,
		feed:      feed,
		opts:      opts,
		now:       now,
	}
}

// Current returns the active riddle, generating one when none exists.
// Callers must only expose Riddle.Public() to clients.
func (s *RiddleService) Current(ctx context.Context) (domain.Riddle, error) {
	state, err := s.guard.load(ctx)
	if err != nil {
		return domain.Riddle{}, err
	}
	if riddle, ok := state.Current(); ok {
		return riddle, nil
	}

	// Concurrent callers share one generation.
	result, err, _ := s.sf.Do("current", func() (interface{}, error) {
		var (
			riddle    domain.Riddle
			generated bool
		)
		err := s.guard.update(ctx, func(state *domain.State) error {
			if current, ok := state.Current(); ok {
				riddle = current
				return nil
			}
			next, err := s.advanceLocked(ctx, state, nil)
			riddle, generated = next, err == nil
			return err
		})
		if err == nil && generated {
			s.announce(riddle, "empty")
		}
		return riddle, err
	})
	if err != nil {
		return domain.Riddle{}, err
	}
	return result.(domain.Riddle), nil
}

// Advance rotates to a freshly generated riddle. exclude is merged with the
// most recent answers from the riddle log.
func (s *RiddleService) Advance(ctx context.Context, exclude []string) (domain.Riddle, error) {
	var riddle domain.Riddle
	err := s.guard.update(ctx, func(state *domain.State) error {
		next, err := s.advanceLocked(ctx, state, exclude)
		riddle = next
		return err
	})
	if err != nil {
		return domain.Riddle{}, err
	}
	s.announce(riddle, "advance")
	return riddle, nil
}

// Regenerate is the explicit admin rotation.
func (s *RiddleService) Regenerate(ctx context.Context) (domain.Riddle, error) {
	var riddle domain.Riddle
	err := s.guard.update(ctx, func(state *domain.State) error {
		next, err := s.advanceLocked(ctx, state, nil)
		riddle = next
		return err
	})
	if err != nil {
		return domain.Riddle{}, err
	}
	s.announce(riddle, "regenerate")
	return riddle, nil
}

// advanceLocked generates, appends and activates a new riddle on state. Callers hold the
// guard and call announce once the state is saved.
func (s *RiddleService) advanceLocked(ctx context.Context, state *domain.State, extra []string) (domain.Riddle, error) {
	exclude := mergeExclusions(state.RecentAnswers(s.opts.ExcludeWindow), extra)

	generated, err := s.generate(ctx, exclude)
	if err != nil {
		return domain.Riddle{}, err
	}

	riddle := domain.Riddle{
		ID:        state.NextRiddleID(),
		Question:  generated.Question,
		Answer:    domain.NormalizeAnswer(generated.Answer),
		Hints:     append([]string(nil), generated.Hints...),
		CreatedAt: s.now(),
	}
	state.Riddles = append(state.Riddles, riddle)
	state.CurrentRiddleID = riddle.ID
	state.RiddleCounter = riddle.ID

	return riddle, nil
}

// announce reports a persisted rotation.
func (s *RiddleService) announce(riddle domain.Riddle, trigger string) {
	metrics.RotationsTotal.WithLabelValues(trigger).Inc()
	log.Info().Int64("riddleId", riddle.ID).Str("trigger", trigger).Msg("riddle rotated")
	s.feed.publishRiddle(riddle)
}

// generate calls the provider with at most one retry: either for a malformed
// response or for an answer found in the exclusion set. The retry result is
// accepted as is.
func (s *RiddleService) generate(ctx context.Context, exclude []string) (domain.GeneratedRiddle, error) {
	req := domain.GenerationRequest{
		Exclude:    exclude,
		Theme:      s.opts.Theme,
		Difficulty: s.opts.Difficulty,
	}

	first, err := s.callProvider(ctx, req)
	switch {
	case errors.Is(err, domain.ErrMalformedProviderResponse):
		metrics.GenerationsTotal.WithLabelValues("malformed").Inc()
		log.Warn().Err(err).Msg("malformed riddle from provider, retrying once")
		retry, err := s.callProvider(ctx, req)
		if err != nil {
			metrics.GenerationsTotal.WithLabelValues("failed").Inc()
			return domain.GeneratedRiddle{}, unavailable(err)
		}
		metrics.GenerationsTotal.WithLabelValues("ok").Inc()
		return retry, nil
	case err != nil:
		metrics.GenerationsTotal.WithLabelValues("failed").Inc()
		return domain.GeneratedRiddle{}, unavailable(err)
	}

	if !containsAnswer(exclude, first.Answer) {
		metrics.GenerationsTotal.WithLabelValues("ok").Inc()
		return first, nil
	}

	metrics.GenerationsTotal.WithLabelValues("duplicate").Inc()
	log.Warn().Str("answer", domain.NormalizeAnswer(first.Answer)).Msg("provider repeated a recent answer, retrying once")
	req.Strict = true
	retry, err := s.callProvider(ctx, req)
	if err != nil {
		// The first result is still a valid riddle.
		log.Warn().Err(err).Msg("duplicate retry failed, keeping first riddle")
		return first, nil
	}
	metrics.GenerationsTotal.WithLabelValues("ok").Inc()
	return retry, nil
}

func (s *RiddleService) callProvider(ctx context.Context, req domain.GenerationRequest) (domain.GeneratedRiddle, error) {
	generated, err := s.generator.Generate(ctx, req)
	if err != nil {
		return domain.GeneratedRiddle{}, err
	}
	if err := generated.Validate(); err != nil {
		return domain.GeneratedRiddle{}, err
	}
	return generated, nil
}

func unavailable(err error) error {
	if errors.Is(err, domain.ErrGenerationUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrGenerationUnavailable, err)
}

func mergeExclusions(recent, extra []string) []string {
	seen := make(map[string]struct{}, len(recent)+len(extra))
	out := make([]string, 0, len(recent)+len(extra))
	for _, list := range [][]string{recent, extra} {
		for _, a := range list {
			a = domain.NormalizeAnswer(a)
			if a == "" {
				continue
			}
			if _, ok := seen[a]; ok {
				continue
			}
			seen[a] = struct{}{}
			out = append(out, a)
		}
	}
	return out
}

func containsAnswer(exclude []string, answer string) bool {
	answer = domain.NormalizeAnswer(answer)
	for _, a := range exclude {
		if a == answer {
			return true
		}
	}
	return false
}
