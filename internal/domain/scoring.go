package domain

import "fmt"

const (
	// BaseScore is awarded for a riddle solved without hints or mistakes.
	BaseScore = 25
	// WrongAnswerPenalty is subtracted per incorrect submission.
	WrongAnswerPenalty = 5
)

var hintCeilings = [HintCount + 1]int{BaseScore, 15, 10, 5}

// HintCeiling returns the maximum score once the given number of hints is revealed.
// Out-of-range values are clamped to [0, HintCount].
func HintCeiling(hintsUsed int) int {
	if hintsUsed < 0 {
		hintsUsed = 0
	}
	if hintsUsed > HintCount {
		hintsUsed = HintCount
	}
	return hintCeilings[hintsUsed]
}

// RemainingPoints applies the wrong-answer penalty on top of the hint ceiling, floored at zero.
func RemainingPoints(hintsUsed, wrongAttempts int) int {
	points := HintCeiling(hintsUsed) - WrongAnswerPenalty*wrongAttempts
	if points < 0 {
		return 0
	}
	return points
}

// Scorecard is the client-held state of one riddle attempt.
type Scorecard struct {
	HintsUsed     int
	WrongAttempts int
}

// RevealHint reveals hint k. Only the next hint in sequence may be revealed.
func (s *Scorecard) RevealHint(k int) error {
	if k < 1 || k > HintCount || k != s.HintsUsed+1 {
		return fmt.Errorf("%w: hint %d after %d revealed", ErrHintOrder, k, s.HintsUsed)
	}
	s.HintsUsed = k
	return nil
}

// RecordWrong counts an incorrect submission.
func (s *Scorecard) RecordWrong() {
	s.WrongAttempts++
}

// Points is the score the current attempt is still worth.
func (s Scorecard) Points() int {
	return RemainingPoints(s.HintsUsed, s.WrongAttempts)
}

// Exhausted reports whether the attempt has no points left and must be skipped.
func (s Scorecard) Exhausted() bool {
	return s.Points() == 0
}
