package openai

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"riddleme-service/internal/domain"
)

// ParseRiddle turns raw model output into a validated riddle. Anything that is
// not a single JSON object with question, answer and exactly three hints is
// reported as domain.ErrMalformedProviderResponse.
func ParseRiddle(content string) (domain.GeneratedRiddle, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return domain.GeneratedRiddle{}, fmt.Errorf("%w: no JSON object in content", domain.ErrMalformedProviderResponse)
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(content[start : end+1])))
	dec.DisallowUnknownFields()
	var riddle domain.GeneratedRiddle
	if err := dec.Decode(&riddle); err != nil {
		return domain.GeneratedRiddle{}, fmt.Errorf("%w: %v", domain.ErrMalformedProviderResponse, err)
	}
	if err := riddle.Validate(); err != nil {
		return domain.GeneratedRiddle{}, err
	}

	riddle.Question = strings.TrimSpace(riddle.Question)
	riddle.Answer = domain.NormalizeAnswer(riddle.Answer)
	for i := range riddle.Hints {
		riddle.Hints[i] = strings.TrimSpace(riddle.Hints[i])
	}
	return riddle, nil
}
