package openai

import (
	"fmt"
	"strings"

	"riddleme-service/internal/domain"
)

func buildPrompt(req domain.GenerationRequest) string {
	var b strings.Builder
	b.WriteString("Generate a challenging riddle.\n")
	if req.Theme != "" {
		fmt.Fprintf(&b, "Theme: %s\n", req.Theme)
	}
	if req.Difficulty != "" {
		fmt.Fprintf(&b, "Difficulty: %s\n", req.Difficulty)
	}
	if len(req.Exclude) > 0 {
		b.WriteString("\nThe answer must NOT be any of these recently used answers:\n")
		for _, a := range req.Exclude {
			fmt.Fprintf(&b, "- %s\n", a)
		}
	}
	if req.Strict {
		b.WriteString("\nYour previous riddle reused one of the answers above. Pick a completely different subject this time.\n")
	}
	b.WriteString(`
Create a completely NEW riddle with:
1. An engaging, clever question
2. A specific, unambiguous answer (single word or short phrase)
3. Three progressive hints (easy, medium, hard)

Respond with JSON only, in this exact shape:
{
  "question": "Your riddle question here",
  "answer": "exact answer",
  "hints": ["hint 1", "hint 2", "hint 3"]
}`)
	return b.String()
}
