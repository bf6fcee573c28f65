package respond

import (
	"fmt"
	"math"
	"strings"

	"peacekeeper/internal/core/conflict"
)

// Request is what the generator gets to work with
type Request struct {
	Context    []conflict.Message
	Reasons    conflict.Reasons
	Confidence float64
}

// Label is the conflict type as rendered for prompts and persistence
func (r Request) Label() string {
	if len(r.Reasons) == 0 {
		return "general"
	}
	return r.Reasons.String()
}

// BuildPrompt renders the in-character mediation prompt
func BuildPrompt(r Request) string {
	var convo strings.Builder
	for _, m := range r.Context {
		fmt.Fprintf(&convo, "%s: %s\n", m.AuthorID, m.Content)
	}

	return fmt.Sprintf(`You are Obi-Wan Kenobi observing a conversation that has become heated. Step in as a calm, wise mediator.

Conflict type detected: %s
Confidence: %.0f%%

Recent conversation:
%s
Respond with a brief, diplomatic message that acknowledges both perspectives without taking sides and gently encourages a calmer tone. Keep it to 1-2 sentences maximum.`,
		r.Label(), math.Round(r.Confidence*100), convo.String())
}
