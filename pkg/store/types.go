package store

import "strings"

// Turn roles stored in a session history.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one entry of a session history.
type Turn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// Passage is a retrieved chunk of source text and its similarity to the query.
type Passage struct {
	ID       string                 `json:"id,omitempty"`
	Text     string                 `json:"text"`
	Score    float64                `json:"score"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// ContextBlock is the ordered grounding handed to the specialist. An empty
// block is a valid "no grounding" state.
type ContextBlock struct {
	Passages  []Passage
	Separator string
}

func (c ContextBlock) Empty() bool {
	return len(c.Passages) == 0
}

// Text joins passage texts with the block separator (newline by default).
func (c ContextBlock) Text() string {
	if len(c.Passages) == 0 {
		return ""
	}
	sep := c.Separator
	if sep == "" {
		sep = "\n"
	}
	parts := make([]string, len(c.Passages))
	for i, p := range c.Passages {
		parts[i] = p.Text
	}
	return strings.Join(parts, sep)
}

// Exemplar is a labeled reference text used only for routing.
type Exemplar struct {
	Text      string    `json:"text"`
	Label     string    `json:"label"`
	Embedding []float32 `json:"embedding,omitempty"`
}
