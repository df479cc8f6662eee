package history

import (
	"context"

	"medichain-be/pkg/llm"
	"medichain-be/pkg/rag/session"
	"medichain-be/pkg/store"
)

// Loader turns a session's stored turns into chat messages for the LLM.
type Loader struct {
	sessions *session.Manager
}

func NewLoader(sessions *session.Manager) *Loader {
	return &Loader{sessions: sessions}
}

// LoadConversationHistory returns the full prior dialogue of sessionID,
// oldest first.
func (l *Loader) LoadConversationHistory(ctx context.Context, sessionID string) ([]llm.Message, error) {
	turns, err := l.sessions.History(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return ToMessages(turns), nil
}

// ToMessages maps turns one to one, preserving order.
func ToMessages(turns []store.Turn) []llm.Message {
	messages := make([]llm.Message, 0, len(turns))
	for _, t := range turns {
		role := llm.RoleUser
		if t.Role == store.RoleAssistant {
			role = llm.RoleAssistant
		}
		messages = append(messages, llm.Message{
			Role:    role,
			Content: t.Text,
		})
	}
	return messages
}
