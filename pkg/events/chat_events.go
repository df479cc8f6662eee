package events

import "time"

const (
	TypeChatAnswered  = "CHAT_ANSWERED"
	TypeSessionClosed = "SESSION_CLOSED"
)

// ChatAnswered is emitted after an answer has been recorded in a session.
func ChatAnswered(sessionID, category, path string, passages int, grounded bool, latency time.Duration) BaseEvent {
	return BaseEvent{
		Type: TypeChatAnswered,
		Data: map[string]interface{}{
			"session_id": sessionID,
			"category":   category,
			"path":       path,
			"passages":   passages,
			"grounded":   grounded,
			"latency_ms": latency.Milliseconds(),
		},
		OccurredAt: time.Now(),
	}
}

func SessionClosed(sessionID string) BaseEvent {
	return BaseEvent{
		Type:       TypeSessionClosed,
		Data:       map[string]interface{}{"session_id": sessionID},
		OccurredAt: time.Now(),
	}
}
