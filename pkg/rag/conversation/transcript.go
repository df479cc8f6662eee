package conversation

import (
	"context"
	"strings"

	"medichain-be/pkg/rag/session"
	"medichain-be/pkg/store"
)

// Transcript renders a session as plain text for download.
func Transcript(ctx context.Context, sessions *session.Manager, sessionID string) (string, error) {
	turns, err := sessions.History(ctx, sessionID)
	if err != nil {
		return "", err
	}
	return RenderTranscript(turns), nil
}

// RenderTranscript writes each turn as "[role]\ntext\n\n".
func RenderTranscript(turns []store.Turn) string {
	var b strings.Builder
	for _, t := range turns {
		b.WriteString("[")
		b.WriteString(t.Role)
		b.WriteString("]\n")
		b.WriteString(t.Text)
		b.WriteString("\n\n")
	}
	return b.String()
}
