package mapper

import (
	"medichain-be/internal/model"
	"medichain-be/pkg/store"
)

type ChatMapper struct{}

func NewChatMapper() *ChatMapper {
	return &ChatMapper{}
}

func (m *ChatMapper) TurnToModel(sessionID string, t store.Turn) *model.ChatTurn {
	return &model.ChatTurn{
		SessionId: sessionID,
		Role:      t.Role,
		Text:      t.Text,
	}
}

func (m *ChatMapper) TurnToStore(t *model.ChatTurn) store.Turn {
	return store.Turn{Role: t.Role, Text: t.Text}
}
