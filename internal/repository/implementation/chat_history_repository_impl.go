package implementation

import (
	"context"
	"fmt"

	"medichain-be/internal/mapper"
	"medichain-be/internal/model"
	"medichain-be/internal/repository/specification"
	"medichain-be/pkg/store"

	"gorm.io/gorm"
)

// ChatHistoryRepositoryImpl keeps session histories in the chat_turns table.
// Histories survive restarts and have no expiry.
type ChatHistoryRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ChatMapper
}

func NewChatHistoryRepository(db *gorm.DB) *ChatHistoryRepositoryImpl {
	return &ChatHistoryRepositoryImpl{
		db:     db,
		mapper: mapper.NewChatMapper(),
	}
}

func (r *ChatHistoryRepositoryImpl) Load(ctx context.Context, sessionID string) ([]store.Turn, error) {
	var models []model.ChatTurn
	err := specification.Apply(r.db.WithContext(ctx),
		specification.BySessionID{SessionID: sessionID},
		specification.OrderBy{Field: "id"},
	).Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to read session history: %w", err)
	}

	turns := make([]store.Turn, len(models))
	for i := range models {
		turns[i] = r.mapper.TurnToStore(&models[i])
	}
	return turns, nil
}

func (r *ChatHistoryRepositoryImpl) Append(ctx context.Context, sessionID string, turns ...store.Turn) error {
	if len(turns) == 0 {
		return nil
	}
	models := make([]*model.ChatTurn, len(turns))
	for i, t := range turns {
		models[i] = r.mapper.TurnToModel(sessionID, t)
	}
	if err := r.db.WithContext(ctx).Create(models).Error; err != nil {
		return fmt.Errorf("failed to append session history: %w", err)
	}
	return nil
}

func (r *ChatHistoryRepositoryImpl) Delete(ctx context.Context, sessionID string) error {
	err := specification.BySessionID{SessionID: sessionID}.
		Apply(r.db.WithContext(ctx)).
		Delete(&model.ChatTurn{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete session history: %w", err)
	}
	return nil
}
