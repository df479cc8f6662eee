package mapper

import (
	"encoding/json"
	"time"

	"medichain-be/internal/entity"
	"medichain-be/internal/model"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type PassageMapper struct{}

func NewPassageMapper() *PassageMapper {
	return &PassageMapper{}
}

func (m *PassageMapper) ToEntity(e *model.PassageEmbedding) *entity.PassageEmbedding {
	if e == nil {
		return nil
	}

	var updatedAt *time.Time
	if !e.UpdatedAt.IsZero() {
		t := e.UpdatedAt
		updatedAt = &t
	}

	var metadata map[string]interface{}
	if len(e.Metadata) > 0 {
		// malformed metadata is dropped, the passage text is still usable
		_ = json.Unmarshal(e.Metadata, &metadata)
	}

	return &entity.PassageEmbedding{
		Id:             e.Id,
		Category:       e.Category,
		Document:       e.Document,
		EmbeddingValue: e.EmbeddingValue.Slice(),
		Source:         e.Source,
		ChunkIndex:     e.ChunkIndex,
		Metadata:       metadata,
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      updatedAt,
	}
}

func (m *PassageMapper) ToModel(e *entity.PassageEmbedding) *model.PassageEmbedding {
	if e == nil {
		return nil
	}

	var updatedAt time.Time
	if e.UpdatedAt != nil {
		updatedAt = *e.UpdatedAt
	}

	var metadata datatypes.JSON
	if e.Metadata != nil {
		if raw, err := json.Marshal(e.Metadata); err == nil {
			metadata = raw
		}
	}

	return &model.PassageEmbedding{
		Id:             e.Id,
		Category:       e.Category,
		Document:       e.Document,
		EmbeddingValue: pgvector.NewVector(e.EmbeddingValue),
		Source:         e.Source,
		ChunkIndex:     e.ChunkIndex,
		Metadata:       metadata,
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      updatedAt,
	}
}
