package entity

import (
	"time"

	"github.com/google/uuid"
)

// PassageEmbedding is one pre-embedded chunk of a category's reference corpus.
type PassageEmbedding struct {
	Id             uuid.UUID
	Category       string
	Document       string
	EmbeddingValue []float32
	Source         string
	ChunkIndex     int
	Metadata       map[string]interface{}
	CreatedAt      time.Time
	UpdatedAt      *time.Time
}
