package retrieval

import (
	"context"

	"medichain-be/internal/config"
	"medichain-be/pkg/store"
)

const documentSeparator = "\n\n"

// DocumentSearcher is a document-native similarity store that embeds and
// ranks on its own.
type DocumentSearcher interface {
	Search(ctx context.Context, collection, query string, k int) ([]store.Passage, error)
}

// DocumentBackend returns the top-K passages of a collection with no
// similarity cut-off.
type DocumentBackend struct {
	searcher   DocumentSearcher
	collection string
	topK       int
}

func NewDocumentBackend(searcher DocumentSearcher, collection string, topK int) *DocumentBackend {
	return &DocumentBackend{searcher: searcher, collection: collection, topK: topK}
}

func (b *DocumentBackend) Kind() string { return config.BackendDocument }

func (b *DocumentBackend) Search(ctx context.Context, query string) (store.ContextBlock, error) {
	passages, err := b.searcher.Search(ctx, b.collection, query, b.topK)
	if err != nil {
		return store.ContextBlock{}, err
	}
	if len(passages) > b.topK {
		passages = passages[:b.topK]
	}
	return store.ContextBlock{Passages: passages, Separator: documentSeparator}, nil
}
