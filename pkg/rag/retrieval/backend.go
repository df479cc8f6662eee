package retrieval

import (
	"context"

	"medichain-be/pkg/store"
)

// Backend is one way of turning a query into grounding passages. Every
// category resolves to exactly one backend at startup.
type Backend interface {
	Search(ctx context.Context, query string) (store.ContextBlock, error)
	Kind() string
}
