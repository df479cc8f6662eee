package embedding

import "context"

// Task types understood by providers that distinguish them (Gemini).
// Others ignore the hint.
const (
	TaskRetrievalQuery    = "RETRIEVAL_QUERY"
	TaskRetrievalDocument = "RETRIEVAL_DOCUMENT"
	TaskClassification    = "CLASSIFICATION"
)

type EmbeddingRequestContentPart struct {
	Text string `json:"text"`
}

type EmbeddingRequestContent struct {
	Parts []EmbeddingRequestContentPart `json:"parts"`
}

type EmbeddingRequest struct {
	Model    string                  `json:"model"`
	Content  EmbeddingRequestContent `json:"content"`
	TaskType string                  `json:"task_type,omitempty"`
}

type EmbeddingResponseEmbedding struct {
	Values []float32 `json:"values"`
}

type EmbeddingResponse struct {
	Embedding EmbeddingResponseEmbedding `json:"embedding"`
}

// EmbeddingProvider defines the interface for generating text embeddings
type EmbeddingProvider interface {
	Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error)
}

// Embed is a convenience wrapper returning only the vector.
func Embed(ctx context.Context, p EmbeddingProvider, text, taskType string) ([]float32, error) {
	res, err := p.Generate(ctx, text, taskType)
	if err != nil {
		return nil, err
	}
	return res.Embedding.Values, nil
}
