package search

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"medichain-be/internal/pkg/logger"
	"medichain-be/pkg/embedding"
	"medichain-be/pkg/index"
	"medichain-be/pkg/utils"
)

const (
	IndexFileName  = "index.fvecs"
	ChunksFileName = "chunks.txt"
)

// ArtifactBuilder collects document chunks and writes them as a raw vector
// artifact: index.fvecs plus a chunks.txt whose i-th passage belongs to the
// i-th vector.
type ArtifactBuilder struct {
	embeddingProvider embedding.EmbeddingProvider
	chunkSize         int
	overlap           int
	logger            logger.ILogger
	chunks            []string
}

func NewArtifactBuilder(embeddingProvider embedding.EmbeddingProvider, chunkSize, overlap int, logger logger.ILogger) *ArtifactBuilder {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &ArtifactBuilder{
		embeddingProvider: embeddingProvider,
		chunkSize:         chunkSize,
		overlap:           overlap,
		logger:            logger,
	}
}

// Add chunks text and returns how many passages it contributed.
func (b *ArtifactBuilder) Add(text string) int {
	n := 0
	for _, c := range utils.SplitText(text, b.chunkSize, b.overlap) {
		// A blank line inside a passage would split it in two on load.
		if c = strings.Join(index.SplitChunks(c), "\n"); c != "" {
			b.chunks = append(b.chunks, c)
			n++
		}
	}
	return n
}

func (b *ArtifactBuilder) Len() int { return len(b.chunks) }

// Write embeds every collected chunk and writes both files into dir,
// creating it if needed. Nothing is written when embedding fails.
func (b *ArtifactBuilder) Write(ctx context.Context, dir string) (int, error) {
	if len(b.chunks) == 0 {
		return 0, fmt.Errorf("no passages to write")
	}

	vectors, err := embedding.GenerateBatch(ctx, b.embeddingProvider, b.chunks, embedding.TaskRetrievalDocument, ingestConcurrency)
	if err != nil {
		return 0, fmt.Errorf("embed passages: %w", err)
	}
	if _, err := index.NewRawIndex(vectors); err != nil {
		return 0, err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("create %s: %w", dir, err)
	}
	if err := writeIndexFile(filepath.Join(dir, IndexFileName), vectors); err != nil {
		return 0, err
	}
	content := strings.Join(b.chunks, index.ChunkSeparator) + "\n"
	if err := os.WriteFile(filepath.Join(dir, ChunksFileName), []byte(content), 0o644); err != nil {
		return 0, fmt.Errorf("write chunks: %w", err)
	}

	b.logger.Info("INGEST", "Raw artifact written", map[string]interface{}{
		"dir":      dir,
		"passages": len(b.chunks),
		"dim":      len(vectors[0]),
	})
	return len(b.chunks), nil
}

func writeIndexFile(path string, vectors [][]float32) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create index %s: %w", path, err)
	}
	w := bufio.NewWriter(f)
	if err := index.WriteFvecs(w, vectors); err != nil {
		f.Close()
		return fmt.Errorf("write index %s: %w", path, err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("write index %s: %w", path, err)
	}
	return f.Close()
}
