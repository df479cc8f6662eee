package category

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"medichain-be/pkg/embedding"
	"medichain-be/pkg/store"
)

// LoadExemplars reads a JSON Lines file of {"text","label","embedding"}
// records. Blank lines are skipped and labels are lower-cased.
func LoadExemplars(path string) ([]store.Exemplar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open exemplars %s: %w", path, err)
	}
	defer f.Close()

	var out []store.Exemplar
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}

		var ex store.Exemplar
		if err := json.Unmarshal([]byte(raw), &ex); err != nil {
			return nil, fmt.Errorf("exemplars %s line %d: %w", path, line, err)
		}
		ex.Label = strings.ToLower(strings.TrimSpace(ex.Label))
		if ex.Text == "" || ex.Label == "" {
			return nil, fmt.Errorf("exemplars %s line %d: text and label are required", path, line)
		}
		out = append(out, ex)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read exemplars %s: %w", path, err)
	}
	return out, nil
}

// EnsureEmbeddings fills in missing exemplar embeddings with a bounded
// batch of embedding calls. Exemplars that already carry a vector are left
// untouched.
func EnsureEmbeddings(ctx context.Context, p embedding.EmbeddingProvider, exemplars []store.Exemplar, limit int) ([]store.Exemplar, int, error) {
	var (
		missing []int
		texts   []string
	)
	for i, ex := range exemplars {
		if len(ex.Embedding) == 0 {
			missing = append(missing, i)
			texts = append(texts, ex.Text)
		}
	}
	if len(missing) == 0 {
		return exemplars, 0, nil
	}

	vectors, err := embedding.GenerateBatch(ctx, p, texts, embedding.TaskClassification, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("embed exemplars: %w", err)
	}

	out := append([]store.Exemplar(nil), exemplars...)
	for j, i := range missing {
		out[i].Embedding = vectors[j]
	}
	return out, len(missing), nil
}
