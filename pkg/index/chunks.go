package index

import (
	"fmt"
	"os"
	"strings"
)

// ChunkSeparator separates passages in a chunk text file.
const ChunkSeparator = "\n\n"

// LoadChunks reads a chunk file and returns its trimmed, non-empty passages
// in file order. Passage i corresponds to vector i of the paired index.
func LoadChunks(path string) ([]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read chunks %s: %w", path, err)
	}
	return SplitChunks(string(raw)), nil
}

func SplitChunks(content string) []string {
	parts := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), ChunkSeparator)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
