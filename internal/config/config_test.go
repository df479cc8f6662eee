package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTable = `
routing:
  top_k: 5
finalizer:
  temperature: 0
categories:
  - label: Medicine
    backend: raw
    index_path: vector_db/medicine/index.fvecs
    chunks_path: vector_db/medicine/chunks.txt
    model: gpt-4o-mini
  - label: treatment
    backend: document
    collection: treatment
  - label: default
    index_path: vector_db/default/index.fvecs
    chunks_path: vector_db/default/chunks.txt
`

func TestParseCategoryTableDefaults(t *testing.T) {
	table, err := ParseCategoryTable([]byte(sampleTable))
	require.NoError(t, err)

	assert.Equal(t, DefaultLabel, table.DefaultLabel)
	assert.Equal(t, 0.5, *table.Routing.Threshold)
	assert.Equal(t, 5, table.Routing.TopK)
	assert.Equal(t, 0.2, *table.Routing.ClassifierTemperature)
	assert.Equal(t, 0.5, *table.Retrieval.Threshold)
	assert.Equal(t, 3, table.Retrieval.TopK)
	assert.Equal(t, 0.0, *table.Finalizer.Temperature)

	assert.Equal(t, []string{"medicine", "treatment"}, table.Labels())

	def, ok := table.Lookup("default")
	require.True(t, ok)
	assert.Equal(t, BackendRaw, def.Backend)
	assert.Equal(t, 0.2, *def.Temperature)
}

func TestParseCategoryTableKeepsZeroThreshold(t *testing.T) {
	table, err := ParseCategoryTable([]byte("routing:\n  threshold: 0\nretrieval:\n  threshold: 0\ncategories:\n  - label: default\n"))
	require.NoError(t, err)

	require.NotNil(t, table.Routing.Threshold)
	assert.Equal(t, 0.0, *table.Routing.Threshold)
	assert.Equal(t, 0.0, table.Routing.EffectiveThreshold())
	assert.Equal(t, 0.0, table.Retrieval.EffectiveThreshold())
}

func TestEffectiveThresholdUnset(t *testing.T) {
	assert.Equal(t, DefaultThreshold, RoutingConfig{}.EffectiveThreshold())
	assert.Equal(t, DefaultThreshold, RetrievalConfig{}.EffectiveThreshold())
}

func TestParseCategoryTableRejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"missing default", "categories:\n  - label: medicine\n"},
		{"duplicate label", "categories:\n  - label: default\n  - label: default\n"},
		{"unknown backend", "categories:\n  - label: default\n    backend: faiss\n"},
		{"bad threshold", "routing:\n  threshold: 1.5\ncategories:\n  - label: default\n"},
		{"negative threshold", "retrieval:\n  threshold: -0.1\ncategories:\n  - label: default\n"},
		{"not yaml", "categories: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCategoryTable([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoadCategoryTableMissingFileUsesDefaults(t *testing.T) {
	table, err := LoadCategoryTable(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	require.NoError(t, table.Validate())
	assert.Len(t, table.Labels(), 6)

	treatment, ok := table.Lookup("treatment")
	require.True(t, ok)
	assert.Equal(t, BackendDocument, treatment.Backend)
}

func TestLoadCategoryTableFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "categories.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleTable), 0o644))

	table, err := LoadCategoryTable(path)
	require.NoError(t, err)
	assert.Len(t, table.Categories, 3)
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("APP_PORT", "8080")
	t.Setenv("LLM_TIMEOUT", "90")
	t.Setenv("EMBEDDING_TIMEOUT", "2s")
	t.Setenv("HISTORY_BACKEND", "redis")
	t.Setenv("HISTORY_MAX_SESSIONS", "not-a-number")
	t.Setenv("OTEL_ENABLED", "true")

	cfg := Load()
	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, 90*time.Second, cfg.Ai.LLMTimeout)
	assert.Equal(t, 2*time.Second, cfg.Ai.EmbeddingTimeout)
	assert.Equal(t, "redis", cfg.History.Backend)
	assert.Equal(t, 10000, cfg.History.MaxSessions)
	assert.True(t, cfg.App.OtelEnabled)
	assert.False(t, cfg.IsProduction())
}
