package retrieval

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"medichain-be/internal/config"
	"medichain-be/internal/pkg/logger"
	"medichain-be/internal/testutil"
	"medichain-be/pkg/index"
	"medichain-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSearcher struct {
	passages   []store.Passage
	err        error
	collection string
	k          int
}

func (f *fakeSearcher) Search(_ context.Context, collection, _ string, k int) ([]store.Passage, error) {
	f.collection = collection
	f.k = k
	return f.passages, f.err
}

func writeArtifacts(t *testing.T, dir, name string, vectors [][]float32, chunks []string) (string, string) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, index.WriteFvecs(&buf, vectors))
	idxPath := filepath.Join(dir, name+".fvecs")
	chunkPath := filepath.Join(dir, name+".txt")
	require.NoError(t, os.WriteFile(idxPath, buf.Bytes(), 0o644))
	require.NoError(t, os.WriteFile(chunkPath, []byte(strings.Join(chunks, "\n\n")), 0o644))
	return idxPath, chunkPath
}

func newRawBackend(t *testing.T, query []float32, vectors [][]float32, chunks []string) *RawVectorBackend {
	t.Helper()
	idx, err := index.NewRawIndex(vectors)
	require.NoError(t, err)
	b, err := NewRawVectorBackend(&testutil.FakeEmbedder{Fallback: query}, idx, chunks, 0.5, 3)
	require.NoError(t, err)
	return b
}

func TestRawVectorBackendThresholdAndCap(t *testing.T) {
	vectors := [][]float32{
		testutil.Unit(2, 0.71),
		testutil.Unit(2, 0.49),
		testutil.Unit(2, 0.95),
		testutil.Unit(2, 0.5),
		testutil.Unit(2, 0.8),
		testutil.Unit(2, -1),
	}
	chunks := []string{"p0", "p1", "p2", "p3", "p4", "p5"}
	b := newRawBackend(t, []float32{10, 0}, vectors, chunks)

	block, err := b.Search(context.Background(), "what is the common cold?")
	require.NoError(t, err)

	require.Len(t, block.Passages, 3)
	assert.Equal(t, []string{"p2", "p4", "p0"}, []string{block.Passages[0].Text, block.Passages[1].Text, block.Passages[2].Text})
	for _, p := range block.Passages {
		assert.GreaterOrEqual(t, p.Score, 0.5)
	}
	assert.Equal(t, "p2\np4\np0", block.Text())
}

func TestRawVectorBackendNothingQualifies(t *testing.T) {
	b := newRawBackend(t, []float32{1, 0}, [][]float32{testutil.Unit(2, 0.3), testutil.Unit(2, 0.1)}, []string{"a", "b"})

	block, err := b.Search(context.Background(), "q")
	require.NoError(t, err)
	assert.True(t, block.Empty())
	assert.Equal(t, "", block.Text())
}

func TestRawVectorBackendScaleInvariant(t *testing.T) {
	vectors := [][]float32{testutil.Unit(2, 0.7), testutil.Unit(2, 0.9)}
	small := newRawBackend(t, []float32{0.001, 0.0005}, vectors, []string{"a", "b"})
	large := newRawBackend(t, []float32{1000, 500}, vectors, []string{"a", "b"})

	a, err := small.Search(context.Background(), "q")
	require.NoError(t, err)
	b, err := large.Search(context.Background(), "q")
	require.NoError(t, err)
	require.Len(t, b.Passages, len(a.Passages))
	for i := range a.Passages {
		assert.Equal(t, a.Passages[i].Text, b.Passages[i].Text)
		assert.InDelta(t, a.Passages[i].Score, b.Passages[i].Score, 1e-5)
	}
}

func TestRawVectorBackendRejectsMismatch(t *testing.T) {
	idx, err := index.NewRawIndex([][]float32{{1, 0}, {0, 1}})
	require.NoError(t, err)

	_, err = NewRawVectorBackend(&testutil.FakeEmbedder{}, idx, []string{"only one"}, 0.5, 3)
	assert.ErrorIs(t, err, index.ErrMalformedIndex)

	empty, err := index.NewRawIndex(nil)
	require.NoError(t, err)
	_, err = NewRawVectorBackend(&testutil.FakeEmbedder{}, empty, nil, 0.5, 3)
	assert.ErrorIs(t, err, index.ErrMalformedIndex)
}

func TestRawVectorBackendQueryDimension(t *testing.T) {
	b := newRawBackend(t, []float32{1, 0, 0}, [][]float32{{1, 0}}, []string{"a"})
	_, err := b.Search(context.Background(), "q")
	assert.Error(t, err)
}

func TestDocumentBackendNoThreshold(t *testing.T) {
	s := &fakeSearcher{passages: []store.Passage{
		{Text: "a", Score: 0.1}, {Text: "b", Score: 0.05}, {Text: "c", Score: 0.01}, {Text: "d", Score: 0.0},
	}}
	b := NewDocumentBackend(s, "treatment", 3)

	block, err := b.Search(context.Background(), "q")
	require.NoError(t, err)
	assert.Len(t, block.Passages, 3)
	assert.Equal(t, "a\n\nb\n\nc", block.Text())
	assert.Equal(t, "treatment", s.collection)
	assert.Equal(t, 3, s.k)
	assert.Equal(t, config.BackendDocument, b.Kind())
}

func tableWith(categories ...config.CategoryConfig) *config.CategoryTable {
	t := &config.CategoryTable{
		DefaultLabel: "default",
		Retrieval:    config.RetrievalConfig{TopK: 3},
		Categories:   categories,
	}
	return t
}

func TestBuildRegistryFallsBackForMissingArtifacts(t *testing.T) {
	dir := t.TempDir()
	idxPath, chunkPath := writeArtifacts(t, dir, "default", [][]float32{{1, 0}}, []string{"default passage"})

	table := tableWith(
		config.CategoryConfig{Label: "treatment", Backend: config.BackendRaw, IndexPath: filepath.Join(dir, "missing.fvecs"), ChunksPath: chunkPath},
		config.CategoryConfig{Label: "medicine", Backend: config.BackendRaw},
		config.CategoryConfig{Label: "default", Backend: config.BackendRaw, IndexPath: idxPath, ChunksPath: chunkPath},
	)
	reg := BuildRegistry(table, Deps{Embedder: &testutil.FakeEmbedder{Fallback: []float32{1, 0}}}, logger.NewNopLogger())

	assert.ElementsMatch(t, []string{"default"}, reg.Labels())

	r := NewRetriever(reg, logger.NewNopLogger())
	block, err := r.Retrieve(context.Background(), "treatment", "how is the flu treated?")
	require.NoError(t, err)
	require.Len(t, block.Passages, 1)
	assert.Equal(t, "default passage", block.Passages[0].Text)
}

func TestBuildRegistryMalformedIndex(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.fvecs")
	require.NoError(t, os.WriteFile(bad, []byte{1, 2, 3}, 0o644))
	_, chunkPath := writeArtifacts(t, dir, "c", [][]float32{{1}}, []string{"x"})

	table := tableWith(
		config.CategoryConfig{Label: "medicine", Backend: config.BackendRaw, IndexPath: bad, ChunksPath: chunkPath},
		config.CategoryConfig{Label: "default", Backend: config.BackendRaw, IndexPath: bad, ChunksPath: chunkPath},
	)
	reg := BuildRegistry(table, Deps{Embedder: &testutil.FakeEmbedder{}}, logger.NewNopLogger())
	assert.Empty(t, reg.Labels())

	block, err := NewRetriever(reg, logger.NewNopLogger()).Retrieve(context.Background(), "medicine", "q")
	require.NoError(t, err)
	assert.True(t, block.Empty())
}

func TestBuildRegistryDocumentBackend(t *testing.T) {
	table := tableWith(
		config.CategoryConfig{Label: "treatment", Backend: config.BackendDocument},
		config.CategoryConfig{Label: "default", Backend: config.BackendDocument, Collection: "general"},
	)
	s := &fakeSearcher{passages: []store.Passage{{Text: "rest"}}}
	reg := BuildRegistry(table, Deps{Documents: s}, logger.NewNopLogger())

	b, served := reg.Resolve("treatment")
	require.NotNil(t, b)
	assert.Equal(t, "treatment", served)

	_, err := b.Search(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, "treatment", s.collection)

	_, served = reg.Resolve("unknown")
	assert.Equal(t, "default", served)
}

func TestBuildRegistryDocumentWithoutStore(t *testing.T) {
	table := tableWith(config.CategoryConfig{Label: "default", Backend: config.BackendDocument})
	reg := BuildRegistry(table, Deps{}, logger.NewNopLogger())
	b, _ := reg.Resolve("default")
	assert.Nil(t, b)
}

func TestRetrieverSurfacesTransportFailure(t *testing.T) {
	reg := NewRegistry("default")
	reg.Register("default", NewDocumentBackend(&fakeSearcher{err: errors.New("connection reset")}, "general", 3))

	_, err := NewRetriever(reg, logger.NewNopLogger()).Retrieve(context.Background(), "medicine", "q")
	assert.ErrorContains(t, err, "connection reset")
}
