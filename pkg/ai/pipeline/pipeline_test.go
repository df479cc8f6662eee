package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"medichain-be/internal/config"
	"medichain-be/internal/pkg/logger"
	"medichain-be/internal/repository/memory"
	"medichain-be/internal/testutil"
	"medichain-be/pkg/apperror"
	"medichain-be/pkg/embedding"
	"medichain-be/pkg/index"
	"medichain-be/pkg/llm"
	"medichain-be/pkg/rag/category"
	"medichain-be/pkg/rag/conversation"
	"medichain-be/pkg/rag/prompt"
	"medichain-be/pkg/rag/response"
	"medichain-be/pkg/rag/retrieval"
	"medichain-be/pkg/rag/session"
	"medichain-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	coldQuery    = "what is the common cold?"
	weatherQuery = "what's the weather today?"
	fluQuery     = "how should I treat the flu?"
	doseQuery    = "which dose of ibuprofen is safe?"

	coldPassage    = "The common cold is a viral infection of the upper airway."
	defaultPassage = "General guidance from the default index."
)

// taskEmbedder returns a different vector per task type so routing and
// retrieval similarities can be dialed independently.
type taskEmbedder struct {
	mu      sync.Mutex
	vectors map[string][]float32
	calls   map[string]int
}

func (e *taskEmbedder) Generate(_ context.Context, text, taskType string) (*embedding.EmbeddingResponse, error) {
	e.mu.Lock()
	e.calls[taskType]++
	e.mu.Unlock()

	v, ok := e.vectors[taskType+"|"+text]
	if !ok {
		return nil, fmt.Errorf("no %s vector for %q", taskType, text)
	}
	return &embedding.EmbeddingResponse{
		Embedding: embedding.EmbeddingResponseEmbedding{Values: v},
	}, nil
}

func (e *taskEmbedder) count(taskType string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls[taskType]
}

type harness struct {
	rag      *RAGPipeline
	bypass   *BypassPipeline
	llm      *testutil.FakeLLM
	emb      *taskEmbedder
	sessions *session.Manager
}

func writeArtifacts(t *testing.T, dir, name string, vectors [][]float32, chunks []string) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, index.WriteFvecs(&buf, vectors))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".fvecs"), buf.Bytes(), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".txt"), []byte(strings.Join(chunks, "\n\n")), 0o644))
}

// extractQuestion pulls the user question out of a finalizer message.
func extractQuestion(msg string) string {
	msg = strings.TrimPrefix(msg, "[User question]\n")
	if i := strings.Index(msg, "\n\n[Specialist draft]"); i >= 0 {
		return msg[:i]
	}
	return msg
}

func scriptedLLM(call testutil.LLMCall) (string, error) {
	if call.Messages[0].Role == llm.RoleSystem {
		question := extractQuestion(call.Prompt())
		if strings.Contains(question, "weather") {
			return prompt.OffTopicNotice, nil
		}
		return "Final: " + question, nil
	}

	p := call.Prompt()
	switch {
	case strings.Contains(p, "exactly ONE of the following"):
		if strings.Contains(p, "treat the flu") {
			return "treatment", nil
		}
		return "medicine", nil
	case strings.Contains(p, "You are a medical specialist"):
		return "Draft answer", nil
	}
	return "", errors.New("unexpected prompt")
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	log := logger.NewNopLogger()

	writeArtifacts(t, dir, "medicine",
		[][]float32{testutil.Unit(3, 0.71), testutil.Unit(3, 0.3)},
		[]string{coldPassage, "Unrelated passage."})
	writeArtifacts(t, dir, "default",
		[][]float32{testutil.Unit(3, 0.9)},
		[]string{defaultPassage})

	table, err := config.ParseCategoryTable([]byte(fmt.Sprintf(`
categories:
  - label: medicine
    index_path: %[1]s/medicine.fvecs
    chunks_path: %[1]s/medicine.txt
  - label: treatment
    index_path: %[1]s/missing.fvecs
    chunks_path: %[1]s/missing.txt
  - label: default
    index_path: %[1]s/default.fvecs
    chunks_path: %[1]s/default.txt
`, dir)))
	require.NoError(t, err)

	cls, ret := embedding.TaskClassification, embedding.TaskRetrievalQuery
	emb := &taskEmbedder{
		calls: make(map[string]int),
		vectors: map[string][]float32{
			cls + "|" + coldQuery:    testutil.Unit(3, 0.82),
			ret + "|" + coldQuery:    testutil.Axis(3, 0),
			cls + "|" + weatherQuery: testutil.Unit(3, 0.12),
			cls + "|" + fluQuery:     testutil.Axis(3, 2),
			ret + "|" + fluQuery:     testutil.Axis(3, 0),
			cls + "|" + doseQuery:    testutil.Unit(3, 0.7),
			ret + "|" + doseQuery:    testutil.Axis(3, 2),
		},
	}

	exemplars := []store.Exemplar{
		{Text: "cold medicine dosage", Label: "medicine", Embedding: testutil.Axis(3, 0)},
		{Text: "how is influenza treated", Label: "treatment", Embedding: testutil.Axis(3, 2)},
	}
	coarse, err := category.NewCoarseStage(emb, exemplars, table.Routing.EffectiveThreshold(), table.Routing.TopK)
	require.NoError(t, err)

	fake := &testutil.FakeLLM{Handler: scriptedLLM}
	catalog := category.NewCatalog(table.Labels(), table.DefaultLabel)
	classifier := category.NewClassifier(fake, catalog, "", *table.Routing.ClassifierTemperature, log)

	sessions := session.NewManager(memory.NewHistoryRepository(time.Hour))
	finalizer := conversation.NewFinalizer(fake, sessions, table.Finalizer, log, nil)

	registry := retrieval.BuildRegistry(table, retrieval.Deps{Embedder: emb}, log)

	return &harness{
		rag: NewRAGPipeline(
			category.NewRouter(coarse, classifier, log),
			catalog,
			retrieval.NewRetriever(registry, log),
			response.NewGenerator(fake, table, log),
			finalizer,
			log,
		),
		bypass:   NewBypassPipeline(finalizer, log),
		llm:      fake,
		emb:      emb,
		sessions: sessions,
	}
}

func TestCommonColdIsGroundedInMedicine(t *testing.T) {
	h := newHarness(t)

	res, err := h.rag.Execute(context.Background(), "s1", coldQuery)
	require.NoError(t, err)

	assert.Equal(t, "medicine", res.Category)
	assert.Equal(t, PathRAG, res.Path)
	assert.True(t, res.Grounded)
	require.Len(t, res.Passages, 1)
	assert.Equal(t, coldPassage, res.Passages[0].Text)
	assert.InDelta(t, 0.71, res.Passages[0].Score, 1e-4)
	assert.Equal(t, "Draft answer", res.Draft)
	assert.Equal(t, "Final: "+coldQuery, res.Answer)

	calls := h.llm.Calls()
	require.Len(t, calls, 3)
	assert.Equal(t, 0.2, *calls[0].Options.Temperature)
	assert.Contains(t, calls[1].Prompt(), coldPassage)
	assert.Equal(t, prompt.BuildFinalizerMessage(coldQuery, "Draft answer"), calls[2].Prompt())
	assert.Equal(t, 0.3, *calls[2].Options.Temperature)
}

func TestOffTopicQueryGoesStraightToFinalizer(t *testing.T) {
	h := newHarness(t)

	res, err := h.rag.Execute(context.Background(), "s1", weatherQuery)
	require.NoError(t, err)

	assert.Equal(t, PathFinalizeOnly, res.Path)
	assert.Empty(t, res.Category)
	assert.False(t, res.Grounded)
	assert.Empty(t, res.Passages)
	assert.Contains(t, res.Answer, prompt.OffTopicNotice)

	calls := h.llm.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, prompt.BuildFinalizerMessage(weatherQuery, ""), calls[0].Prompt())
	assert.Zero(t, h.emb.count(embedding.TaskRetrievalQuery))
}

func TestMissingCategoryIndexFallsBackToDefault(t *testing.T) {
	h := newHarness(t)

	res, err := h.rag.Execute(context.Background(), "s1", fluQuery)
	require.NoError(t, err)

	assert.Equal(t, "treatment", res.Category)
	require.Len(t, res.Passages, 1)
	assert.Equal(t, defaultPassage, res.Passages[0].Text)
	assert.True(t, res.Grounded)
}

func TestSecondQuerySeesFirstExchange(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	first, err := h.rag.Execute(ctx, "s1", coldQuery)
	require.NoError(t, err)
	_, err = h.rag.Execute(ctx, "s1", fluQuery)
	require.NoError(t, err)

	calls := h.llm.Calls()
	last := calls[len(calls)-1]
	require.Len(t, last.Messages, 4)
	assert.Equal(t, llm.Message{Role: llm.RoleUser, Content: coldQuery}, last.Messages[1])
	assert.Equal(t, llm.Message{Role: llm.RoleAssistant, Content: first.Answer}, last.Messages[2])

	turns, err := h.sessions.History(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, turns, 4)

	other, _ := h.sessions.History(ctx, "s2")
	assert.Empty(t, other)
}

func TestNoQualifyingPassageDraftsUngrounded(t *testing.T) {
	h := newHarness(t)

	res, err := h.rag.Execute(context.Background(), "s1", doseQuery)
	require.NoError(t, err)

	assert.Equal(t, "medicine", res.Category)
	assert.False(t, res.Grounded)
	assert.Empty(t, res.Passages)

	draftPrompt := h.llm.Calls()[1].Prompt()
	assert.Contains(t, draftPrompt, "No reference documents were found")
	assert.NotContains(t, draftPrompt, coldPassage)
}

func TestRoutingIsDeterministic(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	a, err := h.rag.Execute(ctx, "a", coldQuery)
	require.NoError(t, err)
	b, err := h.rag.Execute(ctx, "b", coldQuery)
	require.NoError(t, err)
	assert.Equal(t, a.Category, b.Category)
}

func TestUpstreamFailureIsNotRecorded(t *testing.T) {
	h := newHarness(t)
	h.llm.Err = apperror.Timeout("completion call timed out", context.DeadlineExceeded)

	_, err := h.rag.Execute(context.Background(), "s1", coldQuery)
	require.Error(t, err)
	assert.True(t, apperror.IsRetryable(err))

	turns, _ := h.sessions.History(context.Background(), "s1")
	assert.Empty(t, turns)
}

func TestEmbeddingFailureSurfaces(t *testing.T) {
	h := newHarness(t)

	_, err := h.rag.Execute(context.Background(), "s1", "a query nobody embedded")
	assert.Error(t, err)
	assert.Empty(t, h.llm.Calls())
}

func TestExecuteDirected(t *testing.T) {
	h := newHarness(t)

	res, err := h.rag.ExecuteDirected(context.Background(), "", "Medicine", coldQuery)
	require.NoError(t, err)
	assert.Equal(t, session.DefaultID, res.SessionID)
	assert.Equal(t, PathDirected, res.Path)
	assert.Equal(t, "medicine", res.Category)
	assert.True(t, res.Grounded)
	// no classifier call
	assert.Len(t, h.llm.Calls(), 2)
	assert.Zero(t, h.emb.count(embedding.TaskClassification))

	_, err = h.rag.ExecuteDirected(context.Background(), "s", "cardiology", coldQuery)
	assert.True(t, apperror.IsValidation(err))
}

func TestBypassSkipsRoutingAndRetrieval(t *testing.T) {
	h := newHarness(t)

	res, err := h.bypass.Execute(context.Background(), "s1", coldQuery)
	require.NoError(t, err)
	assert.Equal(t, PathBypass, res.Path)
	assert.Equal(t, "Final: "+coldQuery, res.Answer)

	calls := h.llm.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, prompt.BuildFinalizerMessage(coldQuery, ""), calls[0].Prompt())
	assert.Zero(t, h.emb.count(embedding.TaskClassification))

	turns, _ := h.sessions.History(context.Background(), "s1")
	assert.Len(t, turns, 2)
}
