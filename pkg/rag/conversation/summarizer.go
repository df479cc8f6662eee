package conversation

import (
	"context"
	"strings"

	"medichain-be/internal/pkg/logger"
	"medichain-be/pkg/apperror"
	"medichain-be/pkg/llm"
	"medichain-be/pkg/rag/prompt"
	"medichain-be/pkg/rag/session"
)

const summaryMaxLines = 5

// Summarizer recaps a session. The summary is not written back to history.
type Summarizer struct {
	llmProvider llm.LLMProvider
	sessions    *session.Manager
	model       string
	logger      logger.ILogger
}

func NewSummarizer(llmProvider llm.LLMProvider, sessions *session.Manager, model string, log logger.ILogger) *Summarizer {
	return &Summarizer{
		llmProvider: llmProvider,
		sessions:    sessions,
		model:       model,
		logger:      log,
	}
}

func (s *Summarizer) Summarize(ctx context.Context, sessionID string) (string, error) {
	turns, err := s.sessions.History(ctx, sessionID)
	if err != nil {
		return "", err
	}
	if len(turns) == 0 {
		return "", apperror.NotFound("session has no conversation to summarize")
	}

	opts := []llm.Option{llm.WithTemperature(0.3)}
	if s.model != "" {
		opts = append(opts, llm.WithModel(s.model))
	}

	out, err := s.llmProvider.Generate(ctx, prompt.BuildSummaryPrompt(turns, summaryMaxLines), opts...)
	if err != nil {
		s.logger.Error("FINALIZER", "Summary completion failed", map[string]interface{}{
			"session_id": sessionID,
			"error":      err.Error(),
		})
		return "", err
	}

	return clampLines(strings.TrimSpace(out), summaryMaxLines), nil
}

func clampLines(text string, n int) string {
	lines := strings.Split(text, "\n")
	if len(lines) <= n {
		return text
	}
	return strings.Join(lines[:n], "\n")
}
