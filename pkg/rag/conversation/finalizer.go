package conversation

import (
	"context"

	"medichain-be/internal/config"
	"medichain-be/internal/pkg/logger"
	"medichain-be/pkg/llm"
	"medichain-be/pkg/rag/history"
	"medichain-be/pkg/rag/prompt"
	"medichain-be/pkg/rag/session"
)

// Finalizer writes the user-facing answer from the specialist draft and the
// session's prior dialogue. It is the only stage that reads or writes history.
type Finalizer struct {
	llmProvider llm.LLMProvider
	sessions    *session.Manager
	loader      *history.Loader
	model       string
	temperature float64
	logger      logger.ILogger
	llmLogger   logger.ILogger
}

func NewFinalizer(llmProvider llm.LLMProvider, sessions *session.Manager, cfg config.FinalizerConfig, log, llmLog logger.ILogger) *Finalizer {
	temperature := config.DefaultFinalizerTemperature
	if cfg.Temperature != nil {
		temperature = *cfg.Temperature
	}
	if llmLog == nil {
		llmLog = logger.NewNopLogger()
	}
	return &Finalizer{
		llmProvider: llmProvider,
		sessions:    sessions,
		loader:      history.NewLoader(sessions),
		model:       cfg.Model,
		temperature: temperature,
		logger:      log,
		llmLogger:   llmLog,
	}
}

// Finalize reads the history, asks for the final answer and, only when that
// succeeds, appends the question and answer to the session.
func (f *Finalizer) Finalize(ctx context.Context, sessionID, query, draft string) (string, error) {
	prior, err := f.loader.LoadConversationHistory(ctx, sessionID)
	if err != nil {
		f.logger.Error("FINALIZER", "Failed to load session history", map[string]interface{}{
			"session_id": sessionID,
			"error":      err.Error(),
		})
		return "", err
	}

	messages := make([]llm.Message, 0, len(prior)+2)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: prompt.FinalizerSystemPrompt})
	messages = append(messages, prior...)
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: prompt.BuildFinalizerMessage(query, draft)})

	opts := []llm.Option{llm.WithTemperature(f.temperature)}
	if f.model != "" {
		opts = append(opts, llm.WithModel(f.model))
	}

	f.llmLogger.Info("FINALIZER", "Prompt", map[string]interface{}{
		"session_id":    sessionID,
		"prior_turns":   len(prior),
		"final_message": messages[len(messages)-1].Content,
	})

	answer, err := f.llmProvider.Chat(ctx, messages, opts...)
	if err != nil {
		f.logger.Error("FINALIZER", "Final completion failed", map[string]interface{}{
			"session_id": sessionID,
			"error":      err.Error(),
		})
		return "", err
	}

	f.llmLogger.Info("FINALIZER", "Response", map[string]interface{}{
		"session_id": sessionID,
		"answer":     answer,
	})

	if err := f.sessions.AppendExchange(ctx, sessionID, query, answer); err != nil {
		f.logger.Error("FINALIZER", "Failed to append exchange", map[string]interface{}{
			"session_id": sessionID,
			"error":      err.Error(),
		})
		return "", err
	}

	return answer, nil
}
