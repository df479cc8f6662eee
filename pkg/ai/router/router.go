package router

import (
	"context"

	"medichain-be/internal/pkg/logger"
	"medichain-be/pkg/ai/pipeline"
	"medichain-be/pkg/apperror"
	"medichain-be/pkg/rag/session"
)

// ExecuteResult is the unified result from any pipeline execution
type ExecuteResult struct {
	pipeline.Result
	Mode Mode
	Help bool // the reply is usage help, nothing was recorded
}

// Router handles pipeline selection based on prompt prefix
type Router struct {
	ragPipeline    *pipeline.RAGPipeline
	bypassPipeline *pipeline.BypassPipeline
	logger         logger.ILogger
}

func NewRouter(ragPipeline *pipeline.RAGPipeline, bypassPipeline *pipeline.BypassPipeline, logger logger.ILogger) *Router {
	return &Router{
		ragPipeline:    ragPipeline,
		bypassPipeline: bypassPipeline,
		logger:         logger,
	}
}

// Execute routes prompt to the matching pipeline.
func (r *Router) Execute(ctx context.Context, sessionID, prompt string) (*ExecuteResult, error) {
	parsed := Parse(prompt)
	sessionID = session.NormalizeID(sessionID)

	r.logger.Debug("PIPELINE", "Prompt parsed", map[string]interface{}{
		"mode":       string(parsed.Mode),
		"category":   parsed.CategoryKey,
		"session_id": sessionID,
		"prompt":     truncateLog(parsed.CleanPrompt, 50),
	})

	if parsed.IsEmpty() {
		if parsed.Mode == ModeRAG {
			return nil, apperror.Validation("query must not be empty")
		}
		return &ExecuteResult{
			Result: pipeline.Result{SessionID: sessionID, Answer: getHelpMessage(parsed.Mode, parsed.CategoryKey)},
			Mode:   parsed.Mode,
			Help:   true,
		}, nil
	}

	var (
		res *pipeline.Result
		err error
	)
	switch parsed.Mode {
	case ModeBypass:
		res, err = r.bypassPipeline.Execute(ctx, sessionID, parsed.CleanPrompt)
	case ModeCategory:
		res, err = r.ragPipeline.ExecuteDirected(ctx, sessionID, parsed.CategoryKey, parsed.CleanPrompt)
	default:
		res, err = r.ragPipeline.Execute(ctx, sessionID, parsed.CleanPrompt)
	}
	if err != nil {
		return nil, err
	}

	return &ExecuteResult{Result: *res, Mode: parsed.Mode}, nil
}

// getHelpMessage returns usage help when a prefix arrives without a question
func getHelpMessage(mode Mode, key string) string {
	switch mode {
	case ModeBypass:
		return "Bypass mode answers without looking up reference documents. Type your question after /bypass.\n\nExample: /bypass What are the symptoms of a cold?"
	case ModeCategory:
		return "Category '" + key + "' selected. Type your question after the category.\n\nExample: /category:" + key + " How is this usually treated?"
	default:
		return "Please type your question."
	}
}

// truncateLog truncates string for logging, counting runes
func truncateLog(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}
