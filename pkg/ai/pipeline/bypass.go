package pipeline

import (
	"context"
	"time"

	"medichain-be/internal/pkg/logger"
	"medichain-be/pkg/rag/conversation"
	"medichain-be/pkg/rag/session"
)

// BypassPipeline sends the query straight to the finalizer with an empty
// draft. History is still read and appended.
type BypassPipeline struct {
	finalizer *conversation.Finalizer
	logger    logger.ILogger
}

func NewBypassPipeline(finalizer *conversation.Finalizer, logger logger.ILogger) *BypassPipeline {
	return &BypassPipeline{
		finalizer: finalizer,
		logger:    logger,
	}
}

func (p *BypassPipeline) Execute(ctx context.Context, sessionID, query string) (*Result, error) {
	start := time.Now()
	sessionID = session.NormalizeID(sessionID)

	answer, err := p.finalizer.Finalize(ctx, sessionID, query, "")
	if err != nil {
		p.logger.Error("PIPELINE", "Bypass failed", map[string]interface{}{
			"session_id": sessionID,
			"error":      err.Error(),
		})
		return nil, err
	}

	p.logger.Info("PIPELINE", "Bypass answered", map[string]interface{}{
		"session_id": sessionID,
	})

	return &Result{
		SessionID: sessionID,
		Answer:    answer,
		Path:      PathBypass,
		Latency:   time.Since(start),
	}, nil
}
