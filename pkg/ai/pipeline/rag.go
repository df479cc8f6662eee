package pipeline

import (
	"context"
	"strings"
	"time"

	"medichain-be/internal/pkg/logger"
	"medichain-be/pkg/apperror"
	"medichain-be/pkg/rag/category"
	"medichain-be/pkg/rag/conversation"
	"medichain-be/pkg/rag/response"
	"medichain-be/pkg/rag/retrieval"
	"medichain-be/pkg/rag/session"
	"medichain-be/pkg/store"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Stage names the pipeline state a query is in.
type Stage string

const (
	StageRouting    Stage = "ROUTING"
	StageRetrieving Stage = "RETRIEVING"
	StageDrafting   Stage = "DRAFTING"
	StageFinalizing Stage = "FINALIZING"
	StageDone       Stage = "DONE"
)

// Path records which branch produced the answer.
type Path string

const (
	PathRAG          Path = "rag"           // routed, retrieved, drafted, finalized
	PathFinalizeOnly Path = "finalize_only" // below routing threshold
	PathDirected     Path = "directed"      // category forced by the caller
	PathBypass       Path = "bypass"        // routing and retrieval skipped on request
)

// Result is the outcome of one query.
type Result struct {
	SessionID string
	Answer    string
	Category  string // empty when no category was used
	Path      Path
	Grounded  bool
	Passages  []store.Passage
	Draft     string
	Latency   time.Duration
}

// RAGPipeline runs route → retrieve → draft → finalize for one query. It is
// safe for concurrent use; the only shared mutable state is session history.
type RAGPipeline struct {
	router    *category.Router
	catalog   *category.Catalog
	retriever *retrieval.Retriever
	responder *response.Generator
	finalizer *conversation.Finalizer
	tracer    trace.Tracer
	logger    logger.ILogger
}

func NewRAGPipeline(
	router *category.Router,
	catalog *category.Catalog,
	retriever *retrieval.Retriever,
	responder *response.Generator,
	finalizer *conversation.Finalizer,
	logger logger.ILogger,
) *RAGPipeline {
	return &RAGPipeline{
		router:    router,
		catalog:   catalog,
		retriever: retriever,
		responder: responder,
		finalizer: finalizer,
		tracer:    otel.Tracer("medichain-be/pipeline"),
		logger:    logger,
	}
}

// Execute answers query within sessionID.
func (p *RAGPipeline) Execute(ctx context.Context, sessionID, query string) (*Result, error) {
	start := time.Now()
	sessionID = session.NormalizeID(sessionID)

	ctx, span := p.tracer.Start(ctx, "pipeline.execute", trace.WithAttributes(
		attribute.String("session.id", sessionID),
	))
	defer span.End()

	decision, err := p.route(ctx, query)
	if err != nil {
		return nil, p.fail(span, StageRouting, sessionID, err)
	}

	if decision.IsNone() {
		answer, err := p.finalize(ctx, sessionID, query, "")
		if err != nil {
			return nil, p.fail(span, StageFinalizing, sessionID, err)
		}
		return p.done(span, &Result{
			SessionID: sessionID,
			Answer:    answer,
			Path:      PathFinalizeOnly,
			Latency:   time.Since(start),
		}), nil
	}

	return p.answerWithCategory(ctx, span, start, sessionID, string(decision.Label), query, PathRAG)
}

// ExecuteDirected skips routing and answers within the named category.
func (p *RAGPipeline) ExecuteDirected(ctx context.Context, sessionID, label, query string) (*Result, error) {
	start := time.Now()
	sessionID = session.NormalizeID(sessionID)

	lbl, ok := p.catalog.Resolve(label)
	if !ok && category.Label(strings.ToLower(strings.TrimSpace(label))) != p.catalog.Default() {
		return nil, apperror.Validation("unknown category: " + label).
			WithDetail("categories", p.catalog.Strings())
	}

	ctx, span := p.tracer.Start(ctx, "pipeline.execute_directed", trace.WithAttributes(
		attribute.String("session.id", sessionID),
		attribute.String("category", string(lbl)),
	))
	defer span.End()

	return p.answerWithCategory(ctx, span, start, sessionID, string(lbl), query, PathDirected)
}

func (p *RAGPipeline) answerWithCategory(ctx context.Context, span trace.Span, start time.Time, sessionID, label, query string, path Path) (*Result, error) {
	block, err := p.retrieve(ctx, label, query)
	if err != nil {
		return nil, p.fail(span, StageRetrieving, sessionID, err)
	}

	draft, err := p.draft(ctx, label, query, block)
	if err != nil {
		return nil, p.fail(span, StageDrafting, sessionID, err)
	}

	answer, err := p.finalize(ctx, sessionID, query, draft)
	if err != nil {
		return nil, p.fail(span, StageFinalizing, sessionID, err)
	}

	return p.done(span, &Result{
		SessionID: sessionID,
		Answer:    answer,
		Category:  label,
		Path:      path,
		Grounded:  !block.Empty(),
		Passages:  block.Passages,
		Draft:     draft,
		Latency:   time.Since(start),
	}), nil
}

func (p *RAGPipeline) route(ctx context.Context, query string) (category.Decision, error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.route")
	defer span.End()

	decision, err := p.router.Route(ctx, query)
	if err != nil {
		span.RecordError(err)
		return decision, err
	}
	span.SetAttributes(
		attribute.String("category", decision.Label.String()),
		attribute.Float64("coarse.best", decision.Candidate.Best),
	)
	return decision, nil
}

func (p *RAGPipeline) retrieve(ctx context.Context, label, query string) (store.ContextBlock, error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.retrieve", trace.WithAttributes(attribute.String("category", label)))
	defer span.End()

	block, err := p.retriever.Retrieve(ctx, label, query)
	if err != nil {
		span.RecordError(err)
		return block, err
	}
	span.SetAttributes(attribute.Int("passages", len(block.Passages)))
	return block, nil
}

func (p *RAGPipeline) draft(ctx context.Context, label, query string, block store.ContextBlock) (string, error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.draft", trace.WithAttributes(attribute.String("category", label)))
	defer span.End()

	draft, err := p.responder.Draft(ctx, label, query, block)
	if err != nil {
		span.RecordError(err)
	}
	return draft, err
}

func (p *RAGPipeline) finalize(ctx context.Context, sessionID, query, draft string) (string, error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.finalize")
	defer span.End()

	answer, err := p.finalizer.Finalize(ctx, sessionID, query, draft)
	if err != nil {
		span.RecordError(err)
	}
	return answer, err
}

func (p *RAGPipeline) fail(span trace.Span, stage Stage, sessionID string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, string(stage))
	p.logger.Error("PIPELINE", "Pipeline aborted", map[string]interface{}{
		"stage":      string(stage),
		"session_id": sessionID,
		"retryable":  apperror.IsRetryable(err),
		"error":      err.Error(),
	})
	return err
}

func (p *RAGPipeline) done(span trace.Span, res *Result) *Result {
	span.SetAttributes(
		attribute.String("path", string(res.Path)),
		attribute.Bool("grounded", res.Grounded),
	)
	p.logger.Info("PIPELINE", "Query answered", map[string]interface{}{
		"stage":      string(StageDone),
		"session_id": res.SessionID,
		"path":       string(res.Path),
		"category":   res.Category,
		"grounded":   res.Grounded,
		"latency_ms": res.Latency.Milliseconds(),
	})
	return res
}
