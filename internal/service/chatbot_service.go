package service

import (
	"context"

	"medichain-be/internal/dto"
	"medichain-be/internal/pkg/logger"
	"medichain-be/pkg/ai/router"
	"medichain-be/pkg/events"
	"medichain-be/pkg/rag/conversation"
	"medichain-be/pkg/rag/session"
)

// IChatbotService defines the chatbot service interface
type IChatbotService interface {
	CreateSession(ctx context.Context) (*dto.CreateSessionResponse, error)
	Ask(ctx context.Context, request *dto.AskRequest) (*dto.AskResponse, error)
	GetHistory(ctx context.Context, sessionId string) ([]*dto.TurnDTO, error)
	GetTranscript(ctx context.Context, sessionId string) (string, error)
	Summarize(ctx context.Context, sessionId string) (*dto.SummaryResponse, error)
	CloseSession(ctx context.Context, sessionId string) error
}

type chatbotService struct {
	pipelineRouter *router.Router
	sessions       *session.Manager
	summarizer     *conversation.Summarizer
	publisher      IPublisherService
	logger         logger.ILogger
}

func NewChatbotService(
	pipelineRouter *router.Router,
	sessions *session.Manager,
	summarizer *conversation.Summarizer,
	publisher IPublisherService,
	log logger.ILogger,
) IChatbotService {
	return &chatbotService{
		pipelineRouter: pipelineRouter,
		sessions:       sessions,
		summarizer:     summarizer,
		publisher:      publisher,
		logger:         log,
	}
}

func (s *chatbotService) CreateSession(ctx context.Context) (*dto.CreateSessionResponse, error) {
	id := session.NewSessionID()
	s.logger.Info("CHATBOT", "Session issued", map[string]interface{}{"session_id": id})
	return &dto.CreateSessionResponse{SessionId: id}, nil
}

func (s *chatbotService) Ask(ctx context.Context, request *dto.AskRequest) (*dto.AskResponse, error) {
	res, err := s.pipelineRouter.Execute(ctx, request.SessionId, request.Query)
	if err != nil {
		return nil, err
	}

	passages := make([]dto.PassageDTO, 0, len(res.Passages))
	for _, p := range res.Passages {
		passages = append(passages, dto.PassageDTO{Id: p.ID, Text: p.Text, Score: p.Score})
	}

	if !res.Help {
		s.publish(ctx, events.ChatAnswered(res.SessionID, res.Category, string(res.Path), len(res.Passages), res.Grounded, res.Latency))
	}

	return &dto.AskResponse{
		SessionId: res.SessionID,
		Answer:    res.Answer,
		Category:  res.Category,
		Path:      string(res.Path),
		Mode:      string(res.Mode),
		Grounded:  res.Grounded,
		Passages:  passages,
		LatencyMs: res.Latency.Milliseconds(),
	}, nil
}

func (s *chatbotService) GetHistory(ctx context.Context, sessionId string) ([]*dto.TurnDTO, error) {
	turns, err := s.sessions.History(ctx, sessionId)
	if err != nil {
		return nil, err
	}

	out := make([]*dto.TurnDTO, 0, len(turns))
	for _, t := range turns {
		out = append(out, &dto.TurnDTO{Role: t.Role, Text: t.Text})
	}
	return out, nil
}

func (s *chatbotService) GetTranscript(ctx context.Context, sessionId string) (string, error) {
	return conversation.Transcript(ctx, s.sessions, sessionId)
}

func (s *chatbotService) Summarize(ctx context.Context, sessionId string) (*dto.SummaryResponse, error) {
	summary, err := s.summarizer.Summarize(ctx, sessionId)
	if err != nil {
		return nil, err
	}
	return &dto.SummaryResponse{SessionId: session.NormalizeID(sessionId), Summary: summary}, nil
}

func (s *chatbotService) CloseSession(ctx context.Context, sessionId string) error {
	if err := s.sessions.Close(ctx, sessionId); err != nil {
		return err
	}
	s.publish(ctx, events.SessionClosed(session.NormalizeID(sessionId)))
	return nil
}

func (s *chatbotService) publish(ctx context.Context, event events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("CHATBOT", "Failed to publish event", map[string]interface{}{
			"type":  event.EventType(),
			"error": err.Error(),
		})
	}
}
