package bootstrap

import (
	"context"
	"fmt"
	"log"
	"strings"

	"medichain-be/internal/config"
	"medichain-be/internal/controller"
	"medichain-be/internal/pkg/logger"
	"medichain-be/internal/repository/implementation"
	"medichain-be/internal/repository/memory"
	redisrepo "medichain-be/internal/repository/redis"
	"medichain-be/internal/service"
	"medichain-be/internal/websocket"
	"medichain-be/pkg/ai/pipeline"
	"medichain-be/pkg/ai/router"
	"medichain-be/pkg/embedding"
	"medichain-be/pkg/embedding/jina"
	"medichain-be/pkg/llm"
	"medichain-be/pkg/llm/factory"
	"medichain-be/pkg/rag/category"
	"medichain-be/pkg/rag/conversation"
	"medichain-be/pkg/rag/response"
	"medichain-be/pkg/rag/retrieval"
	"medichain-be/pkg/rag/search"
	"medichain-be/pkg/rag/session"

	pktNats "medichain-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	chatEventsTopic    = "chat.events"
	exemplarEmbedLimit = 8
)

type Container struct {
	// Controllers
	ChatbotController controller.IChatbotController

	// Exposed for the socket route
	ChatbotService service.IChatbotService
	WebSocketHub   *websocket.Hub

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	Logger logger.ILogger

	closers []func()
}

// Close releases connections opened by NewContainer.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

// NewContainer wires the chat pipeline. db may be nil, in which case
// document-backed categories fall back to the default backend.
func NewContainer(ctx context.Context, db *gorm.DB, cfg *config.Config) (*Container, error) {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	llmLogger := logger.NewIsolatedLogger(cfg.App.LLMLogFilePath)
	c := &Container{Logger: sysLogger}
	c.closers = append(c.closers, func() { _ = sysLogger.Sync() })

	table, err := config.LoadCategoryTable(cfg.Data.CategoryConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load category table: %w", err)
	}
	if err := table.Validate(); err != nil {
		return nil, fmt.Errorf("category table: %w", err)
	}

	// 2. Event Bus
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermill.NewStdLogger(false, false),
	)
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	// 3. Model providers
	embeddingProvider, err := NewEmbeddingProvider(cfg)
	if err != nil {
		return nil, err
	}
	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		llmBaseURL(cfg),
		cfg.Keys.LLM,
	)
	if err != nil {
		return nil, fmt.Errorf("llm provider: %w", err)
	}
	llmProvider = llm.WithTimeout(llmProvider, cfg.Ai.LLMTimeout)
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// Redis
	rdb := newRedisClient(ctx, cfg)
	if rdb != nil {
		c.closers = append(c.closers, func() { _ = rdb.Close() })
	}

	// 4. Category router
	exemplars, err := category.LoadExemplars(cfg.Data.ExemplarPath)
	if err != nil {
		return nil, err
	}
	exemplars, embedded, err := category.EnsureEmbeddings(ctx, embeddingProvider, exemplars, exemplarEmbedLimit)
	if err != nil {
		return nil, err
	}
	sysLogger.Info("BOOTSTRAP", "Exemplars loaded", map[string]interface{}{
		"count":    len(exemplars),
		"embedded": embedded,
	})

	coarse, err := category.NewCoarseStage(embeddingProvider, exemplars, table.Routing.EffectiveThreshold(), table.Routing.TopK)
	if err != nil {
		return nil, err
	}
	catalog := category.NewCatalog(table.Labels(), table.DefaultLabel)
	classifier := category.NewClassifier(llmProvider, catalog, table.Routing.ClassifierModel, *table.Routing.ClassifierTemperature, sysLogger)
	categoryRouter := category.NewRouter(coarse, classifier, sysLogger)

	// 5. Retrieval
	deps := retrieval.Deps{Embedder: embeddingProvider}
	if db != nil {
		passageRepo := implementation.NewPassageRepository(db)
		deps.Documents = search.NewOrchestrator(embeddingProvider, passageRepo, sysLogger)
		checkCollections(ctx, table, passageRepo, sysLogger)
	}
	registry := retrieval.BuildRegistry(table, deps, sysLogger)
	if backend, _ := registry.Resolve(table.DefaultLabel); backend == nil {
		return nil, fmt.Errorf("default category %q has no usable backend", table.DefaultLabel)
	}

	// 6. Conversation
	historyStore, err := newHistoryStore(cfg, rdb, db)
	if err != nil {
		return nil, err
	}
	sessions := session.NewManager(historyStore)
	finalizer := conversation.NewFinalizer(llmProvider, sessions, table.Finalizer, sysLogger, llmLogger)
	summarizer := conversation.NewSummarizer(llmProvider, sessions, table.Finalizer.Model, sysLogger)

	ragPipeline := pipeline.NewRAGPipeline(
		categoryRouter,
		catalog,
		retrieval.NewRetriever(registry, sysLogger),
		response.NewGenerator(llmProvider, table, sysLogger),
		finalizer,
		sysLogger,
	)
	pipelineRouter := router.NewRouter(ragPipeline, pipeline.NewBypassPipeline(finalizer, sysLogger), sysLogger)

	// 7. Events
	var relay service.EventRelay
	if cfg.App.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL, sysLogger)
		if err != nil {
			sysLogger.Warn("BOOTSTRAP", "NATS unavailable, chat events are logged only", map[string]interface{}{"error": err.Error()})
		} else {
			relay = natsPub
			c.closers = append(c.closers, natsPub.Close)
		}
	}
	publisherService := service.NewPublisherService(chatEventsTopic, pubSub)
	c.ConsumerService = service.NewConsumerService(pubSub, chatEventsTopic, relay, sysLogger)

	// 8. Services & controllers
	c.ChatbotService = service.NewChatbotService(pipelineRouter, sessions, summarizer, publisherService, sysLogger)
	c.ChatbotController = controller.NewChatbotController(c.ChatbotService)

	// WebSocket Hub
	c.WebSocketHub = websocket.NewHub(rdb, sysLogger)

	return c, nil
}

// NewEmbeddingProvider builds the configured provider behind the timeout and
// query cache decorators.
func NewEmbeddingProvider(cfg *config.Config) (embedding.EmbeddingProvider, error) {
	var provider embedding.EmbeddingProvider
	switch cfg.Ai.EmbeddingProvider {
	case "ollama":
		provider = embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.OllamaModel)
	case "jina":
		provider = jina.NewJinaProvider(cfg.Keys.Jina)
	case "gemini":
		provider = embedding.NewGeminiProvider(cfg.Keys.GoogleGemini)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Ai.EmbeddingProvider)
	}
	log.Printf("[INFO] Using Embedding Provider: %s", strings.ToUpper(cfg.Ai.EmbeddingProvider))

	provider = embedding.WithTimeout(provider, cfg.Ai.EmbeddingTimeout)
	if cfg.Ai.EmbeddingCacheSize <= 0 {
		return provider, nil
	}
	return embedding.NewCachedProvider(provider, cfg.Ai.EmbeddingCacheSize)
}

func llmBaseURL(cfg *config.Config) string {
	if cfg.Ai.LLMBaseURL != "" {
		return cfg.Ai.LLMBaseURL
	}
	if cfg.Ai.LLMProvider == "ollama" {
		return cfg.Ai.OllamaBaseURL
	}
	return ""
}

// newRedisClient returns nil when Redis is not configured or unreachable.
func newRedisClient(ctx context.Context, cfg *config.Config) *redis.Client {
	if cfg.App.RedisURL == "" {
		return nil
	}
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{Addr: cfg.App.RedisURL}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
		_ = rdb.Close()
		return nil
	}
	return rdb
}

func newHistoryStore(cfg *config.Config, rdb *redis.Client, db *gorm.DB) (session.Store, error) {
	switch cfg.History.Backend {
	case "", "ttl":
		return memory.NewHistoryRepository(cfg.History.TTL), nil
	case "lru":
		return memory.NewLRUHistoryRepository(cfg.History.MaxSessions, cfg.History.TTL), nil
	case "redis":
		if rdb == nil {
			return nil, fmt.Errorf("history backend redis needs a reachable REDIS_URL")
		}
		return redisrepo.NewHistoryRepository(rdb, cfg.History.TTL), nil
	case "postgres":
		if db == nil {
			return nil, fmt.Errorf("history backend postgres needs DB_CONNECTION_STRING")
		}
		return implementation.NewChatHistoryRepository(db), nil
	default:
		return nil, fmt.Errorf("unknown history backend %q", cfg.History.Backend)
	}
}

type passageCounter interface {
	CountByCategory(ctx context.Context, category string) (int64, error)
}

// checkCollections warns about document categories with no stored passages.
func checkCollections(ctx context.Context, table *config.CategoryTable, repo passageCounter, log logger.ILogger) {
	for _, c := range table.Categories {
		if c.Backend != config.BackendDocument {
			continue
		}
		collection := c.Collection
		if collection == "" {
			collection = c.Label
		}
		n, err := repo.CountByCategory(ctx, collection)
		if err != nil {
			log.Warn("BOOTSTRAP", "Passage count failed", map[string]interface{}{"collection": collection, "error": err.Error()})
			continue
		}
		if n == 0 {
			log.Warn("BOOTSTRAP", "Document collection is empty", map[string]interface{}{"collection": collection})
		}
	}
}
