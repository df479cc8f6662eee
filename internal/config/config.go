package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Keys     APIKeys
	Ai       AIConfig
	History  HistoryConfig
	Data     DataConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	LLMLogFilePath     string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	JWTSecret          string
	OtelEnabled        bool
}

type DatabaseConfig struct {
	Connection string
}

type APIKeys struct {
	GoogleGemini string
	Jina         string
	LLM          string
}

type AIConfig struct {
	EmbeddingProvider  string // "gemini", "ollama" or "jina"
	OllamaBaseURL      string
	OllamaModel        string
	LLMProvider        string // "ollama", "openai", "huggingface"
	LLMModel           string // e.g. "llama3", "gpt-4o-mini"
	LLMBaseURL         string
	LLMTimeout         time.Duration
	EmbeddingTimeout   time.Duration
	EmbeddingCacheSize int
}

type HistoryConfig struct {
	Backend     string // "ttl", "lru", "redis" or "postgres"
	TTL         time.Duration
	MaxSessions int
}

type DataConfig struct {
	CategoryConfigPath string
	ExemplarPath       string
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			LLMLogFilePath:     getEnv("LLM_LOG_FILE_PATH", "logs/llm_rag.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			JWTSecret:          getEnv("JWT_SECRET", ""),
			OtelEnabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Keys: APIKeys{
			GoogleGemini: getEnv("GOOGLE_GEMINI_API_KEY", ""),
			Jina:         getEnv("JINA_API_KEY", ""),
			LLM:          getEnv("LLM_API_KEY", ""),
		},
		Ai: AIConfig{
			EmbeddingProvider:  getEnv("EMBEDDING_PROVIDER", "ollama"),
			OllamaBaseURL:      getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:        getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			LLMProvider:        getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:           getEnv("LLM_MODEL", "llama3"),
			LLMBaseURL:         getEnv("LLM_BASE_URL", ""),
			LLMTimeout:         getEnvAsDuration("LLM_TIMEOUT", 60*time.Second),
			EmbeddingTimeout:   getEnvAsDuration("EMBEDDING_TIMEOUT", 15*time.Second),
			EmbeddingCacheSize: getEnvAsInt("EMBEDDING_CACHE_SIZE", 2048),
		},
		History: HistoryConfig{
			Backend:     getEnv("HISTORY_BACKEND", "ttl"),
			TTL:         getEnvAsDuration("HISTORY_TTL", 2*time.Hour),
			MaxSessions: getEnvAsInt("HISTORY_MAX_SESSIONS", 10000),
		},
		Data: DataConfig{
			CategoryConfigPath: getEnv("CATEGORY_CONFIG_PATH", "configs/categories.yaml"),
			ExemplarPath:       getEnv("EXEMPLAR_PATH", "data/exemplars.jsonl"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

// Accepts Go duration strings ("90s") or plain seconds ("90").
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if strValue == "" {
		return fallback
	}
	if d, err := time.ParseDuration(strValue); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(strValue); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
