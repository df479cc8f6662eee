package factory

import (
	"fmt"

	"medichain-be/pkg/llm"
	"medichain-be/pkg/llm/ollama"
	"medichain-be/pkg/llm/openai"
)

const huggingFaceRouterURL = "https://router.huggingface.co/v1"

func NewLLMProvider(providerType, modelName, baseURL, apiKey string) (llm.LLMProvider, error) {
	switch providerType {
	case "ollama":
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		return ollama.NewOllamaProvider(baseURL, modelName), nil
	case "openai":
		return openai.NewProvider(apiKey, baseURL, modelName), nil
	case "huggingface":
		if baseURL == "" {
			baseURL = huggingFaceRouterURL
		}
		return openai.NewProvider(apiKey, baseURL, modelName), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}
