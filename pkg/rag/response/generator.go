package response

import (
	"context"

	"medichain-be/internal/config"
	"medichain-be/internal/pkg/logger"
	"medichain-be/pkg/llm"
	"medichain-be/pkg/rag/prompt"
	"medichain-be/pkg/store"
)

// ModelConfig selects the completion model for one category.
type ModelConfig struct {
	Model       string
	Temperature float64
}

// Generator drafts the specialist answer. The prompt template is shared;
// only the model configuration varies by category.
type Generator struct {
	llmProvider llm.LLMProvider
	models      map[string]ModelConfig
	fallback    ModelConfig
	logger      logger.ILogger
}

func NewGenerator(llmProvider llm.LLMProvider, table *config.CategoryTable, logger logger.ILogger) *Generator {
	g := &Generator{
		llmProvider: llmProvider,
		models:      make(map[string]ModelConfig, len(table.Categories)),
		fallback:    ModelConfig{Temperature: config.DefaultSpecialistTemperature},
		logger:      logger,
	}
	for _, c := range table.Categories {
		mc := ModelConfig{Model: c.Model, Temperature: config.DefaultSpecialistTemperature}
		if c.Temperature != nil {
			mc.Temperature = *c.Temperature
		}
		g.models[c.Label] = mc
	}
	if def, ok := g.models[table.DefaultLabel]; ok {
		g.fallback = def
	}
	return g
}

// ModelFor returns the model configuration used for label.
func (g *Generator) ModelFor(label string) ModelConfig {
	if mc, ok := g.models[label]; ok {
		return mc
	}
	return g.fallback
}

// Draft issues one completion grounded in block. An empty block is allowed.
func (g *Generator) Draft(ctx context.Context, label, query string, block store.ContextBlock) (string, error) {
	mc := g.ModelFor(label)

	opts := []llm.Option{llm.WithTemperature(mc.Temperature)}
	if mc.Model != "" {
		opts = append(opts, llm.WithModel(mc.Model))
	}

	draft, err := g.llmProvider.Generate(ctx, prompt.BuildSpecialistPrompt(query, block.Text()), opts...)
	if err != nil {
		g.logger.Error("RESPONDER", "Specialist completion failed", map[string]interface{}{
			"label": label,
			"error": err.Error(),
		})
		return "", err
	}

	g.logger.Info("RESPONDER", "Draft generated", map[string]interface{}{
		"label":    label,
		"model":    mc.Model,
		"grounded": !block.Empty(),
		"length":   len(draft),
	})
	return draft, nil
}
