package category

import (
	"context"

	"medichain-be/internal/pkg/logger"
	"medichain-be/pkg/llm"
	"medichain-be/pkg/rag/prompt"
)

// ConfirmedLabel is the precision-stage outcome.
type ConfirmedLabel struct {
	Label    Label
	Raw      string
	Fallback bool // the completion did not name a known label
}

// Classifier asks the completion model to pick one label given the coarse
// evidence.
type Classifier struct {
	llmProvider llm.LLMProvider
	catalog     *Catalog
	model       string
	temperature float64
	logger      logger.ILogger
}

func NewClassifier(llmProvider llm.LLMProvider, catalog *Catalog, model string, temperature float64, logger logger.ILogger) *Classifier {
	return &Classifier{
		llmProvider: llmProvider,
		catalog:     catalog,
		model:       model,
		temperature: temperature,
		logger:      logger,
	}
}

func (c *Classifier) Confirm(ctx context.Context, query string, evidence []RankedExemplar) (ConfirmedLabel, error) {
	examples := make([]prompt.Example, len(evidence))
	for i, e := range evidence {
		examples[i] = prompt.Example{Text: e.Text, Label: string(e.Label), Score: e.Score}
	}

	opts := []llm.Option{llm.WithTemperature(c.temperature)}
	if c.model != "" {
		opts = append(opts, llm.WithModel(c.model))
	}

	raw, err := c.llmProvider.Generate(ctx, prompt.BuildClassifierPrompt(query, examples, c.catalog.Strings()), opts...)
	if err != nil {
		return ConfirmedLabel{}, err
	}

	label, ok := c.catalog.Resolve(raw)
	if !ok {
		c.logger.Warn("ROUTER", "Unrecognized classifier label, using default", map[string]interface{}{
			"raw":     raw,
			"default": label.String(),
		})
	}
	return ConfirmedLabel{Label: label, Raw: raw, Fallback: !ok}, nil
}
