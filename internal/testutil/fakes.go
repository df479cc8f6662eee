// Package testutil holds hand-written doubles for the completion and
// embedding providers.
package testutil

import (
	"context"
	"fmt"
	"math"
	"sync"

	"medichain-be/pkg/embedding"
	"medichain-be/pkg/llm"
)

// LLMCall records one completion request.
type LLMCall struct {
	Messages []llm.Message
	Options  llm.Options
}

// Prompt returns the content of the last message.
func (c LLMCall) Prompt() string {
	if len(c.Messages) == 0 {
		return ""
	}
	return c.Messages[len(c.Messages)-1].Content
}

// FakeLLM answers with Handler when set, otherwise pops Replies in order and
// repeats the last one.
type FakeLLM struct {
	mu      sync.Mutex
	Handler func(call LLMCall) (string, error)
	Replies []string
	Err     error
	calls   []LLMCall
}

var _ llm.LLMProvider = &FakeLLM{}

func (f *FakeLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	call := LLMCall{
		Messages: append([]llm.Message(nil), history...),
		Options:  llm.Apply(llm.Options{}, options...),
	}

	f.mu.Lock()
	f.calls = append(f.calls, call)
	idx := len(f.calls) - 1
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if f.Err != nil {
		return "", f.Err
	}
	if f.Handler != nil {
		return f.Handler(call)
	}
	if len(f.Replies) == 0 {
		return "", nil
	}
	if idx >= len(f.Replies) {
		idx = len(f.Replies) - 1
	}
	return f.Replies[idx], nil
}

func (f *FakeLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return f.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, options...)
}

func (f *FakeLLM) Calls() []LLMCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]LLMCall(nil), f.calls...)
}

// FakeEmbedder returns the vector registered for a text, or Fallback.
type FakeEmbedder struct {
	mu       sync.Mutex
	Vectors  map[string][]float32
	Fallback []float32
	Err      error
	calls    int
}

var _ embedding.EmbeddingProvider = &FakeEmbedder{}

func (f *FakeEmbedder) Generate(ctx context.Context, text string, taskType string) (*embedding.EmbeddingResponse, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.Err != nil {
		return nil, f.Err
	}
	v, ok := f.Vectors[text]
	if !ok {
		if f.Fallback == nil {
			return nil, fmt.Errorf("no vector registered for %q", text)
		}
		v = f.Fallback
	}
	return &embedding.EmbeddingResponse{
		Embedding: embedding.EmbeddingResponseEmbedding{Values: append([]float32(nil), v...)},
	}, nil
}

func (f *FakeEmbedder) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// Unit returns a vector of dimension dim whose components follow the given
// cosine to the first axis: (cos, sin, 0, ...). Handy for dialing a precise
// similarity against Axis(dim, 0).
func Unit(dim int, cos float64) []float32 {
	v := make([]float32, dim)
	v[0] = float32(cos)
	if dim > 1 {
		v[1] = float32(math.Sqrt(1 - cos*cos))
	}
	return v
}

// Axis is the i-th standard basis vector.
func Axis(dim, i int) []float32 {
	v := make([]float32, dim)
	v[i] = 1
	return v
}
