package llm

import (
	"context"
	"errors"
	"time"

	"medichain-be/pkg/apperror"
)

// timeoutProvider bounds every call of the wrapped provider and classifies
// failures as retryable upstream errors.
type timeoutProvider struct {
	next    LLMProvider
	timeout time.Duration
}

// WithTimeout wraps a provider so each Chat/Generate call is cancelled after d.
// A non-positive d disables the deadline but keeps error classification.
func WithTimeout(next LLMProvider, d time.Duration) LLMProvider {
	return &timeoutProvider{next: next, timeout: d}
}

func (p *timeoutProvider) Chat(ctx context.Context, history []Message, options ...Option) (string, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	out, err := p.next.Chat(ctx, history, options...)
	if err != nil {
		return "", classify(ctx, err)
	}
	return out, nil
}

func (p *timeoutProvider) Generate(ctx context.Context, prompt string, options ...Option) (string, error) {
	return p.Chat(ctx, []Message{{Role: RoleUser, Content: prompt}}, options...)
}

func classify(ctx context.Context, err error) error {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return apperror.Timeout("completion call timed out", err)
	}
	return apperror.Upstream("completion call failed", err)
}
