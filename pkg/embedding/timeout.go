package embedding

import (
	"context"
	"errors"
	"time"

	"medichain-be/pkg/apperror"
)

type timeoutProvider struct {
	next    EmbeddingProvider
	timeout time.Duration
}

// WithTimeout bounds every Generate call by d and classifies failures as
// retryable upstream errors.
func WithTimeout(next EmbeddingProvider, d time.Duration) EmbeddingProvider {
	return &timeoutProvider{next: next, timeout: d}
}

func (p *timeoutProvider) Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	res, err := p.next.Generate(ctx, text, taskType)
	if err == nil {
		return res, nil
	}

	var appErr *apperror.AppError
	switch {
	case errors.As(err, &appErr):
		return nil, err
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return nil, apperror.Timeout("embedding call timed out", err)
	default:
		return nil, apperror.Upstream("embedding call failed", err)
	}
}
