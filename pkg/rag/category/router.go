package category

import (
	"context"

	"medichain-be/internal/pkg/logger"
)

// Decision is the router output. Label is None when the coarse stage was not
// confident; Confirmed is nil in that case.
type Decision struct {
	Label     Label
	Candidate CoarseCandidate
	Confirmed *ConfirmedLabel
}

func (d Decision) IsNone() bool { return d.Label == None }

// Router chains the coarse similarity scan and the completion-based
// confirmation.
type Router struct {
	coarse     *CoarseStage
	classifier *Classifier
	logger     logger.ILogger
}

func NewRouter(coarse *CoarseStage, classifier *Classifier, logger logger.ILogger) *Router {
	return &Router{coarse: coarse, classifier: classifier, logger: logger}
}

func (r *Router) Route(ctx context.Context, query string) (Decision, error) {
	cand, err := r.coarse.Scan(ctx, query)
	if err != nil {
		return Decision{}, err
	}

	r.logger.Debug("ROUTER", "Coarse scan", map[string]interface{}{
		"best":      cand.Best,
		"confident": cand.Confident,
		"evidence":  len(cand.Evidence),
	})

	if !cand.Confident {
		r.logger.Info("ROUTER", "Below routing threshold, skipping retrieval", map[string]interface{}{
			"best":      cand.Best,
			"threshold": r.coarse.Threshold(),
		})
		return Decision{Label: None, Candidate: cand}, nil
	}

	confirmed, err := r.classifier.Confirm(ctx, query, cand.Evidence)
	if err != nil {
		return Decision{}, err
	}

	r.logger.Info("ROUTER", "Category confirmed", map[string]interface{}{
		"label":    confirmed.Label.String(),
		"fallback": confirmed.Fallback,
		"best":     cand.Best,
	})
	return Decision{Label: confirmed.Label, Candidate: cand, Confirmed: &confirmed}, nil
}
