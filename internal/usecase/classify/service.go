// Package classify runs the scoring pipeline: attribute extraction,
// vectorization, and the decision policy over the classifier output.
package classify

import (
	"context"

	"github.com/osprey-sec/malscan/internal/domain"
)

// Service scores raw binaries against the loaded model.
type Service struct {
	models    Models
	extract   ExtractFunc
	threshold float64
}

// New creates a Service. threshold is the decision boundary in (0, 1].
func New(models Models, extract ExtractFunc, threshold float64) *Service {
	return &Service{
		models:    models,
		extract:   extract,
		threshold: threshold,
	}
}

// Score runs the full pipeline over one binary. Every failure mode maps to
// a domain sentinel; callers decide how to degrade.
func (s *Service) Score(_ context.Context, data []byte) (domain.ScoreResult, error) {
	attrs, err := s.extract(data)
	if err != nil {
		return domain.ScoreResult{}, err
	}

	clf, vec, err := s.models.Get()
	if err != nil {
		return domain.ScoreResult{}, err
	}

	v, err := vec.Transform(attrs)
	if err != nil {
		return domain.ScoreResult{}, err
	}

	prob, err := clf.PredictProba(v)
	if err != nil {
		return domain.ScoreResult{}, err
	}

	return domain.ScoreResult{
		Probability:  prob,
		Label:        domain.Decide(prob, s.threshold),
		Threshold:    s.threshold,
		FeatureCount: len(v),
	}, nil
}

// HealthCheck reports whether the model artifacts are loadable.
func (s *Service) HealthCheck(_ context.Context) error {
	_, _, err := s.models.Get()
	return err
}
