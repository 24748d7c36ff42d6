package classify

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/osprey-sec/malscan/internal/domain"
	"github.com/osprey-sec/malscan/internal/metrics"
)

// InstrumentedScorer wraps a Scorer with metrics and logging. The caching
// layer sits outside this one, so recorded durations reflect real scoring
// work, not cache hits.
type InstrumentedScorer struct {
	inner  domain.Scorer
	logger *zap.Logger
}

// NewInstrumentedScorer wraps a scorer with observability.
func NewInstrumentedScorer(inner domain.Scorer, logger *zap.Logger) *InstrumentedScorer {
	return &InstrumentedScorer{inner: inner, logger: logger}
}

// Score delegates to the inner scorer and records outcome metrics.
func (p *InstrumentedScorer) Score(ctx context.Context, data []byte) (domain.ScoreResult, error) {
	start := time.Now()

	result, err := p.inner.Score(ctx, data)

	duration := time.Since(start)

	if err != nil {
		metrics.ClassificationErrorsTotal.WithLabelValues(errorReason(err)).Inc()
		p.logger.Warn("Scoring failed",
			zap.Duration("duration", duration),
			zap.Int("size", len(data)),
			zap.Error(err),
		)
		return domain.ScoreResult{}, err
	}

	metrics.ClassificationDuration.WithLabelValues("score").Observe(duration.Seconds())
	metrics.ClassificationsTotal.WithLabelValues(labelName(result.Label)).Inc()

	p.logger.Debug("Scoring completed",
		zap.Duration("duration", duration),
		zap.Int("size", len(data)),
		zap.Float64("probability", result.Probability),
		zap.Int("label", result.Label),
	)

	return result, nil
}

func labelName(label int) string {
	if label == domain.LabelMalicious {
		return "malicious"
	}
	return "benign"
}

// errorReason buckets pipeline failures for the error counter.
func errorReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrUnreadableInput):
		return "unreadable"
	case errors.Is(err, domain.ErrEmptyInput):
		return "empty"
	case errors.Is(err, domain.ErrTruncated):
		return "truncated"
	case errors.Is(err, domain.ErrMalformedFormat):
		return "malformed"
	case errors.Is(err, domain.ErrUnsupportedVariant):
		return "unsupported"
	case errors.Is(err, domain.ErrSchemaMismatch):
		return "schema_mismatch"
	case errors.Is(err, domain.ErrModelLoad):
		return "model_load"
	default:
		return "internal"
	}
}
