package health

import "context"

// CachePinger checks verdict cache availability.
type CachePinger interface {
	Ping(ctx context.Context) error
}

// ModelChecker verifies the classifier artifacts are loadable.
type ModelChecker interface {
	HealthCheck(ctx context.Context) error
}
