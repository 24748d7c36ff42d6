package domain

import "context"

// KeyPrefix namespaces every key the service writes to the store.
const KeyPrefix = "malscan:"

// Scorer produces a classification score for raw file contents.
type Scorer interface {
	Score(ctx context.Context, data []byte) (ScoreResult, error)
}
