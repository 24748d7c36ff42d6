// Package malscan provides an embedded Go client for static malware
// classification: load the model artifacts once, then score many binaries
// in-process without running the HTTP service.
//
//	client, _ := malscan.New(
//	    malscan.WithArtifacts("models/classifier.json", "models/vectorizer.json"),
//	    malscan.WithThreshold(0.82),
//	)
//	result, err := client.ScoreFile(ctx, "sample.exe")
package malscan

import (
	"context"

	"github.com/osprey-sec/malscan/internal/attributes"
	"github.com/osprey-sec/malscan/internal/domain"
	"github.com/osprey-sec/malscan/internal/model"
	"github.com/osprey-sec/malscan/internal/pefile"
	classifyuc "github.com/osprey-sec/malscan/internal/usecase/classify"
)

// ScoreResult is the detailed outcome of scoring one binary.
type ScoreResult = domain.ScoreResult

// Labels produced by the decision policy.
const (
	LabelBenign    = domain.LabelBenign
	LabelMalicious = domain.LabelMalicious
)

// Client is the malscan SDK entry point. It is safe for concurrent use;
// the model loads lazily on the first scoring call and is shared after.
type Client struct {
	svc *classifyuc.Service
}

// New creates a Client over the configured model artifacts. Nothing is
// read from disk until the first call unless WithEagerLoad is given.
func New(opts ...Option) (*Client, error) {
	cfg := defaultClientConfig()
	for _, o := range opts {
		o.apply(cfg)
	}

	handle := model.NewHandle(cfg.classifierPath, cfg.vectorizerPath)
	c := &Client{svc: classifyuc.New(handle, attributes.Extract, cfg.threshold)}

	if cfg.eagerLoad {
		if err := c.svc.HealthCheck(context.Background()); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Score runs the full pipeline over raw binary contents.
func (c *Client) Score(ctx context.Context, data []byte) (ScoreResult, error) {
	return c.svc.Score(ctx, data)
}

// ScoreFile loads the file at path and scores it.
func (c *Client) ScoreFile(ctx context.Context, path string) (ScoreResult, error) {
	data, err := pefile.Load(path)
	if err != nil {
		return ScoreResult{}, err
	}
	return c.svc.Score(ctx, data)
}

// Classify applies the fail-open policy: any pipeline failure yields the
// benign label rather than an error.
func (c *Client) Classify(ctx context.Context, data []byte) int {
	result, err := c.svc.Score(ctx, data)
	if err != nil {
		return LabelBenign
	}
	return result.Label
}

// Health reports whether the model artifacts are loadable.
func (c *Client) Health(ctx context.Context) error {
	return c.svc.HealthCheck(ctx)
}
