// Package model loads and evaluates the trained classifier artifact.
package model

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/osprey-sec/malscan/internal/domain"
)

// Tree is one decision tree in flat-array form. A negative left child marks
// a leaf whose margin contribution is the node's value.
type Tree struct {
	Features   []int     `json:"features"`
	Thresholds []float64 `json:"thresholds"`
	Lefts      []int     `json:"lefts"`
	Rights     []int     `json:"rights"`
	Values     []float64 `json:"values"`
}

// Classifier is a serialized gradient-boosted tree ensemble for binary
// logistic classification. It is immutable after load and safe for
// concurrent use.
type Classifier struct {
	Version     string `json:"version"`
	NumFeatures int    `json:"num_features"`
	// BaseScore is the global prior in probability space.
	BaseScore float64 `json:"base_score"`
	// BestIteration is the early-stopping cutoff: only trees up to and
	// including this index are evaluated. Negative means the full ensemble.
	BestIteration int    `json:"best_iteration"`
	Trees         []Tree `json:"trees"`
}

// LoadClassifier reads and validates a classifier artifact.
func LoadClassifier(path string) (*Classifier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: classifier artifact %s: %v", domain.ErrModelLoad, path, err)
	}
	var c Classifier
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: classifier artifact %s: %v", domain.ErrModelLoad, path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks structural consistency of the ensemble.
func (c *Classifier) Validate() error {
	if c.NumFeatures <= 0 {
		return fmt.Errorf("%w: classifier declares %d features", domain.ErrModelLoad, c.NumFeatures)
	}
	if c.BaseScore <= 0 || c.BaseScore >= 1 {
		return fmt.Errorf("%w: base score %v outside (0,1)", domain.ErrModelLoad, c.BaseScore)
	}
	if c.BestIteration >= len(c.Trees) {
		return fmt.Errorf("%w: best iteration %d with %d trees", domain.ErrModelLoad, c.BestIteration, len(c.Trees))
	}
	for ti, t := range c.Trees {
		n := len(t.Features)
		if len(t.Thresholds) != n || len(t.Lefts) != n || len(t.Rights) != n || len(t.Values) != n {
			return fmt.Errorf("%w: tree %d has ragged node arrays", domain.ErrModelLoad, ti)
		}
		if n == 0 {
			return fmt.Errorf("%w: tree %d is empty", domain.ErrModelLoad, ti)
		}
		for i := range n {
			if t.Lefts[i] < 0 {
				continue
			}
			if t.Lefts[i] >= n || t.Rights[i] < 0 || t.Rights[i] >= n {
				return fmt.Errorf("%w: tree %d node %d has out-of-range children", domain.ErrModelLoad, ti, i)
			}
			if t.Features[i] < 0 || t.Features[i] >= c.NumFeatures {
				return fmt.Errorf("%w: tree %d node %d splits on feature %d", domain.ErrModelLoad, ti, i, t.Features[i])
			}
		}
	}
	return nil
}

// PredictProba evaluates the ensemble on one feature vector and returns the
// malware probability. The vector width must equal the classifier's
// declared feature count. Evaluation is fully deterministic.
func (c *Classifier) PredictProba(vec []float64) (float64, error) {
	if len(vec) != c.NumFeatures {
		return 0, fmt.Errorf("%w: vector width %d, classifier expects %d",
			domain.ErrSchemaMismatch, len(vec), c.NumFeatures)
	}

	trees := c.Trees
	if c.BestIteration >= 0 {
		trees = trees[:c.BestIteration+1]
	}

	margin := math.Log(c.BaseScore / (1 - c.BaseScore))
	for ti := range trees {
		margin += trees[ti].evaluate(vec)
	}
	return sigmoid(margin), nil
}

func (t *Tree) evaluate(vec []float64) float64 {
	i := 0
	for t.Lefts[i] >= 0 {
		if vec[t.Features[i]] < t.Thresholds[i] {
			i = t.Lefts[i]
		} else {
			i = t.Rights[i]
		}
	}
	return t.Values[i]
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
