// Package features turns attribute sets into fixed-width feature vectors
// compatible with a trained classifier.
package features

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/osprey-sec/malscan/internal/domain"
)

// HashFNV1a32 is the only hashing scheme this build understands. The scheme
// name travels in the artifact so a vectorizer trained against a different
// hash can never be applied silently.
const HashFNV1a32 = "fnv1a-32"

// HashedField names a textual attribute and its fixed bucket count.
type HashedField struct {
	Name    string `json:"name"`
	Buckets int    `json:"buckets"`
}

// Artifact is the immutable vectorizer contract produced at training time:
// the numeric projection order, the hashed-field layout, and the per-feature
// min-max bounds. Loaded once and shared read-only.
type Artifact struct {
	Version       string        `json:"version"`
	Hash          string        `json:"hash"`
	NumericFields []string      `json:"numeric_fields"`
	HashedFields  []HashedField `json:"hashed_fields"`
	Min           []float64     `json:"min"`
	Max           []float64     `json:"max"`
}

// LoadArtifact reads and validates a vectorizer artifact.
func LoadArtifact(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: vectorizer artifact %s: %v", domain.ErrModelLoad, path, err)
	}
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("%w: vectorizer artifact %s: %v", domain.ErrModelLoad, path, err)
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return &a, nil
}

// Width returns the total feature-vector width the artifact defines.
func (a *Artifact) Width() int {
	w := len(a.NumericFields)
	for _, h := range a.HashedFields {
		w += h.Buckets
	}
	return w
}

// Validate checks internal consistency of the artifact.
func (a *Artifact) Validate() error {
	if a.Hash != HashFNV1a32 {
		return fmt.Errorf("%w: unsupported hash scheme %q", domain.ErrModelLoad, a.Hash)
	}
	if len(a.NumericFields) == 0 {
		return fmt.Errorf("%w: vectorizer artifact has no numeric fields", domain.ErrModelLoad)
	}
	for _, h := range a.HashedFields {
		if h.Buckets <= 0 {
			return fmt.Errorf("%w: hashed field %q has bucket count %d", domain.ErrModelLoad, h.Name, h.Buckets)
		}
	}
	w := a.Width()
	if len(a.Min) != w || len(a.Max) != w {
		return fmt.Errorf("%w: scaling bounds length %d/%d, want %d",
			domain.ErrModelLoad, len(a.Min), len(a.Max), w)
	}
	return nil
}
