package features

import (
	"fmt"

	"github.com/osprey-sec/malscan/internal/domain"
)

// Vectorizer maps an attribute set onto the artifact's fixed feature layout:
// numeric block, then one hashed block per textual attribute, then min-max
// scaling. The step order is versioned with the artifact.
type Vectorizer struct {
	artifact *Artifact
}

// NewVectorizer creates a vectorizer over a validated artifact.
func NewVectorizer(artifact *Artifact) *Vectorizer {
	return &Vectorizer{artifact: artifact}
}

// Width returns the feature-vector width this vectorizer produces.
func (v *Vectorizer) Width() int { return v.artifact.Width() }

// Transform produces the scaled feature vector for one attribute set.
// A missing required numeric attribute is ErrSchemaMismatch; it is never
// silently substituted. Missing textual attributes hash as empty text.
func (v *Vectorizer) Transform(attrs *domain.AttributeSet) ([]float64, error) {
	vec := make([]float64, 0, v.artifact.Width())

	for _, name := range v.artifact.NumericFields {
		x, ok := attrs.Float(name)
		if !ok {
			return nil, fmt.Errorf("%w: missing numeric attribute %q", domain.ErrSchemaMismatch, name)
		}
		vec = append(vec, x)
	}

	for _, hf := range v.artifact.HashedFields {
		text, ok := attrs.String(hf.Name)
		if !ok && attrs.Has(hf.Name) {
			return nil, fmt.Errorf("%w: attribute %q is not textual", domain.ErrSchemaMismatch, hf.Name)
		}
		vec = append(vec, hashBlock(text, hf.Buckets)...)
	}

	v.scale(vec)
	return vec, nil
}

// scale applies training-time min-max bounds in place: (x-min)/(max-min),
// dividing by 1 for zero-range features. Out-of-range values are NOT
// clipped; the trained scaler semantics allow results outside [0,1] at
// inference time and must be preserved.
func (v *Vectorizer) scale(vec []float64) {
	for i := range vec {
		d := v.artifact.Max[i] - v.artifact.Min[i]
		if d == 0 {
			d = 1
		}
		vec[i] = (vec[i] - v.artifact.Min[i]) / d
	}
}
