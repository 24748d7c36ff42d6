package model

import (
	"fmt"
	"sync"

	"github.com/osprey-sec/malscan/internal/domain"
	"github.com/osprey-sec/malscan/internal/features"
)

// Handle is the process-lifetime holder of the classifier and vectorizer
// artifacts. Initialization happens exactly once, on first use, guarded
// against concurrent callers; after that both artifacts are immutable and
// reads need no synchronization. A failed load is sticky: the handle
// reports the same ErrModelLoad on every subsequent call rather than
// retrying half-initialized state.
type Handle struct {
	classifierPath string
	vectorizerPath string

	once       sync.Once
	classifier *Classifier
	vectorizer *features.Vectorizer
	err        error
}

// NewHandle creates a lazy handle over the two artifact paths. Nothing is
// read until the first Get.
func NewHandle(classifierPath, vectorizerPath string) *Handle {
	return &Handle{
		classifierPath: classifierPath,
		vectorizerPath: vectorizerPath,
	}
}

// Get returns the shared classifier and vectorizer, loading them on first
// call. A width disagreement between the two artifacts is an ErrModelLoad:
// the pair is unusable, not partially usable.
func (h *Handle) Get() (*Classifier, *features.Vectorizer, error) {
	h.once.Do(h.load)
	return h.classifier, h.vectorizer, h.err
}

func (h *Handle) load() {
	clf, err := LoadClassifier(h.classifierPath)
	if err != nil {
		h.err = err
		return
	}
	art, err := features.LoadArtifact(h.vectorizerPath)
	if err != nil {
		h.err = err
		return
	}
	if art.Width() != clf.NumFeatures {
		h.err = fmt.Errorf("%w: vectorizer width %d, classifier expects %d",
			domain.ErrModelLoad, art.Width(), clf.NumFeatures)
		return
	}
	h.classifier = clf
	h.vectorizer = features.NewVectorizer(art)
}
