package classify

import (
	"github.com/osprey-sec/malscan/internal/domain"
	"github.com/osprey-sec/malscan/internal/features"
	"github.com/osprey-sec/malscan/internal/model"
)

// Models provides the lazily loaded classifier and vectorizer pair.
type Models interface {
	Get() (*model.Classifier, *features.Vectorizer, error)
}

// ExtractFunc turns raw file contents into the attribute schema.
type ExtractFunc func(data []byte) (*domain.AttributeSet, error)
