package dataset

import (
	sink "github.com/osprey-sec/malscan/internal/dataset"
	"github.com/osprey-sec/malscan/internal/domain"
)

// Sink persists extracted rows. Append is called from a single goroutine.
type Sink interface {
	Append(row sink.Row) error
}

// ExtractFunc turns raw file contents into the attribute schema.
type ExtractFunc func(data []byte) (*domain.AttributeSet, error)

// ReadFunc loads one candidate file from disk.
type ReadFunc func(path string) ([]byte, error)
