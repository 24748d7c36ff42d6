// Package dataset persists extracted attribute rows to tabular sinks for
// offline model training.
package dataset

import "github.com/osprey-sec/malscan/internal/domain"

// Row is one extracted sample: the source path plus its attributes.
type Row struct {
	Path  string
	Attrs *domain.AttributeSet
}

// Sink persists attribute rows. Implementations are not safe for
// concurrent use; the extraction service serializes Append calls.
type Sink interface {
	Append(row Row) error
	Close() error
}
