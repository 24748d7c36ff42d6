package malscan

import "github.com/osprey-sec/malscan/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrUnreadableInput    = domain.ErrUnreadableInput
	ErrEmptyInput         = domain.ErrEmptyInput
	ErrMalformedFormat    = domain.ErrMalformedFormat
	ErrTruncated          = domain.ErrTruncated
	ErrUnsupportedVariant = domain.ErrUnsupportedVariant
	ErrSchemaMismatch     = domain.ErrSchemaMismatch
	ErrModelLoad          = domain.ErrModelLoad
)
