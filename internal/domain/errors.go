package domain

import "errors"

var (
	// ErrUnreadableInput signals that the binary source could not be read.
	ErrUnreadableInput = errors.New("input unreadable")
	// ErrEmptyInput signals zero-length binary content.
	ErrEmptyInput = errors.New("empty input")
	// ErrMalformedFormat signals structurally invalid PE content.
	ErrMalformedFormat = errors.New("malformed PE format")
	// ErrTruncated signals PE content cut short of a declared structure.
	ErrTruncated = errors.New("truncated PE content")
	// ErrUnsupportedVariant signals a PE variant the parser does not handle.
	ErrUnsupportedVariant = errors.New("unsupported PE variant")
	// ErrSchemaMismatch signals a feature-vector width or attribute-schema violation.
	ErrSchemaMismatch = errors.New("feature schema mismatch")
	// ErrModelLoad signals a missing or corrupt classifier/vectorizer artifact.
	ErrModelLoad = errors.New("model artifact load failed")
)
