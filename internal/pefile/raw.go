// Package pefile parses Windows PE binaries into structural metadata.
//
// It wraps debug/pe plus manual data-directory walks and acts as the single
// translation layer between the native parser and the rest of the system:
// every native failure surfaces as one of the domain error kinds
// (ErrMalformedFormat, ErrTruncated, ErrUnsupportedVariant), never as a
// low-level parser error.
package pefile

import (
	"fmt"
	"os"

	"github.com/osprey-sec/malscan/internal/domain"
)

// Load reads raw binary content from disk.
// Missing or unreadable sources map to ErrUnreadableInput, zero-length
// content to ErrEmptyInput.
func Load(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrUnreadableInput, path, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrEmptyInput, path)
	}
	return data, nil
}
