package contentstats

import (
	"bytes"
	"regexp"
)

// Literal markers counted over the raw byte stream. These are occurrence
// counts per non-overlapping scan pass, not semantic extraction: nothing is
// resolved or de-duplicated.
var (
	pathMarker = regexp.MustCompile(`(?i)c:\\`)
	urlMarker  = regexp.MustCompile(`(?i)https?://`)
)

var (
	registryMarker = []byte("HKEY_")
	mzMarker       = []byte("MZ")
)

// Patterns holds byte-pattern occurrence counts for one binary.
type Patterns struct {
	// Paths counts Windows path markers (`c:\`, case-insensitive).
	Paths int
	// URLs counts URL scheme markers (`http://` or `https://`, case-insensitive).
	URLs int
	// Registry counts registry root markers (`HKEY_`, case-sensitive).
	Registry int
	// MZ counts embedded DOS/PE header markers, crude evidence of a
	// secondary executable in the stream.
	MZ int
}

// ScanPatterns counts the four marker patterns over the content.
func ScanPatterns(data []byte) Patterns {
	return Patterns{
		Paths:    len(pathMarker.FindAllIndex(data, -1)),
		URLs:     len(urlMarker.FindAllIndex(data, -1)),
		Registry: bytes.Count(data, registryMarker),
		MZ:       bytes.Count(data, mzMarker),
	}
}
