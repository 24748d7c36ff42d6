package pefile

import (
	"bytes"
	"debug/pe"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/osprey-sec/malscan/internal/domain"
)

// Section is the subset of section-header state the pipeline consumes.
type Section struct {
	Name            string
	VirtualAddress  uint32
	VirtualSize     uint32
	RawSize         uint32
	RawOffset       uint32
	Characteristics uint32
}

// Binary holds the structural metadata of one parsed PE image, normalized
// across the PE32 and PE32+ variants.
type Binary struct {
	Size int64

	// COFF file header.
	Machine              uint16
	NumberOfSections     uint16
	TimeDateStamp        uint32
	PointerToSymbolTable uint32
	NumberOfSymbols      uint32
	SizeOfOptionalHeader uint16
	Characteristics      uint16

	// Optional header. BaseOfData is 0 for PE32+ images, which have no such
	// field.
	Magic                   uint16
	BaseOfCode              uint32
	BaseOfData              uint32
	ImageBase               uint64
	FileAlignment           uint32
	MajorLinkerVersion      uint8
	MinorLinkerVersion      uint8
	MajorOSVersion          uint16
	MinorOSVersion          uint16
	MajorImageVersion       uint16
	MinorImageVersion       uint16
	MajorSubsystemVersion   uint16
	MinorSubsystemVersion   uint16
	SizeOfCode              uint32
	SizeOfHeaders           uint32
	SizeOfHeapCommit        uint64
	SizeOfImage             uint32
	SizeOfInitializedData   uint32
	SizeOfUninitializedData uint32
	Subsystem               uint16
	DLLCharacteristics      uint16
	NumberOfRvaAndSizes     uint32

	Sections []Section

	// Import table, in descriptor and thunk order, duplicates preserved.
	Libraries []string
	Functions []string
	// Export name table, in name-pointer order.
	Exports []string

	// Data-directory presence.
	HasDebug       bool
	HasTLS         bool
	HasRelocations bool
	HasResources   bool
	HasSignature   bool

	// COFF symbol table entries actually parsed.
	SymbolCount int
}

// VirtualSize returns the memory footprint implied by the section table:
// the highest section end RVA, falling back to SizeOfImage for images
// without sections.
func (b *Binary) VirtualSize() uint64 {
	var max uint64
	for _, s := range b.Sections {
		end := uint64(s.VirtualAddress) + uint64(s.VirtualSize)
		if end > max {
			max = end
		}
	}
	if max == 0 {
		return uint64(b.SizeOfImage)
	}
	return max
}

// Parse parses raw PE content into a Binary. All native parser failures,
// including panics on crafted input, are translated into the domain error
// kinds; tolerated partial structures resolve to documented defaults instead
// of failing extraction.
func Parse(data []byte) (bin *Binary, err error) {
	if len(data) == 0 {
		return nil, domain.ErrEmptyInput
	}
	if len(data) < 64 {
		return nil, fmt.Errorf("%w: %d bytes is smaller than a DOS header", domain.ErrTruncated, len(data))
	}
	if data[0] != 'M' || data[1] != 'Z' {
		return nil, fmt.Errorf("%w: missing MZ signature", domain.ErrMalformedFormat)
	}

	// debug/pe is not hardened against adversarial input; a crafted header
	// must surface as a domain error, not a crash.
	defer func() {
		if r := recover(); r != nil {
			bin = nil
			err = fmt.Errorf("%w: parser panic: %v", domain.ErrMalformedFormat, r)
		}
	}()

	f, err := pe.NewFile(bytes.NewReader(data))
	if err != nil {
		return nil, translateParseError(err)
	}
	defer f.Close()

	bin = &Binary{
		Size:                 int64(len(data)),
		Machine:              f.FileHeader.Machine,
		NumberOfSections:     f.FileHeader.NumberOfSections,
		TimeDateStamp:        f.FileHeader.TimeDateStamp,
		PointerToSymbolTable: f.FileHeader.PointerToSymbolTable,
		NumberOfSymbols:      f.FileHeader.NumberOfSymbols,
		SizeOfOptionalHeader: f.FileHeader.SizeOfOptionalHeader,
		Characteristics:      f.FileHeader.Characteristics,
		SymbolCount:          len(f.COFFSymbols),
	}

	for _, s := range f.Sections {
		bin.Sections = append(bin.Sections, Section{
			Name:            strings.TrimRight(s.Name, "\x00"),
			VirtualAddress:  s.VirtualAddress,
			VirtualSize:     s.VirtualSize,
			RawSize:         s.Size,
			RawOffset:       s.Offset,
			Characteristics: s.Characteristics,
		})
	}

	var dirs []pe.DataDirectory
	switch oh := f.OptionalHeader.(type) {
	case *pe.OptionalHeader32:
		bin.Magic = oh.Magic
		bin.BaseOfCode = oh.BaseOfCode
		bin.BaseOfData = oh.BaseOfData
		bin.ImageBase = uint64(oh.ImageBase)
		bin.FileAlignment = oh.FileAlignment
		bin.MajorLinkerVersion = oh.MajorLinkerVersion
		bin.MinorLinkerVersion = oh.MinorLinkerVersion
		bin.MajorOSVersion = oh.MajorOperatingSystemVersion
		bin.MinorOSVersion = oh.MinorOperatingSystemVersion
		bin.MajorImageVersion = oh.MajorImageVersion
		bin.MinorImageVersion = oh.MinorImageVersion
		bin.MajorSubsystemVersion = oh.MajorSubsystemVersion
		bin.MinorSubsystemVersion = oh.MinorSubsystemVersion
		bin.SizeOfCode = oh.SizeOfCode
		bin.SizeOfHeaders = oh.SizeOfHeaders
		bin.SizeOfHeapCommit = uint64(oh.SizeOfHeapCommit)
		bin.SizeOfImage = oh.SizeOfImage
		bin.SizeOfInitializedData = oh.SizeOfInitializedData
		bin.SizeOfUninitializedData = oh.SizeOfUninitializedData
		bin.Subsystem = oh.Subsystem
		bin.DLLCharacteristics = oh.DllCharacteristics
		bin.NumberOfRvaAndSizes = oh.NumberOfRvaAndSizes
		dirs = oh.DataDirectory[:]
	case *pe.OptionalHeader64:
		bin.Magic = oh.Magic
		bin.BaseOfCode = oh.BaseOfCode
		// PE32+ has no BaseOfData field; 0 is the documented default.
		bin.BaseOfData = 0
		bin.ImageBase = oh.ImageBase
		bin.FileAlignment = oh.FileAlignment
		bin.MajorLinkerVersion = oh.MajorLinkerVersion
		bin.MinorLinkerVersion = oh.MinorLinkerVersion
		bin.MajorOSVersion = oh.MajorOperatingSystemVersion
		bin.MinorOSVersion = oh.MinorOperatingSystemVersion
		bin.MajorImageVersion = oh.MajorImageVersion
		bin.MinorImageVersion = oh.MinorImageVersion
		bin.MajorSubsystemVersion = oh.MajorSubsystemVersion
		bin.MinorSubsystemVersion = oh.MinorSubsystemVersion
		bin.SizeOfCode = oh.SizeOfCode
		bin.SizeOfHeaders = oh.SizeOfHeaders
		bin.SizeOfHeapCommit = oh.SizeOfHeapCommit
		bin.SizeOfImage = oh.SizeOfImage
		bin.SizeOfInitializedData = oh.SizeOfInitializedData
		bin.SizeOfUninitializedData = oh.SizeOfUninitializedData
		bin.Subsystem = oh.Subsystem
		bin.DLLCharacteristics = oh.DllCharacteristics
		bin.NumberOfRvaAndSizes = oh.NumberOfRvaAndSizes
		dirs = oh.DataDirectory[:]
	default:
		// A COFF object without an optional header is not a loadable image.
		return nil, fmt.Errorf("%w: no optional header", domain.ErrUnsupportedVariant)
	}
	if bin.Magic != MagicPE32 && bin.Magic != MagicPE32Plus {
		return nil, fmt.Errorf("%w: optional header magic 0x%x", domain.ErrUnsupportedVariant, bin.Magic)
	}

	if int(bin.NumberOfRvaAndSizes) < len(dirs) {
		dirs = dirs[:bin.NumberOfRvaAndSizes]
	}
	bin.HasResources = dirPresent(dirs, pe.IMAGE_DIRECTORY_ENTRY_RESOURCE)
	bin.HasSignature = dirPresent(dirs, pe.IMAGE_DIRECTORY_ENTRY_SECURITY)
	bin.HasRelocations = dirPresent(dirs, pe.IMAGE_DIRECTORY_ENTRY_BASERELOC)
	bin.HasDebug = dirPresent(dirs, pe.IMAGE_DIRECTORY_ENTRY_DEBUG)
	bin.HasTLS = dirPresent(dirs, pe.IMAGE_DIRECTORY_ENTRY_TLS)

	// Import and export tables are best effort: a corrupt directory yields
	// empty lists, not a failed extraction.
	bin.Libraries, bin.Functions = parseImports(data, bin, dirs)
	bin.Exports = parseExports(data, bin, dirs)

	return bin, nil
}

func dirPresent(dirs []pe.DataDirectory, idx int) bool {
	return idx < len(dirs) && dirs[idx].VirtualAddress != 0 && dirs[idx].Size != 0
}

// translateParseError maps a native debug/pe error onto the domain taxonomy.
func translateParseError(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %v", domain.ErrTruncated, err)
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "eof") || strings.Contains(msg, "too small") ||
		strings.Contains(msg, "beyond") || strings.Contains(msg, "out of range"):
		return fmt.Errorf("%w: %v", domain.ErrTruncated, err)
	case strings.Contains(msg, "unrecognized") || strings.Contains(msg, "unknown") ||
		strings.Contains(msg, "unsupported"):
		return fmt.Errorf("%w: %v", domain.ErrUnsupportedVariant, err)
	default:
		return fmt.Errorf("%w: %v", domain.ErrMalformedFormat, err)
	}
}
