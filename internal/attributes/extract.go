// Package attributes merges structural PE metadata and content statistics
// into the versioned attribute schema consumed by the vectorizer and the
// dataset sinks.
package attributes

import (
	"strings"

	"github.com/osprey-sec/malscan/internal/contentstats"
	"github.com/osprey-sec/malscan/internal/domain"
	"github.com/osprey-sec/malscan/internal/pefile"
)

// SchemaKeys is the canonical attribute order. It is load-bearing: the
// vectorizer's numeric projection and every tabular sink column layout
// follow it, so any change is a schema version bump.
var SchemaKeys = []string{
	"size", "virtual_size", "has_debug", "imports", "exports",
	"has_relocations", "has_resources", "has_signature", "has_tls", "symbols",
	"timestamp", "machine", "machine_name", "numberof_sections",
	"numberof_symbols", "pointerto_symbol_table", "sizeof_optional_header",
	"characteristics", "characteristics_list",
	"baseof_code", "baseof_data", "dll_characteristics",
	"dll_characteristics_list", "file_alignment", "imagebase", "magic_name",
	"pe_type", "major_image_version", "minor_image_version",
	"major_linker_version", "minor_linker_version",
	"major_operating_system_version", "minor_operating_system_version",
	"major_subsystem_version", "minor_subsystem_version",
	"numberof_rva_and_size", "sizeof_code", "sizeof_headers",
	"sizeof_heap_commit", "sizeof_image", "sizeof_initialized_data",
	"sizeof_uninitialized_data", "subsystem", "subsystem_name",
	"entropy", "string_paths", "string_urls", "string_registry", "string_mz",
	"functions", "libraries", "exports_list", "identify",
}

// packedEntropy is the per-section entropy above which a section counts as
// packed/compressed for the identify heuristic.
const packedEntropy = 7.0

// Extract parses raw binary content and produces the full attribute set in
// schema order. Structural parse failures propagate; everything downstream
// of a successful parse is total.
func Extract(data []byte) (*domain.AttributeSet, error) {
	bin, err := pefile.Parse(data)
	if err != nil {
		return nil, err
	}
	return fromBinary(bin, data), nil
}

func fromBinary(bin *pefile.Binary, data []byte) *domain.AttributeSet {
	a := domain.NewAttributeSet()

	// General image info.
	a.SetInt("size", bin.Size)
	a.SetInt("virtual_size", int64(bin.VirtualSize()))
	a.SetInt("has_debug", boolInt(bin.HasDebug))
	a.SetInt("imports", int64(len(bin.Libraries)))
	a.SetInt("exports", int64(len(bin.Exports)))
	a.SetInt("has_relocations", boolInt(bin.HasRelocations))
	a.SetInt("has_resources", boolInt(bin.HasResources))
	a.SetInt("has_signature", boolInt(bin.HasSignature))
	a.SetInt("has_tls", boolInt(bin.HasTLS))
	a.SetInt("symbols", int64(bin.SymbolCount))

	// COFF file header.
	a.SetInt("timestamp", int64(bin.TimeDateStamp))
	a.SetInt("machine", int64(bin.Machine))
	a.SetString("machine_name", pefile.MachineName(bin.Machine))
	a.SetInt("numberof_sections", int64(bin.NumberOfSections))
	a.SetInt("numberof_symbols", int64(bin.NumberOfSymbols))
	a.SetInt("pointerto_symbol_table", int64(bin.PointerToSymbolTable))
	a.SetInt("sizeof_optional_header", int64(bin.SizeOfOptionalHeader))
	a.SetInt("characteristics", int64(bin.Characteristics))
	a.SetString("characteristics_list", pefile.CharacteristicsNames(bin.Characteristics))

	// Optional header.
	a.SetInt("baseof_code", int64(bin.BaseOfCode))
	a.SetInt("baseof_data", int64(bin.BaseOfData))
	a.SetInt("dll_characteristics", int64(bin.DLLCharacteristics))
	a.SetString("dll_characteristics_list", pefile.DLLCharacteristicsNames(bin.DLLCharacteristics))
	a.SetInt("file_alignment", int64(bin.FileAlignment))
	a.SetInt("imagebase", int64(bin.ImageBase))
	a.SetString("magic_name", pefile.MagicName(bin.Magic))
	a.SetInt("pe_type", int64(bin.Magic))
	a.SetInt("major_image_version", int64(bin.MajorImageVersion))
	a.SetInt("minor_image_version", int64(bin.MinorImageVersion))
	a.SetInt("major_linker_version", int64(bin.MajorLinkerVersion))
	a.SetInt("minor_linker_version", int64(bin.MinorLinkerVersion))
	a.SetInt("major_operating_system_version", int64(bin.MajorOSVersion))
	a.SetInt("minor_operating_system_version", int64(bin.MinorOSVersion))
	a.SetInt("major_subsystem_version", int64(bin.MajorSubsystemVersion))
	a.SetInt("minor_subsystem_version", int64(bin.MinorSubsystemVersion))
	a.SetInt("numberof_rva_and_size", int64(bin.NumberOfRvaAndSizes))
	a.SetInt("sizeof_code", int64(bin.SizeOfCode))
	a.SetInt("sizeof_headers", int64(bin.SizeOfHeaders))
	a.SetInt("sizeof_heap_commit", int64(bin.SizeOfHeapCommit))
	a.SetInt("sizeof_image", int64(bin.SizeOfImage))
	a.SetInt("sizeof_initialized_data", int64(bin.SizeOfInitializedData))
	a.SetInt("sizeof_uninitialized_data", int64(bin.SizeOfUninitializedData))
	a.SetInt("subsystem", int64(bin.Subsystem))
	a.SetString("subsystem_name", pefile.SubsystemName(bin.Subsystem))

	// Content statistics over the raw stream.
	a.SetFloat("entropy", contentstats.Entropy(data))
	p := contentstats.ScanPatterns(data)
	a.SetInt("string_paths", int64(p.Paths))
	a.SetInt("string_urls", int64(p.URLs))
	a.SetInt("string_registry", int64(p.Registry))
	a.SetInt("string_mz", int64(p.MZ))

	// Textual attributes: one token per name, table order, duplicates
	// preserved, empty string when the table is absent.
	a.SetString("functions", joinTokens(bin.Functions))
	a.SetString("libraries", joinTokens(bin.Libraries))
	a.SetString("exports_list", joinTokens(bin.Exports))
	a.SetString("identify", identify(bin, data))

	return a
}

// identify is a coarse packer hint standing in for the signature-database
// identification slot: "packed" when most nonempty sections exceed the
// packed-entropy bar, empty otherwise.
func identify(bin *pefile.Binary, data []byte) string {
	var total, high int
	for _, s := range bin.Sections {
		if s.RawSize == 0 {
			continue
		}
		end := int64(s.RawOffset) + int64(s.RawSize)
		if end > int64(len(data)) {
			continue
		}
		total++
		if contentstats.Entropy(data[s.RawOffset:end]) > packedEntropy {
			high++
		}
	}
	if total > 0 && high*2 > total {
		return "packed"
	}
	return ""
}

func joinTokens(names []string) string {
	return strings.Join(names, " ")
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
