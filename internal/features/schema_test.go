package features

import (
	"math"
	"testing"

	"github.com/osprey-sec/malscan/internal/attributes"
	"github.com/osprey-sec/malscan/internal/pefile/pefiletest"
)

// schemaNumericFields is every numeric attribute of the extraction schema,
// in schema order. It is written out rather than derived so a rename on
// either side of the artifact contract breaks this file.
var schemaNumericFields = []string{
	"size", "virtual_size", "has_debug", "imports", "exports",
	"has_relocations", "has_resources", "has_signature", "has_tls", "symbols",
	"timestamp", "machine", "numberof_sections", "numberof_symbols",
	"pointerto_symbol_table", "sizeof_optional_header", "characteristics",
	"baseof_code", "baseof_data", "dll_characteristics", "file_alignment",
	"imagebase", "pe_type", "major_image_version", "minor_image_version",
	"major_linker_version", "minor_linker_version",
	"major_operating_system_version", "minor_operating_system_version",
	"major_subsystem_version", "minor_subsystem_version",
	"numberof_rva_and_size", "sizeof_code", "sizeof_headers",
	"sizeof_heap_commit", "sizeof_image", "sizeof_initialized_data",
	"sizeof_uninitialized_data", "subsystem",
	"entropy", "string_paths", "string_urls", "string_registry", "string_mz",
}

func fullSchemaArtifact() *Artifact {
	hashed := []HashedField{
		{Name: "identify", Buckets: 8},
		{Name: "libraries", Buckets: 16},
		{Name: "functions", Buckets: 16},
		{Name: "exports_list", Buckets: 16},
	}
	width := len(schemaNumericFields)
	for _, h := range hashed {
		width += h.Buckets
	}
	maxes := make([]float64, width)
	for i := range maxes {
		maxes[i] = 1
	}
	return &Artifact{
		Version:       "schema-1",
		Hash:          HashFNV1a32,
		NumericFields: schemaNumericFields,
		HashedFields:  hashed,
		Min:           make([]float64, width),
		Max:           maxes,
	}
}

// TestTransformExtractedAttributes feeds a real extraction through an
// artifact spanning the whole schema: every numeric field projects, every
// textual field hashes, and the output is full width with finite entries.
func TestTransformExtractedAttributes(t *testing.T) {
	art := fullSchemaArtifact()
	if err := art.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	schema := make(map[string]bool, len(attributes.SchemaKeys))
	for _, k := range attributes.SchemaKeys {
		schema[k] = true
	}
	for _, name := range art.NumericFields {
		if !schema[name] {
			t.Errorf("numeric field %q is not an extraction key", name)
		}
	}
	for _, h := range art.HashedFields {
		if !schema[h.Name] {
			t.Errorf("hashed field %q is not an extraction key", h.Name)
		}
	}

	for _, spec := range []pefiletest.Spec{
		{},
		{Imports: true, Exports: true, Debug: true, TLS: true},
		{PE32Plus: true, Imports: true, Relocations: true, Resources: true},
	} {
		img := pefiletest.Build(spec)
		attrs, err := attributes.Extract(img)
		if err != nil {
			t.Fatalf("Extract(%+v): %v", spec, err)
		}

		vec, err := NewVectorizer(art).Transform(attrs)
		if err != nil {
			t.Fatalf("Transform(%+v): %v", spec, err)
		}
		if len(vec) != art.Width() {
			t.Fatalf("vector width = %d, want %d", len(vec), art.Width())
		}
		for i, x := range vec {
			if math.IsNaN(x) || math.IsInf(x, 0) {
				t.Errorf("entry %d is not finite: %v", i, x)
			}
		}
	}
}
