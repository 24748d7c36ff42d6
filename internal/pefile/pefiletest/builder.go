// Package pefiletest builds small synthetic PE images for tests. The images
// are structurally valid enough for both debug/pe and the directory walkers:
// a DOS header, COFF and optional headers, two sections, and optional import
// and export tables with fixed well-known names.
package pefiletest

import "encoding/binary"

// Fixed content of the optional import and export tables.
const (
	ImportLibrary  = "kernel32.dll"
	ImportFunction = "ExitProcess"
	ExportName     = "ExportedFunc"
)

// Spec selects the variant and the optional structures of a built image.
// The zero value is a minimal PE32 image with no imports, exports, or
// presence directories.
type Spec struct {
	PE32Plus bool

	Imports bool
	Exports bool

	Resources   bool
	Signature   bool
	Relocations bool
	Debug       bool
	TLS         bool

	TimeDateStamp uint32

	// TextContent fills the .text raw data, truncated to 512 bytes.
	TextContent []byte
}

// Image geometry. Headers occupy the first 0x200 bytes, .text the next
// 0x200 at RVA 0x1000, and .rdata the final 0x400 at RVA 0x2000.
const (
	fileSize      = 0x800
	peOffset      = 0x80
	textOffset    = 0x200
	textRVA       = 0x1000
	rdataOffset   = 0x400
	rdataRVA      = 0x2000
	sizeOfHeaders = 0x200

	importDirRVA  = 0x2000
	thunkRVA      = 0x2030
	firstThunkRVA = 0x2040
	dllNameRVA    = 0x2060
	hintNameRVA   = 0x2070
	exportDirRVA  = 0x2100
	namePtrRVA    = 0x2130
	exportNameRVA = 0x2140
)

// Minimal returns a valid PE32 image with no imports or exports.
func Minimal() []byte {
	return Build(Spec{})
}

// Build renders the image described by spec.
func Build(spec Spec) []byte {
	img := make([]byte, fileSize)

	// DOS header: MZ signature and e_lfanew.
	img[0] = 'M'
	img[1] = 'Z'
	w32(img, 0x3c, peOffset)

	// PE signature.
	copy(img[peOffset:], []byte{'P', 'E', 0, 0})

	// COFF file header.
	coff := peOffset + 4
	optSize := uint16(0xE0)
	machine := uint16(0x14c)
	characteristics := uint16(0x0102) // EXECUTABLE_IMAGE | 32BIT_MACHINE
	if spec.PE32Plus {
		optSize = 0xF0
		machine = 0x8664
		characteristics = 0x0022 // EXECUTABLE_IMAGE | LARGE_ADDRESS_AWARE
	}
	w16(img, coff, machine)
	w16(img, coff+2, 2) // NumberOfSections
	w32(img, coff+4, spec.TimeDateStamp)
	w16(img, coff+16, optSize)
	w16(img, coff+18, characteristics)

	opt := coff + 20
	writeOptionalHeader(img, opt, spec)
	writeDataDirectories(img, opt, spec)
	writeSections(img, opt+int(optSize))

	if len(spec.TextContent) > 0 {
		n := len(spec.TextContent)
		if n > 0x200 {
			n = 0x200
		}
		copy(img[textOffset:textOffset+n], spec.TextContent)
	}
	if spec.Imports {
		writeImports(img, spec.PE32Plus)
	}
	if spec.Exports {
		writeExports(img)
	}
	return img
}

func writeOptionalHeader(img []byte, opt int, spec Spec) {
	if spec.PE32Plus {
		w16(img, opt, 0x20b)
	} else {
		w16(img, opt, 0x10b)
	}
	img[opt+2] = 14 // MajorLinkerVersion
	img[opt+3] = 0
	w32(img, opt+4, 0x200)      // SizeOfCode
	w32(img, opt+8, 0x400)      // SizeOfInitializedData
	w32(img, opt+12, 0)         // SizeOfUninitializedData
	w32(img, opt+16, textRVA)   // AddressOfEntryPoint
	w32(img, opt+20, textRVA)   // BaseOfCode

	if spec.PE32Plus {
		w64(img, opt+24, 0x140000000) // ImageBase
	} else {
		w32(img, opt+24, rdataRVA) // BaseOfData
		w32(img, opt+28, 0x400000) // ImageBase
	}
	w32(img, opt+32, 0x1000) // SectionAlignment
	w32(img, opt+36, 0x200)  // FileAlignment
	w16(img, opt+40, 6)      // MajorOperatingSystemVersion
	w16(img, opt+42, 0)
	w16(img, opt+44, 1) // MajorImageVersion
	w16(img, opt+46, 2)
	w16(img, opt+48, 6) // MajorSubsystemVersion
	w16(img, opt+50, 0)
	w32(img, opt+56, 0x3000)        // SizeOfImage
	w32(img, opt+60, sizeOfHeaders) // SizeOfHeaders
	w16(img, opt+68, 3)             // Subsystem: console
	w16(img, opt+70, 0x8140)        // DllCharacteristics

	if spec.PE32Plus {
		w64(img, opt+72, 0x100000) // SizeOfStackReserve
		w64(img, opt+80, 0x1000)
		w64(img, opt+88, 0x100000) // SizeOfHeapReserve
		w64(img, opt+96, 0x1000)   // SizeOfHeapCommit
		w32(img, opt+108, 16)      // NumberOfRvaAndSizes
	} else {
		w32(img, opt+72, 0x100000)
		w32(img, opt+76, 0x1000)
		w32(img, opt+80, 0x100000)
		w32(img, opt+84, 0x1000)
		w32(img, opt+92, 16)
	}
}

func writeDataDirectories(img []byte, opt int, spec Spec) {
	dirs := opt + 96
	if spec.PE32Plus {
		dirs = opt + 112
	}
	set := func(idx int, rva, size uint32) {
		w32(img, dirs+idx*8, rva)
		w32(img, dirs+idx*8+4, size)
	}
	if spec.Exports {
		set(0, exportDirRVA, 0x60)
	}
	if spec.Imports {
		set(1, importDirRVA, 0x28)
	}
	if spec.Resources {
		set(2, rdataRVA+0x300, 0x10)
	}
	if spec.Signature {
		// The security entry holds a file offset, not an RVA.
		set(4, 0x700, 0x10)
	}
	if spec.Relocations {
		set(5, rdataRVA+0x310, 0x10)
	}
	if spec.Debug {
		set(6, rdataRVA+0x320, 0x1c)
	}
	if spec.TLS {
		set(9, rdataRVA+0x340, 0x18)
	}
}

func writeSections(img []byte, off int) {
	writeSection(img, off, ".text", textRVA, 0x200, 0x200, textOffset, 0x60000020)
	writeSection(img, off+40, ".rdata", rdataRVA, 0x400, 0x400, rdataOffset, 0x40000040)
}

func writeSection(img []byte, off int, name string, rva, vsize, rawSize, rawOff, chars uint32) {
	copy(img[off:off+8], name)
	w32(img, off+8, vsize)
	w32(img, off+12, rva)
	w32(img, off+16, rawSize)
	w32(img, off+20, rawOff)
	w32(img, off+36, chars)
}

func writeImports(img []byte, pe32plus bool) {
	desc := rdataOffset // importDirRVA maps here
	w32(img, desc, thunkRVA)      // OriginalFirstThunk
	w32(img, desc+12, dllNameRVA) // Name
	w32(img, desc+16, firstThunkRVA)
	// The 20-byte null descriptor terminating the table is already zero.

	thunkOff := rdataOffset + int(thunkRVA-rdataRVA)
	firstOff := rdataOffset + int(firstThunkRVA-rdataRVA)
	if pe32plus {
		w64(img, thunkOff, hintNameRVA)
		w64(img, firstOff, hintNameRVA)
	} else {
		w32(img, thunkOff, hintNameRVA)
		w32(img, firstOff, hintNameRVA)
	}

	copy(img[rdataOffset+int(dllNameRVA-rdataRVA):], ImportLibrary)
	hint := rdataOffset + int(hintNameRVA-rdataRVA)
	copy(img[hint+2:], ImportFunction)
}

func writeExports(img []byte) {
	dir := rdataOffset + int(exportDirRVA-rdataRVA)
	w32(img, dir+20, 1)             // NumberOfFunctions
	w32(img, dir+24, 1)             // NumberOfNames
	w32(img, dir+32, namePtrRVA)    // AddressOfNames
	ptr := rdataOffset + int(namePtrRVA-rdataRVA)
	w32(img, ptr, exportNameRVA)
	copy(img[rdataOffset+int(exportNameRVA-rdataRVA):], ExportName)
}

func w16(b []byte, off int, v uint16) { binary.LittleEndian.PutUint16(b[off:], v) }
func w32(b []byte, off int, v uint32) { binary.LittleEndian.PutUint32(b[off:], v) }
func w64(b []byte, off int, v uint64) { binary.LittleEndian.PutUint64(b[off:], v) }
