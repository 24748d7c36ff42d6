package pefile

import (
	"debug/pe"
	"encoding/binary"
)

// Caps bound directory walks on adversarial input. Real import tables stay
// far below these; a crafted one must not turn extraction into an
// unbounded loop.
const (
	maxImportDescriptors = 4096
	maxThunksPerLibrary  = 65536
	maxExportNames       = 65536
	maxNameLength        = 4096
)

const ordinalFlag32 = uint32(1) << 31

// rvaToOffset maps an RVA to a file offset through the section table.
// RVAs inside the header region map identity; unmappable RVAs return -1.
func rvaToOffset(bin *Binary, rva uint32) int64 {
	for _, s := range bin.Sections {
		size := s.VirtualSize
		if s.RawSize > size {
			size = s.RawSize
		}
		if rva >= s.VirtualAddress && rva < s.VirtualAddress+size {
			return int64(rva) - int64(s.VirtualAddress) + int64(s.RawOffset)
		}
	}
	if rva < bin.SizeOfHeaders {
		return int64(rva)
	}
	return -1
}

func u32at(data []byte, off int64) (uint32, bool) {
	if off < 0 || off+4 > int64(len(data)) {
		return 0, false
	}
	return binary.LittleEndian.Uint32(data[off:]), true
}

func u64at(data []byte, off int64) (uint64, bool) {
	if off < 0 || off+8 > int64(len(data)) {
		return 0, false
	}
	return binary.LittleEndian.Uint64(data[off:]), true
}

// cstringAt reads a NUL-terminated ASCII string at the given RVA.
func cstringAt(data []byte, bin *Binary, rva uint32) string {
	off := rvaToOffset(bin, rva)
	if off < 0 || off >= int64(len(data)) {
		return ""
	}
	end := off
	limit := off + maxNameLength
	if limit > int64(len(data)) {
		limit = int64(len(data))
	}
	for end < limit && data[end] != 0 {
		end++
	}
	return string(data[off:end])
}

// parseImports walks the import descriptor table. Library names come out in
// descriptor order and function names in thunk order, duplicates preserved.
// Ordinal-only imports contribute no function token, matching the
// by-name-only textual attribute contract. Any bounds violation ends the
// walk with whatever was collected so far.
func parseImports(data []byte, bin *Binary, dirs []pe.DataDirectory) (libs, funcs []string) {
	if !dirPresent(dirs, pe.IMAGE_DIRECTORY_ENTRY_IMPORT) {
		return nil, nil
	}
	base := rvaToOffset(bin, dirs[pe.IMAGE_DIRECTORY_ENTRY_IMPORT].VirtualAddress)
	if base < 0 {
		return nil, nil
	}

	thunkSize := int64(4)
	if bin.Magic == MagicPE32Plus {
		thunkSize = 8
	}

	for i := 0; i < maxImportDescriptors; i++ {
		// IMAGE_IMPORT_DESCRIPTOR is 20 bytes; a zeroed Name field ends
		// the table.
		desc := base + int64(i)*20
		origFirstThunk, ok := u32at(data, desc)
		if !ok {
			break
		}
		nameRVA, ok := u32at(data, desc+12)
		if !ok || nameRVA == 0 {
			break
		}
		firstThunk, _ := u32at(data, desc+16)

		lib := cstringAt(data, bin, nameRVA)
		if lib == "" {
			break
		}
		libs = append(libs, lib)

		thunkRVA := origFirstThunk
		if thunkRVA == 0 {
			thunkRVA = firstThunk
		}
		thunkOff := rvaToOffset(bin, thunkRVA)
		if thunkOff < 0 {
			continue
		}
		for j := 0; j < maxThunksPerLibrary; j++ {
			off := thunkOff + int64(j)*thunkSize
			var entry uint64
			if thunkSize == 4 {
				v, ok := u32at(data, off)
				if !ok || v == 0 {
					break
				}
				if v&ordinalFlag32 != 0 {
					continue
				}
				entry = uint64(v)
			} else {
				v, ok := u64at(data, off)
				if !ok || v == 0 {
					break
				}
				if v&(uint64(1)<<63) != 0 {
					continue
				}
				entry = v
			}
			// Hint/name entry: 2-byte hint, then the function name.
			if name := cstringAt(data, bin, uint32(entry)+2); name != "" {
				funcs = append(funcs, name)
			}
		}
	}
	return libs, funcs
}

// parseExports walks the export name-pointer table in declaration order.
// A corrupt directory yields the names collected up to the first bad entry.
func parseExports(data []byte, bin *Binary, dirs []pe.DataDirectory) []string {
	if !dirPresent(dirs, pe.IMAGE_DIRECTORY_ENTRY_EXPORT) {
		return nil
	}
	base := rvaToOffset(bin, dirs[pe.IMAGE_DIRECTORY_ENTRY_EXPORT].VirtualAddress)
	if base < 0 {
		return nil
	}

	// IMAGE_EXPORT_DIRECTORY: NumberOfNames at +24, AddressOfNames at +32.
	numNames, ok := u32at(data, base+24)
	if !ok || numNames == 0 {
		return nil
	}
	namesRVA, ok := u32at(data, base+32)
	if !ok {
		return nil
	}
	namesOff := rvaToOffset(bin, namesRVA)
	if namesOff < 0 {
		return nil
	}
	if numNames > maxExportNames {
		numNames = maxExportNames
	}

	var names []string
	for i := uint32(0); i < numNames; i++ {
		nameRVA, ok := u32at(data, namesOff+int64(i)*4)
		if !ok {
			break
		}
		name := cstringAt(data, bin, nameRVA)
		if name == "" {
			break
		}
		names = append(names, name)
	}
	return names
}
