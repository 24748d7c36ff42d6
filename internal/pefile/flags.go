package pefile

import (
	"fmt"
	"strings"
)

// Symbolic names follow the PE format definition. Flag lists are rendered in
// bit declaration order; that order is part of the versioned attribute schema
// because the hashed feature space depends on it.

type flagName struct {
	bit  uint32
	name string
}

var characteristicsFlags = []flagName{
	{0x0001, "RELOCS_STRIPPED"},
	{0x0002, "EXECUTABLE_IMAGE"},
	{0x0004, "LINE_NUMS_STRIPPED"},
	{0x0008, "LOCAL_SYMS_STRIPPED"},
	{0x0010, "AGGRESSIVE_WS_TRIM"},
	{0x0020, "LARGE_ADDRESS_AWARE"},
	{0x0080, "BYTES_REVERSED_LO"},
	{0x0100, "NEED_32BIT_MACHINE"},
	{0x0200, "DEBUG_STRIPPED"},
	{0x0400, "REMOVABLE_RUN_FROM_SWAP"},
	{0x0800, "NET_RUN_FROM_SWAP"},
	{0x1000, "SYSTEM"},
	{0x2000, "DLL"},
	{0x4000, "UP_SYSTEM_ONLY"},
	{0x8000, "BYTES_REVERSED_HI"},
}

var dllCharacteristicsFlags = []flagName{
	{0x0020, "HIGH_ENTROPY_VA"},
	{0x0040, "DYNAMIC_BASE"},
	{0x0080, "FORCE_INTEGRITY"},
	{0x0100, "NX_COMPAT"},
	{0x0200, "NO_ISOLATION"},
	{0x0400, "NO_SEH"},
	{0x0800, "NO_BIND"},
	{0x1000, "APPCONTAINER"},
	{0x2000, "WDM_DRIVER"},
	{0x4000, "GUARD_CF"},
	{0x8000, "TERMINAL_SERVER_AWARE"},
}

// CharacteristicsNames renders file-header characteristics as a space-joined
// flag list in declaration order.
func CharacteristicsNames(v uint16) string {
	return joinFlags(uint32(v), characteristicsFlags)
}

// DLLCharacteristicsNames renders optional-header DLL characteristics as a
// space-joined flag list in declaration order.
func DLLCharacteristicsNames(v uint16) string {
	return joinFlags(uint32(v), dllCharacteristicsFlags)
}

func joinFlags(v uint32, table []flagName) string {
	var names []string
	for _, f := range table {
		if v&f.bit != 0 {
			names = append(names, f.name)
		}
	}
	return strings.Join(names, " ")
}

var machineNames = map[uint16]string{
	0x0000: "UNKNOWN",
	0x014c: "I386",
	0x0162: "R3000",
	0x0166: "R4000",
	0x0168: "R10000",
	0x01a2: "SH3",
	0x01a6: "SH4",
	0x01c0: "ARM",
	0x01c4: "ARMNT",
	0x0200: "IA64",
	0x0266: "MIPS16",
	0x0366: "MIPSFPU",
	0x0466: "MIPSFPU16",
	0x01f0: "POWERPC",
	0x01f1: "POWERPCFP",
	0x0ebc: "EBC",
	0x5032: "RISCV32",
	0x5064: "RISCV64",
	0x8664: "AMD64",
	0xaa64: "ARM64",
}

// MachineName returns the symbolic machine-type name.
func MachineName(v uint16) string {
	if n, ok := machineNames[v]; ok {
		return n
	}
	return fmt.Sprintf("UNKNOWN(0x%X)", v)
}

var subsystemNames = map[uint16]string{
	0:  "UNKNOWN",
	1:  "NATIVE",
	2:  "WINDOWS_GUI",
	3:  "WINDOWS_CUI",
	5:  "OS2_CUI",
	7:  "POSIX_CUI",
	8:  "NATIVE_WINDOWS",
	9:  "WINDOWS_CE_GUI",
	10: "EFI_APPLICATION",
	11: "EFI_BOOT_SERVICE_DRIVER",
	12: "EFI_RUNTIME_DRIVER",
	13: "EFI_ROM",
	14: "XBOX",
	16: "WINDOWS_BOOT_APPLICATION",
}

// SubsystemName returns the symbolic subsystem name.
func SubsystemName(v uint16) string {
	if n, ok := subsystemNames[v]; ok {
		return n
	}
	return fmt.Sprintf("UNKNOWN(0x%X)", v)
}

// Optional-header magic values.
const (
	MagicPE32     = 0x10b
	MagicPE32Plus = 0x20b
)

// MagicName returns the symbolic optional-header magic name.
func MagicName(v uint16) string {
	switch v {
	case MagicPE32:
		return "PE32"
	case MagicPE32Plus:
		return "PE32_PLUS"
	default:
		return fmt.Sprintf("UNKNOWN(0x%X)", v)
	}
}
