package wasm

// WebAssembly binary format magic number and version.
const (
	// Magic is the WebAssembly binary magic number ("\0asm" in little-endian).
	Magic uint32 = 0x6D736100

	// Version is the supported WebAssembly binary format version.
	Version uint32 = 0x01
)

// Section IDs the scanner cares about. Every other section is skipped by size.
const (
	SectionCustom byte = 0
	SectionImport byte = 2
	SectionExport byte = 7
)

// ExternKind identifies the type of an imported or exported item.
type ExternKind byte

const (
	KindFunc   ExternKind = 0
	KindTable  ExternKind = 1
	KindMemory ExternKind = 2
	KindGlobal ExternKind = 3
	KindTag    ExternKind = 4 // exception handling
)

func (k ExternKind) String() string {
	switch k {
	case KindFunc:
		return "func"
	case KindTable:
		return "table"
	case KindMemory:
		return "memory"
	case KindGlobal:
		return "global"
	case KindTag:
		return "tag"
	default:
		return "unknown"
	}
}

// Reference types with a trailing heap type (typed function references / GC).
const (
	refNullable    byte = 0x63
	refNonNullable byte = 0x64
)

// Limits flags
const (
	limitsHasMax   byte = 0x01
	limitsMemory64 byte = 0x04
)
