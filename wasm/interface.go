package wasm

import (
	"errors"
	"fmt"
)

// Scanning errors returned by ReadInterface.
var (
	ErrInvalidMagic   = errors.New("invalid wasm magic number")
	ErrInvalidVersion = errors.New("invalid wasm version")
)

// Import is a single entry of the import section
type Import struct {
	Module string
	Name   string
	Kind   ExternKind
}

// Export is a single entry of the export section
type Export struct {
	Name  string
	Kind  ExternKind
	Index uint32
}

// Interface is the import and export surface of a module, in declaration order.
type Interface struct {
	Imports []Import
	Exports []Export
}

// Export returns the export with the given name.
func (i *Interface) Export(name string) (Export, bool) {
	for _, e := range i.Exports {
		if e.Name == name {
			return e, true
		}
	}
	return Export{}, false
}

// ReadInterface scans a core module binary and decodes its import and export
// sections. It does not validate the module; run it on bytes the engine
// already accepted.
func ReadInterface(data []byte) (*Interface, error) {
	r := newReader(data, 0)

	magic, err := r.readU32LE()
	if err != nil {
		return nil, r.wrap("header", err)
	}
	if magic != Magic {
		return nil, ErrInvalidMagic
	}
	version, err := r.readU32LE()
	if err != nil {
		return nil, r.wrap("header", err)
	}
	if version != Version {
		return nil, ErrInvalidVersion
	}

	iface := &Interface{}
	for !r.done() {
		id, err := r.readByte()
		if err != nil {
			return nil, r.wrap("section header", err)
		}
		size, err := r.readU32()
		if err != nil {
			return nil, r.wrap("section size", err)
		}
		start := r.offset()
		body, err := r.readBytes(int(size))
		if err != nil {
			return nil, r.wrap("section data", err)
		}

		sr := newReader(body, start)
		switch id {
		case SectionImport:
			if iface.Imports, err = readImports(sr); err != nil {
				return nil, sr.wrap("import section", err)
			}
		case SectionExport:
			if iface.Exports, err = readExports(sr); err != nil {
				return nil, sr.wrap("export section", err)
			}
		}
	}
	return iface, nil
}

func readImports(r *reader) ([]Import, error) {
	count, err := r.readU32()
	if err != nil {
		return nil, err
	}
	imports := make([]Import, 0, count)
	for i := uint32(0); i < count; i++ {
		module, err := r.readName()
		if err != nil {
			return nil, err
		}
		name, err := r.readName()
		if err != nil {
			return nil, err
		}
		kind, err := r.readByte()
		if err != nil {
			return nil, err
		}
		if err := skipImportDesc(r, ExternKind(kind)); err != nil {
			return nil, err
		}
		imports = append(imports, Import{Module: module, Name: name, Kind: ExternKind(kind)})
	}
	return imports, nil
}

func skipImportDesc(r *reader, kind ExternKind) error {
	switch kind {
	case KindFunc:
		_, err := r.readU32()
		return err
	case KindTable:
		if err := skipRefType(r); err != nil {
			return err
		}
		return skipLimits(r)
	case KindMemory:
		return skipLimits(r)
	case KindGlobal:
		if err := skipRefType(r); err != nil {
			return err
		}
		_, err := r.readByte() // mutability
		return err
	case KindTag:
		if _, err := r.readByte(); err != nil { // attribute
			return err
		}
		_, err := r.readU32()
		return err
	default:
		return fmt.Errorf("invalid import kind: 0x%02x", byte(kind))
	}
}

// skipRefType skips a value or reference type, including the heap type
// trailing a typed reference.
func skipRefType(r *reader) error {
	b, err := r.readByte()
	if err != nil {
		return err
	}
	if b == refNullable || b == refNonNullable {
		return r.skipS33()
	}
	return nil
}

func skipLimits(r *reader) error {
	flags, err := r.readByte()
	if err != nil {
		return err
	}
	read := func() error {
		if flags&limitsMemory64 != 0 {
			_, err := r.readU64()
			return err
		}
		_, err := r.readU32()
		return err
	}
	if err := read(); err != nil {
		return err
	}
	if flags&limitsHasMax != 0 {
		return read()
	}
	return nil
}

func readExports(r *reader) ([]Export, error) {
	count, err := r.readU32()
	if err != nil {
		return nil, err
	}
	exports := make([]Export, 0, count)
	for i := uint32(0); i < count; i++ {
		name, err := r.readName()
		if err != nil {
			return nil, err
		}
		kind, err := r.readByte()
		if err != nil {
			return nil, err
		}
		if ExternKind(kind) > KindTag {
			return nil, fmt.Errorf("invalid export kind: 0x%02x", kind)
		}
		idx, err := r.readU32()
		if err != nil {
			return nil, err
		}
		exports = append(exports, Export{Name: name, Kind: ExternKind(kind), Index: idx})
	}
	return exports, nil
}
