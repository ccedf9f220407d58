// Package wasmtest assembles small core modules for tests.
package wasmtest

import (
	"encoding/binary"
	"math"
)

// Section IDs
const (
	secType     = 1
	secImport   = 2
	secFunction = 3
	secTable    = 4
	secMemory   = 5
	secGlobal   = 6
	secExport   = 7
	secStart    = 8
	secCode     = 10
	secData     = 11
)

// Value types and opcodes used by the fixtures
const (
	I32     byte = 0x7f
	I64     byte = 0x7e
	F32     byte = 0x7d
	F64     byte = 0x7c
	Funcref byte = 0x70

	opUnreachable byte = 0x00
	opEnd         byte = 0x0b
	opLocalGet    byte = 0x20
	opGlobalGet   byte = 0x23
	opGlobalSet   byte = 0x24
	opI32Const    byte = 0x41
	opI64Const    byte = 0x42
	opF64Const    byte = 0x44
	opI32Add      byte = 0x6a
	opI32DivS     byte = 0x6d
	opCall        byte = 0x10
)

// Export kinds
const (
	KindFunc   byte = 0
	KindTable  byte = 1
	KindMemory byte = 2
	KindGlobal byte = 3
)

var header = []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

// Module concatenates the header and sections.
func Module(sections ...[]byte) []byte {
	out := append([]byte{}, header...)
	for _, s := range sections {
		out = append(out, s...)
	}
	return out
}

// Section prefixes body with its id and size.
func Section(id byte, body ...[]byte) []byte {
	content := concat(body...)
	out := []byte{id}
	out = append(out, U32(uint32(len(content)))...)
	return append(out, content...)
}

// Vec encodes a counted vector of already-encoded items.
func Vec(items ...[]byte) []byte {
	return append(U32(uint32(len(items))), concat(items...)...)
}

// Name encodes a length-prefixed UTF-8 name.
func Name(s string) []byte {
	return append(U32(uint32(len(s))), s...)
}

// U32 encodes v as unsigned LEB128.
func U32(v uint32) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			out = append(out, b|0x80)
			continue
		}
		return append(out, b)
	}
}

// S64 encodes v as signed LEB128.
func S64(v int64) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0) {
			return append(out, b)
		}
		out = append(out, b|0x80)
	}
}

// FuncType encodes a function type.
func FuncType(params, results []byte) []byte {
	out := []byte{0x60}
	out = append(out, U32(uint32(len(params)))...)
	out = append(out, params...)
	out = append(out, U32(uint32(len(results)))...)
	return append(out, results...)
}

// Body encodes a function body without locals; the end opcode is appended.
func Body(instrs ...[]byte) []byte {
	code := append([]byte{0x00}, concat(instrs...)...)
	code = append(code, opEnd)
	return append(U32(uint32(len(code))), code...)
}

func Export(name string, kind byte, idx uint32) []byte {
	return concat(Name(name), []byte{kind}, U32(idx))
}

func ImportFunc(module, name string, typeIdx uint32) []byte {
	return concat(Name(module), Name(name), []byte{KindFunc}, U32(typeIdx))
}

func ImportMemory(module, name string, minPages uint32) []byte {
	return concat(Name(module), Name(name), []byte{KindMemory, 0x00}, U32(minPages))
}

// Data encodes an active data segment for memory 0 at a constant offset.
func Data(offset int32, bytes []byte) []byte {
	return concat([]byte{0x00}, I32Const(offset), []byte{opEnd}, U32(uint32(len(bytes))), bytes)
}

// Instructions

func I32Const(v int32) []byte    { return append([]byte{opI32Const}, S64(int64(v))...) }
func I64Const(v int64) []byte    { return append([]byte{opI64Const}, S64(v)...) }
func LocalGet(idx uint32) []byte { return append([]byte{opLocalGet}, U32(idx)...) }
func GlobalGet(idx uint32) []byte {
	return append([]byte{opGlobalGet}, U32(idx)...)
}
func GlobalSet(idx uint32) []byte {
	return append([]byte{opGlobalSet}, U32(idx)...)
}
func Call(idx uint32) []byte { return append([]byte{opCall}, U32(idx)...) }

func F64Const(v float64) []byte {
	out := []byte{opF64Const}
	return binary.LittleEndian.AppendUint64(out, math.Float64bits(v))
}

func Unreachable() []byte { return []byte{opUnreachable} }
func I32Add() []byte      { return []byte{opI32Add} }
func I32DivS() []byte     { return []byte{opI32DivS} }

func concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
