package wasm

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"
)

// ErrOverflow is returned when a LEB128 value exceeds the maximum size.
var ErrOverflow = errors.New("leb128: overflow")

// ParseError represents an error during scanning with position information.
type ParseError struct {
	Err      error
	Section  string
	Position int
}

func (e *ParseError) Error() string {
	if e.Section != "" {
		return fmt.Sprintf("wasm: %s at position %d: %v", e.Section, e.Position, e.Err)
	}
	return fmt.Sprintf("wasm: at position %d: %v", e.Position, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// reader walks a byte slice. Positions are absolute offsets into the binary
// so errors point at the same byte a hex dump would.
type reader struct {
	data []byte
	pos  int
	base int
}

func newReader(data []byte, base int) *reader {
	return &reader{data: data, base: base}
}

func (r *reader) offset() int {
	return r.base + r.pos
}

func (r *reader) done() bool {
	return r.pos >= len(r.data)
}

func (r *reader) wrap(section string, err error) error {
	return &ParseError{Section: section, Position: r.offset(), Err: err}
}

func (r *reader) readByte() (byte, error) {
	if r.pos >= len(r.data) {
		return 0, io.ErrUnexpectedEOF
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

func (r *reader) readBytes(n int) ([]byte, error) {
	if n < 0 || len(r.data)-r.pos < n {
		return nil, io.ErrUnexpectedEOF
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *reader) readU32LE() (uint32, error) {
	b, err := r.readBytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// readU32 reads an unsigned LEB128 encoded uint32.
func (r *reader) readU32() (uint32, error) {
	v, err := r.readLEB(35)
	return uint32(v), err
}

// readU64 reads an unsigned LEB128 encoded uint64.
func (r *reader) readU64() (uint64, error) {
	return r.readLEB(70)
}

// skipS33 skips a signed LEB128 heap type index.
func (r *reader) skipS33() error {
	_, err := r.readLEB(35)
	return err
}

func (r *reader) readLEB(maxShift uint) (uint64, error) {
	var result uint64
	var shift uint
	for {
		b, err := r.readByte()
		if err != nil {
			return 0, err
		}
		result |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return result, nil
		}
		shift += 7
		if shift >= maxShift {
			return 0, ErrOverflow
		}
	}
}

// readName reads a UTF-8 encoded name (length-prefixed byte sequence).
func (r *reader) readName() (string, error) {
	n, err := r.readU32()
	if err != nil {
		return "", err
	}
	b, err := r.readBytes(int(n))
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", errors.New("invalid UTF-8 in name")
	}
	return string(b), nil
}
