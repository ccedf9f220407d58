package engine

import (
	"fmt"
	"strconv"

	"github.com/tetratelabs/wazero/api"
)

// ValueType is a core WebAssembly value type. The encoding matches the
// binary format (and wazero's api.ValueType).
type ValueType byte

const (
	ValueTypeI32       ValueType = 0x7f
	ValueTypeI64       ValueType = 0x7e
	ValueTypeF32       ValueType = 0x7d
	ValueTypeF64       ValueType = 0x7c
	ValueTypeV128      ValueType = 0x7b
	ValueTypeFuncref   ValueType = 0x70
	ValueTypeExternref ValueType = 0x6f
)

func (t ValueType) String() string {
	switch t {
	case ValueTypeI32:
		return "i32"
	case ValueTypeI64:
		return "i64"
	case ValueTypeF32:
		return "f32"
	case ValueTypeF64:
		return "f64"
	case ValueTypeV128:
		return "v128"
	case ValueTypeFuncref:
		return "funcref"
	case ValueTypeExternref:
		return "externref"
	default:
		return fmt.Sprintf("unknown(0x%02x)", byte(t))
	}
}

func fromAPITypes(in []api.ValueType) []ValueType {
	if len(in) == 0 {
		return nil
	}
	out := make([]ValueType, len(in))
	for i, t := range in {
		out[i] = ValueType(t)
	}
	return out
}

func toAPITypes(in []ValueType) []api.ValueType {
	if len(in) == 0 {
		return nil
	}
	out := make([]api.ValueType, len(in))
	for i, t := range in {
		out[i] = api.ValueType(t)
	}
	return out
}

// Value is a typed core value as it sits on the engine's stack.
type Value struct {
	Type ValueType
	Bits uint64
}

func I32(v int32) Value {
	return Value{Type: ValueTypeI32, Bits: api.EncodeI32(v)}
}

func I64(v int64) Value {
	return Value{Type: ValueTypeI64, Bits: api.EncodeI64(v)}
}

func F32(v float32) Value {
	return Value{Type: ValueTypeF32, Bits: api.EncodeF32(v)}
}

func F64(v float64) Value {
	return Value{Type: ValueTypeF64, Bits: api.EncodeF64(v)}
}

// Interface decodes the value into the matching Go type: int32, int64,
// float32 or float64. Reference types decode to their raw uint64.
func (v Value) Interface() any {
	switch v.Type {
	case ValueTypeI32:
		return api.DecodeI32(v.Bits)
	case ValueTypeI64:
		return int64(v.Bits)
	case ValueTypeF32:
		return api.DecodeF32(v.Bits)
	case ValueTypeF64:
		return api.DecodeF64(v.Bits)
	default:
		return v.Bits
	}
}

func (v Value) String() string {
	switch x := v.Interface().(type) {
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	default:
		return fmt.Sprintf("%s(0x%x)", v.Type, v.Bits)
	}
}

// ParseValue parses text as a value of type t. Integers accept the signed
// range or, as a bit pattern, the unsigned one: "0xffffffff" is i32 -1.
func ParseValue(t ValueType, text string) (Value, error) {
	switch t {
	case ValueTypeI32:
		n, err := strconv.ParseInt(text, 0, 32)
		if err != nil {
			u, uerr := strconv.ParseUint(text, 0, 32)
			if uerr != nil {
				return Value{}, err
			}
			n = int64(int32(uint32(u)))
		}
		return I32(int32(n)), nil
	case ValueTypeI64:
		n, err := strconv.ParseInt(text, 0, 64)
		if err != nil {
			u, uerr := strconv.ParseUint(text, 0, 64)
			if uerr != nil {
				return Value{}, err
			}
			n = int64(u)
		}
		return I64(n), nil
	case ValueTypeF32:
		f, err := strconv.ParseFloat(text, 32)
		if err != nil {
			return Value{}, err
		}
		return F32(float32(f)), nil
	case ValueTypeF64:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return Value{}, err
		}
		return F64(f), nil
	default:
		return Value{}, fmt.Errorf("cannot parse %s values", t)
	}
}
