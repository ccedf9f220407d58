package engine

import "testing"

func TestValue_String(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{I32(42), "42"},
		{I32(-1), "-1"},
		{I64(-1 << 40), "-1099511627776"},
		{F32(0.5), "0.5"},
		{F64(3.25), "3.25"},
		{Value{Type: ValueTypeExternref, Bits: 16}, "externref(0x10)"},
	}
	for _, tc := range tests {
		if got := tc.v.String(); got != tc.want {
			t.Errorf("%s value String() = %q, want %q", tc.v.Type, got, tc.want)
		}
	}
}

func TestValueType_String(t *testing.T) {
	if ValueTypeV128.String() != "v128" {
		t.Errorf("v128 = %q", ValueTypeV128.String())
	}
	if ValueType(0x01).String() != "unknown(0x01)" {
		t.Errorf("unknown = %q", ValueType(0x01).String())
	}
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		typ     ValueType
		text    string
		want    any
		wantErr bool
	}{
		{ValueTypeI32, "7", int32(7), false},
		{ValueTypeI32, "0x10", int32(16), false},
		{ValueTypeI32, "4294967296", nil, true},
		{ValueTypeI32, "0xffffffff", int32(-1), false},
		{ValueTypeI32, "4294967295", int32(-1), false},
		{ValueTypeI32, "2147483648", int32(-2147483648), false},
		{ValueTypeI32, "-2147483649", nil, true},
		{ValueTypeI64, "-9", int64(-9), false},
		{ValueTypeI64, "0xffffffffffffffff", int64(-1), false},
		{ValueTypeI64, "18446744073709551616", nil, true},
		{ValueTypeF32, "1.5", float32(1.5), false},
		{ValueTypeF64, "abc", nil, true},
		{ValueTypeFuncref, "0", nil, true},
	}
	for _, tc := range tests {
		v, err := ParseValue(tc.typ, tc.text)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseValue(%s, %q) should fail", tc.typ, tc.text)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseValue(%s, %q): %v", tc.typ, tc.text, err)
			continue
		}
		if v.Interface() != tc.want {
			t.Errorf("ParseValue(%s, %q) = %v, want %v", tc.typ, tc.text, v.Interface(), tc.want)
		}
	}
}
