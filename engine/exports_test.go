package engine

import (
	"context"
	"math"
	"testing"
)

func TestExports_OrderAndLookup(t *testing.T) {
	exports := NewExports(
		NewTable("t"),
		NewFunction("main", nil, []ValueType{ValueTypeI32}, nil),
		NewMemory("memory", func() uint32 { return 2 * 65536 }),
		NewFunction("main", nil, nil, nil), // duplicate dropped
	)

	if got := exports.Names(); len(got) != 3 || got[0] != "t" || got[1] != "main" || got[2] != "memory" {
		t.Errorf("Names() = %v, want [t main memory]", got)
	}

	if _, ok := exports.Function("main"); !ok {
		t.Error("Function(main) should find the function")
	}
	if _, ok := exports.Function("memory"); ok {
		t.Error("Function(memory) should not match a memory export")
	}
	if _, ok := exports.Lookup("missing"); ok {
		t.Error("Lookup(missing) should fail")
	}

	x, _ := exports.Lookup("memory")
	if mem, ok := x.(*Memory); !ok || mem.Pages() != 2 {
		t.Errorf("memory export = %#v, want 2 pages", x)
	}
}

func TestExports_Nil(t *testing.T) {
	var exports *Exports
	if exports.Len() != 0 || exports.Names() != nil || exports.All() != nil {
		t.Error("nil Exports should be empty")
	}
	if _, ok := exports.Function("main"); ok {
		t.Error("nil Exports should have no functions")
	}
}

func TestFunction_Call(t *testing.T) {
	ctx := context.Background()

	var got []uint64
	fn := NewFunction("f", []ValueType{ValueTypeI32, ValueTypeF64}, []ValueType{ValueTypeI64},
		func(_ context.Context, params []uint64) ([]uint64, error) {
			got = params
			return []uint64{99}, nil
		})

	if fn.Arity() != 2 {
		t.Errorf("Arity() = %d, want 2", fn.Arity())
	}
	if fn.Signature() != "(i32, f64) -> i64" {
		t.Errorf("Signature() = %q", fn.Signature())
	}

	results, err := fn.Call(ctx, I32(-1))
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if len(got) != 2 || got[0] != uint64(math.MaxUint32) || got[1] != 0 {
		t.Errorf("params = %v, want [0xffffffff 0]", got)
	}
	if len(results) != 1 || results[0].Interface() != int64(99) {
		t.Errorf("results = %v, want [99]", results)
	}
}

func TestFunction_CallCleanExit(t *testing.T) {
	fn := NewFunction("f", nil, []ValueType{ValueTypeI32},
		func(context.Context, []uint64) ([]uint64, error) { return nil, nil })

	results, err := fn.Call(context.Background())
	if err != nil || results != nil {
		t.Errorf("Call() = %v, %v; want nil, nil", results, err)
	}
}

func TestSignature(t *testing.T) {
	tests := []struct {
		fn   *Function
		want string
	}{
		{NewFunction("a", nil, nil, nil), "() -> ()"},
		{NewFunction("b", []ValueType{ValueTypeI64}, []ValueType{ValueTypeF32}, nil), "(i64) -> f32"},
		{NewFunction("c", nil, []ValueType{ValueTypeI32, ValueTypeI32}, nil), "() -> (i32, i32)"},
	}
	for _, tc := range tests {
		if got := tc.fn.Signature(); got != tc.want {
			t.Errorf("%s: Signature() = %q, want %q", tc.fn.Name(), got, tc.want)
		}
	}
}

func TestGlobal_Value(t *testing.T) {
	g := NewGlobal("g", ValueTypeF64, false, func() uint64 { return math.Float64bits(1.5) })
	if g.Value().Interface() != 1.5 {
		t.Errorf("Value() = %v, want 1.5", g.Value())
	}
	if g.Mutable() {
		t.Error("global should be immutable")
	}
}

func TestImportObject(t *testing.T) {
	var imports ImportObject
	if imports.Has("env", "f") {
		t.Error("empty import object should have nothing")
	}

	imports = imports.Define("env", "f", HostFunc{Fn: func(context.Context, []uint64) {}})
	if !imports.Has("env", "f") {
		t.Error("Define should add env#f")
	}
	if imports.Has("env", "g") || imports.Has("other", "f") {
		t.Error("Has should not match other names")
	}
}
