package wasm

import (
	"errors"
	"io"
	"testing"

	"github.com/wippyai/wasm-loader/internal/wasmtest"
)

func TestReadInterface_Exports(t *testing.T) {
	iface, err := ReadInterface(wasmtest.MixedExports())
	if err != nil {
		t.Fatalf("ReadInterface: %v", err)
	}

	want := []Export{
		{Name: "memory", Kind: KindMemory, Index: 0},
		{Name: "counter", Kind: KindGlobal, Index: 0},
		{Name: "main", Kind: KindFunc, Index: 0},
		{Name: "table", Kind: KindTable, Index: 0},
	}
	if len(iface.Exports) != len(want) {
		t.Fatalf("got %d exports, want %d", len(iface.Exports), len(want))
	}
	for i, w := range want {
		if iface.Exports[i] != w {
			t.Errorf("export %d = %+v, want %+v", i, iface.Exports[i], w)
		}
	}
	if len(iface.Imports) != 0 {
		t.Errorf("imports = %v, want none", iface.Imports)
	}

	if e, ok := iface.Export("main"); !ok || e.Kind != KindFunc {
		t.Errorf("Export(main) = %+v, %v", e, ok)
	}
	if _, ok := iface.Export("missing"); ok {
		t.Error("Export(missing) should fail")
	}
}

func TestReadInterface_Imports(t *testing.T) {
	iface, err := ReadInterface(wasmtest.RequiresImports("log", "abort"))
	if err != nil {
		t.Fatalf("ReadInterface: %v", err)
	}
	want := []Import{
		{Module: "env", Name: "log", Kind: KindFunc},
		{Module: "env", Name: "abort", Kind: KindFunc},
	}
	if len(iface.Imports) != len(want) {
		t.Fatalf("got %d imports, want %d", len(iface.Imports), len(want))
	}
	for i, w := range want {
		if iface.Imports[i] != w {
			t.Errorf("import %d = %+v, want %+v", i, iface.Imports[i], w)
		}
	}
	if len(iface.Exports) != 1 || iface.Exports[0].Index != 2 {
		t.Errorf("exports = %+v, want main at function index 2", iface.Exports)
	}
}

func TestReadInterface_ImportKinds(t *testing.T) {
	imports := wasmtest.Vec(
		wasmtest.ImportMemory("env", "memory", 1),
		// table: funcref, limits with max
		append(append(wasmtest.Name("env"), wasmtest.Name("table")...), 0x01, 0x70, 0x01, 0x01, 0x02),
		// global: mutable i64
		append(append(wasmtest.Name("env"), wasmtest.Name("g")...), 0x03, 0x7e, 0x01),
		// global: typed reference (ref null 0)
		append(append(wasmtest.Name("env"), wasmtest.Name("r")...), 0x03, 0x63, 0x00, 0x00),
		// memory64 with max
		append(append(wasmtest.Name("env"), wasmtest.Name("m64")...), 0x02, 0x05, 0x01, 0x02),
		wasmtest.ImportFunc("env", "f", 0),
	)
	binary := wasmtest.Module(wasmtest.Section(2, imports))

	iface, err := ReadInterface(binary)
	if err != nil {
		t.Fatalf("ReadInterface: %v", err)
	}
	kinds := []ExternKind{KindMemory, KindTable, KindGlobal, KindGlobal, KindMemory, KindFunc}
	if len(iface.Imports) != len(kinds) {
		t.Fatalf("got %d imports, want %d", len(iface.Imports), len(kinds))
	}
	for i, k := range kinds {
		if iface.Imports[i].Kind != k {
			t.Errorf("import %d kind = %s, want %s", i, iface.Imports[i].Kind, k)
		}
	}
	if iface.Imports[5].Name != "f" {
		t.Errorf("last import = %+v, want env#f", iface.Imports[5])
	}
}

func TestReadInterface_Errors(t *testing.T) {
	tests := []struct {
		name   string
		binary []byte
		target error
	}{
		{"empty", nil, io.ErrUnexpectedEOF},
		{"truncated header", wasmtest.Truncated(), io.ErrUnexpectedEOF},
		{"bad magic", wasmtest.BadMagic(), ErrInvalidMagic},
		{"bad version", []byte{0x00, 0x61, 0x73, 0x6d, 0x02, 0x00, 0x00, 0x00}, ErrInvalidVersion},
		{"section overruns", wasmtest.Module([]byte{7, 10, 0x01}), io.ErrUnexpectedEOF},
		{"bad export kind", wasmtest.Module(wasmtest.Section(7, wasmtest.Vec(wasmtest.Export("x", 9, 0)))), nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ReadInterface(tc.binary)
			if err == nil {
				t.Fatal("expected error")
			}
			if tc.target != nil && !errors.Is(err, tc.target) {
				t.Errorf("err = %v, want %v", err, tc.target)
			}
		})
	}
}

func TestReadInterface_ErrorPosition(t *testing.T) {
	// export section body claims one export but the name is cut short
	binary := wasmtest.Module([]byte{7, 3, 0x01, 0x05, 'm'})
	_, err := ReadInterface(binary)

	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want *ParseError", err)
	}
	if pe.Section != "export section" {
		t.Errorf("Section = %q, want export section", pe.Section)
	}
	if pe.Position != 12 {
		t.Errorf("Position = %d, want 12", pe.Position)
	}
}

func TestExternKind_String(t *testing.T) {
	if KindTag.String() != "tag" || ExternKind(9).String() != "unknown" {
		t.Errorf("unexpected kind names %q %q", KindTag.String(), ExternKind(9).String())
	}
}
