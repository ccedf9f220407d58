// Package wasm scans the import and export sections of a WebAssembly binary.
//
// The engine validates and compiles modules; this package only recovers what
// the engine does not expose in order. wazero reports exports as maps, so the
// declaration order of exports, and exported globals and tables, come from
// here:
//
//	iface, err := wasm.ReadInterface(data)
//	for _, e := range iface.Exports {
//	    fmt.Println(e.Name, e.Kind)
//	}
//
// All sections other than import and export are skipped by size.
package wasm
