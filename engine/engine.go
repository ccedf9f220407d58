package engine

import (
	"context"

	"github.com/wippyai/wasm-loader/wasm"
)

// Engine compiles and instantiates core WebAssembly modules. The engine owns
// all validation and execution; callers only see the results.
type Engine interface {
	// Compile validates and compiles a module binary.
	Compile(ctx context.Context, binary []byte) (Module, error)

	// Instantiate links mod against imports and runs its start function.
	Instantiate(ctx context.Context, mod Module, imports ImportObject) (Instance, error)

	Close(ctx context.Context) error
}

// Module is a compiled, immutable module.
type Module interface {
	// Imports lists what the module requires, in declaration order.
	Imports() []wasm.Import
	Close(ctx context.Context) error
}

// Instance is a linked, runnable module.
type Instance interface {
	Exports() *Exports
	Close(ctx context.Context) error
}

// HostFunc is a function the host supplies to satisfy a function import.
// Fn reads its parameters from stack and writes its results back to it.
type HostFunc struct {
	Fn      func(ctx context.Context, stack []uint64)
	Params  []ValueType
	Results []ValueType
}

// ImportObject maps module namespace, then name, to the host function
// satisfying that import. The zero value is the empty import object.
type ImportObject map[string]map[string]HostFunc

// Define adds a host function and returns the (possibly newly allocated)
// import object.
func (o ImportObject) Define(module, name string, fn HostFunc) ImportObject {
	if o == nil {
		o = make(ImportObject)
	}
	ns, ok := o[module]
	if !ok {
		ns = make(map[string]HostFunc)
		o[module] = ns
	}
	ns[name] = fn
	return o
}

// Has reports whether module#name is defined.
func (o ImportObject) Has(module, name string) bool {
	_, ok := o[module][name]
	return ok
}
