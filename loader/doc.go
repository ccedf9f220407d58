// Package loader loads a WebAssembly binary from disk, instantiates it and
// invokes its main export.
//
// A run is a single ordered pipeline:
//
//  1. read the binary (default output.wasm in the working directory)
//  2. compile it with the engine
//  3. instantiate it against the import object (empty by default)
//  4. print the export names in declaration order
//  5. if main is an exported function, call it with no arguments and print
//     the result
//
// RunOnce returns the outcome as (*Result, error). Two thin callers decide
// what a failure does:
//
//	l := loader.New(eng)
//	l.RunSafe(ctx)   // prints "Error: ..." and "Stack: ..." to stderr
//	l.RunStrict(ctx) // panics with the *errors.Error
//
// Output on success:
//
//	WASM exports: [memory main]
//	Result: 42
//
// Nothing is cached between runs; each run compiles and instantiates afresh
// and closes what it created before returning.
package loader
