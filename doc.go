// Package wasmloader loads a WebAssembly module from disk, instantiates it
// with an empty import object and invokes its main export.
//
// # Architecture Overview
//
//	wasmloader/          Root package with the one-call Run helper
//	├── loader/          Read, compile, instantiate, report, invoke; safe and strict modes
//	├── engine/          wazero integration: compilation, linking, typed exports
//	├── wasm/            Import and export section scanner (declaration order)
//	├── errors/          Structured errors by phase and kind, with traces
//	├── internal/wasmtest/ Hand-assembled test modules
//	└── cmd/run/         Command line runner and interactive explorer
//
// # Quick Start
//
// Run output.wasm from the working directory in safe mode:
//
//	res, err := wasmloader.Run(ctx, loader.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err) // engine setup failed
//	}
//	// stdout: WASM exports: [memory main]
//	//         Result: 42
//
// In safe mode a failed run prints "Error: ..." and "Stack: ..." to stderr
// and res is nil. In strict mode the failure panics.
//
// # Errors
//
// Every failure is an *errors.Error tagged with the phase it happened in:
//
//   - read: the binary could not be read (file_access)
//   - compile: the bytes are not a valid module (compilation)
//   - link: an import is missing from the import object (link)
//   - instantiate, invoke: the guest trapped (runtime_trap)
//
// # Host Imports
//
// The default import object is empty. Supply host functions with
// loader.WithImports:
//
//	imports := engine.ImportObject(nil).Define("env", "add", engine.HostFunc{
//	    Params:  []engine.ValueType{engine.ValueTypeI32, engine.ValueTypeI32},
//	    Results: []engine.ValueType{engine.ValueTypeI32},
//	    Fn: func(ctx context.Context, stack []uint64) {
//	        stack[0] = uint64(uint32(stack[0]) + uint32(stack[1]))
//	    },
//	})
//	wasmloader.Run(ctx, loader.DefaultConfig(), loader.WithImports(imports))
package wasmloader
