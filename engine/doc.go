// Package engine is the host WebAssembly engine used by the loader.
//
// The Engine interface is the whole contract: compile bytes into a Module,
// instantiate a Module against an ImportObject, and read the resulting
// Instance's Exports. WazeroEngine implements it on top of wazero; tests can
// substitute any other implementation.
//
// # Instantiation Flow
//
//  1. Engine.Compile validates the binary and records its imports and exports
//  2. Engine.Instantiate checks every import against the ImportObject and
//     fails with a link error listing all unresolved ones
//  3. Host functions are registered as one host module per namespace
//  4. The module is instantiated anonymously and its start function runs
//  5. Instance.Exports lists exports in declaration order
//
// # Exports
//
// Exports are a tagged union. Use a type switch or the typed lookup:
//
//	if fn, ok := inst.Exports().Function("main"); ok {
//	    results, err := fn.Call(ctx)
//	}
//
// Function.Call passes zero for trailing parameters without an argument.
//
// # Errors
//
// Every failure is an *errors.Error: compilation at PhaseCompile, missing
// imports at PhaseLink, start function traps at PhaseInstantiate and call
// traps at PhaseInvoke.
//
// # Thread Safety
//
// WazeroEngine is safe for concurrent compilation. Instances are NOT
// thread-safe, and instances importing the same host namespace must not be
// alive at the same time.
package engine
