// Package errors provides structured error types for the wasm-loader module.
//
// Errors are categorized by Phase (which pipeline step failed) and Kind (error
// category). The four kinds a run can end with are:
//
//	file_access   the binary is missing or unreadable
//	compilation   the engine rejected the bytes as a module
//	link          the module requires imports the import object lacks
//	runtime_trap  guest code trapped in the start function or an export
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseInvoke, errors.KindRuntimeTrap).
//		Path("main").
//		Detail("integer divide by zero").
//		Build()
//
// Or use convenience constructors:
//
//	err := errors.FileAccess("output.wasm", cause)
//	err := errors.Link(missing, nil)
//
// Kind-only sentinels (ErrFileAccess, ErrCompilation, ErrLink, ErrRuntimeTrap)
// work with the standard errors.Is. Trace renders the cause chain together with
// any wasm stack trace attached by the engine.
package errors
