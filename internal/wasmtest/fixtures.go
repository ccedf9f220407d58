package wasmtest

import "encoding/binary"

func typeSection(types ...[]byte) []byte {
	return Section(secType, Vec(types...))
}

func funcSection(typeIdxs ...uint32) []byte {
	items := make([][]byte, len(typeIdxs))
	for i, idx := range typeIdxs {
		items[i] = U32(idx)
	}
	return Section(secFunction, Vec(items...))
}

func exportSection(exports ...[]byte) []byte {
	return Section(secExport, Vec(exports...))
}

func codeSection(bodies ...[]byte) []byte {
	return Section(secCode, Vec(bodies...))
}

func mutableI32Global(initial int32) []byte {
	return concat([]byte{I32, 0x01}, I32Const(initial), []byte{opEnd})
}

// singleMain builds a module whose only export is main of the given type.
func singleMain(params, results []byte, instrs ...[]byte) []byte {
	return Module(
		typeSection(FuncType(params, results)),
		funcSection(0),
		exportSection(Export("main", KindFunc, 0)),
		codeSection(Body(instrs...)),
	)
}

// MainReturnsI32 exports main() -> i32 returning v.
func MainReturnsI32(v int32) []byte {
	return singleMain(nil, []byte{I32}, I32Const(v))
}

// MainReturnsI64 exports main() -> i64 returning v.
func MainReturnsI64(v int64) []byte {
	return singleMain(nil, []byte{I64}, I64Const(v))
}

// MainReturnsF64 exports main() -> f64 returning v.
func MainReturnsF64(v float64) []byte {
	return singleMain(nil, []byte{F64}, F64Const(v))
}

// MainNoResult exports main() with no results.
func MainNoResult() []byte {
	return singleMain(nil, nil)
}

// MainWithParams exports main(i32, i32) -> i32 returning 5 + a + b.
func MainWithParams() []byte {
	return singleMain([]byte{I32, I32}, []byte{I32},
		I32Const(5), LocalGet(0), I32Add(), LocalGet(1), I32Add())
}

// MainTraps exports main() -> i32 that hits unreachable.
func MainTraps() []byte {
	return singleMain(nil, []byte{I32}, Unreachable())
}

// MainDividesByZero exports main() -> i32 computing 1 / 0.
func MainDividesByZero() []byte {
	return singleMain(nil, []byte{I32}, I32Const(1), I32Const(0), I32DivS())
}

// Library exports add(i32, i32) -> i32 and a memory, but no main.
func Library() []byte {
	return Module(
		typeSection(FuncType([]byte{I32, I32}, []byte{I32})),
		funcSection(0),
		Section(secMemory, Vec([]byte{0x00, 0x01})),
		exportSection(
			Export("add", KindFunc, 0),
			Export("memory", KindMemory, 0),
		),
		codeSection(Body(LocalGet(0), LocalGet(1), I32Add())),
	)
}

// MixedExports exports, in order: memory, counter (mutable i32 global
// initialized to 7), main (returns counter) and table.
func MixedExports() []byte {
	return Module(
		typeSection(FuncType(nil, []byte{I32})),
		funcSection(0),
		Section(secTable, Vec([]byte{Funcref, 0x00, 0x01})),
		Section(secMemory, Vec([]byte{0x00, 0x01})),
		Section(secGlobal, Vec(mutableI32Global(7))),
		exportSection(
			Export("memory", KindMemory, 0),
			Export("counter", KindGlobal, 0),
			Export("main", KindFunc, 0),
			Export("table", KindTable, 0),
		),
		codeSection(Body(GlobalGet(0))),
	)
}

// MainIsGlobal exports an immutable i32 global named main.
func MainIsGlobal() []byte {
	return Module(
		Section(secGlobal, Vec(concat([]byte{I32, 0x00}, I32Const(42), []byte{opEnd}))),
		exportSection(Export("main", KindGlobal, 0)),
	)
}

// Counter exports main() -> i32 that increments a global starting at 0 and
// returns the new value. Every fresh instance returns 1 on its first call.
func Counter() []byte {
	return Module(
		typeSection(FuncType(nil, []byte{I32})),
		funcSection(0),
		Section(secGlobal, Vec(mutableI32Global(0))),
		exportSection(Export("main", KindFunc, 0)),
		codeSection(Body(GlobalGet(0), I32Const(1), I32Add(), GlobalSet(0), GlobalGet(0))),
	)
}

// RequiresImports imports each name from env as a func () -> () and exports
// main () -> () with an empty body.
func RequiresImports(names ...string) []byte {
	imports := make([][]byte, len(names))
	for i, n := range names {
		imports[i] = ImportFunc("env", n, 0)
	}
	return Module(
		typeSection(FuncType(nil, nil)),
		Section(secImport, Vec(imports...)),
		funcSection(0),
		exportSection(Export("main", KindFunc, uint32(len(names)))),
		codeSection(Body()),
	)
}

// RequiresMemory imports env.memory.
func RequiresMemory() []byte {
	return Module(
		Section(secImport, Vec(ImportMemory("env", "memory", 1))),
	)
}

// CallsHost imports env.get_value () -> i32 and exports main () -> i32
// returning get_value() + 1.
func CallsHost() []byte {
	return Module(
		typeSection(FuncType(nil, []byte{I32})),
		Section(secImport, Vec(ImportFunc("env", "get_value", 0))),
		funcSection(0),
		exportSection(Export("main", KindFunc, 1)),
		codeSection(Body(Call(0), I32Const(1), I32Add())),
	)
}

// ReexportsHost imports env.get_value () -> i32 and exports, in order, the
// import itself as get_value and main () -> i32 returning get_value() + 1.
func ReexportsHost() []byte {
	return Module(
		typeSection(FuncType(nil, []byte{I32})),
		Section(secImport, Vec(ImportFunc("env", "get_value", 0))),
		funcSection(0),
		exportSection(
			Export("get_value", KindFunc, 0),
			Export("main", KindFunc, 1),
		),
		codeSection(Body(Call(0), I32Const(1), I32Add())),
	)
}

// ReexportsWASI imports wasi_snapshot_preview1.proc_exit (i32) -> () and
// exports it as exit. It has no main.
func ReexportsWASI() []byte {
	return Module(
		typeSection(FuncType([]byte{I32}, nil)),
		Section(secImport, Vec(ImportFunc("wasi_snapshot_preview1", "proc_exit", 0))),
		exportSection(Export("exit", KindFunc, 0)),
	)
}

// WritesStdout exports memory and main () -> i32, which writes text to fd 1
// with wasi fd_write and returns its errno.
func WritesStdout(text string) []byte {
	iovec := binary.LittleEndian.AppendUint32(nil, 16)
	iovec = binary.LittleEndian.AppendUint32(iovec, uint32(len(text)))
	return Module(
		typeSection(
			FuncType([]byte{I32, I32, I32, I32}, []byte{I32}),
			FuncType(nil, []byte{I32}),
		),
		Section(secImport, Vec(ImportFunc("wasi_snapshot_preview1", "fd_write", 0))),
		funcSection(1),
		Section(secMemory, Vec([]byte{0x00, 0x01})),
		exportSection(
			Export("memory", KindMemory, 0),
			Export("main", KindFunc, 1),
		),
		codeSection(Body(I32Const(1), I32Const(0), I32Const(1), I32Const(8), Call(0))),
		Section(secData, Vec(Data(0, iovec), Data(16, []byte(text)))),
	)
}

// StartTraps has a start function that hits unreachable.
func StartTraps() []byte {
	return Module(
		typeSection(FuncType(nil, nil)),
		funcSection(0),
		exportSection(Export("main", KindFunc, 0)),
		Section(secStart, U32(0)),
		codeSection(Body(Unreachable())),
	)
}

// Truncated is a header cut short.
func Truncated() []byte {
	return append([]byte{}, header[:6]...)
}

// BadMagic has a corrupted magic number.
func BadMagic() []byte {
	return []byte{0x00, 0x61, 0x73, 0x6e, 0x01, 0x00, 0x00, 0x00}
}
