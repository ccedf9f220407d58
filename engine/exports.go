package engine

import (
	"context"
	"strings"

	"github.com/wippyai/wasm-loader/errors"
)

// ExportKind tags the variant of an Export.
type ExportKind string

const (
	ExportFunction ExportKind = "func"
	ExportMemory   ExportKind = "memory"
	ExportGlobal   ExportKind = "global"
	ExportTable    ExportKind = "table"
)

// Export is one entry of an instance's exports: *Function, *Memory, *Global
// or *Table.
type Export interface {
	Name() string
	Kind() ExportKind
	export()
}

// CallFunc invokes a guest function with raw stack values.
type CallFunc func(ctx context.Context, params []uint64) ([]uint64, error)

// Function is an exported function.
type Function struct {
	call    CallFunc
	name    string
	params  []ValueType
	results []ValueType
}

// NewFunction describes an exported function backed by call.
func NewFunction(name string, params, results []ValueType, call CallFunc) *Function {
	return &Function{name: name, params: params, results: results, call: call}
}

func (f *Function) Name() string         { return f.name }
func (f *Function) Kind() ExportKind     { return ExportFunction }
func (f *Function) Params() []ValueType  { return f.params }
func (f *Function) Results() []ValueType { return f.results }
func (*Function) export()                {}

// Arity returns the number of declared parameters.
func (f *Function) Arity() int {
	return len(f.params)
}

// Signature renders the function type, e.g. "(i32, i32) -> i32".
func (f *Function) Signature() string {
	return "(" + joinTypes(f.params) + ") -> " + resultString(f.results)
}

// Call invokes the function. Trailing parameters without an argument are
// passed as zero; extra or mistyped arguments are rejected.
func (f *Function) Call(ctx context.Context, args ...Value) ([]Value, error) {
	if len(args) > len(f.params) {
		return nil, errors.New(errors.PhaseInvoke, errors.KindInvalidInput).
			Path(f.name).
			Detail("expected at most %d arguments, got %d", len(f.params), len(args)).
			Build()
	}

	stack := make([]uint64, len(f.params))
	for i, arg := range args {
		if arg.Type != f.params[i] {
			return nil, errors.New(errors.PhaseInvoke, errors.KindInvalidInput).
				Path(f.name).
				Detail("argument %d: expected %s, got %s", i, f.params[i], arg.Type).
				Build()
		}
		stack[i] = arg.Bits
	}

	raw, err := f.call(ctx, stack)
	if err != nil {
		return nil, err
	}

	// A guest that exits cleanly before returning produces no results.
	if len(raw) < len(f.results) {
		return nil, nil
	}
	out := make([]Value, len(f.results))
	for i, t := range f.results {
		out[i] = Value{Type: t, Bits: raw[i]}
	}
	return out, nil
}

// Memory is an exported linear memory.
type Memory struct {
	size func() uint32
	name string
}

// NewMemory describes an exported memory whose current size in bytes is
// reported by size.
func NewMemory(name string, size func() uint32) *Memory {
	return &Memory{name: name, size: size}
}

func (m *Memory) Name() string     { return m.name }
func (m *Memory) Kind() ExportKind { return ExportMemory }
func (*Memory) export()            {}

// Size returns the current size in bytes.
func (m *Memory) Size() uint32 {
	if m.size == nil {
		return 0
	}
	return m.size()
}

// Pages returns the current size in 64KiB pages.
func (m *Memory) Pages() uint32 {
	return m.Size() / 65536
}

// Global is an exported global.
type Global struct {
	get     func() uint64
	name    string
	typ     ValueType
	mutable bool
}

// NewGlobal describes an exported global whose current value is read by get.
func NewGlobal(name string, typ ValueType, mutable bool, get func() uint64) *Global {
	return &Global{name: name, typ: typ, mutable: mutable, get: get}
}

func (g *Global) Name() string     { return g.name }
func (g *Global) Kind() ExportKind { return ExportGlobal }
func (g *Global) Type() ValueType  { return g.typ }
func (g *Global) Mutable() bool    { return g.mutable }
func (*Global) export()            {}

func (g *Global) Value() Value {
	var bits uint64
	if g.get != nil {
		bits = g.get()
	}
	return Value{Type: g.typ, Bits: bits}
}

// Table is an exported table. The engine exposes no table operations, so
// only the name is known.
type Table struct {
	name string
}

func NewTable(name string) *Table {
	return &Table{name: name}
}

func (t *Table) Name() string     { return t.name }
func (t *Table) Kind() ExportKind { return ExportTable }
func (*Table) export()            {}

// Exports maps export names to exports, preserving declaration order.
type Exports struct {
	byName map[string]Export
	order  []Export
}

// NewExports builds an Exports in the given order. Later duplicates of a
// name are dropped.
func NewExports(list ...Export) *Exports {
	e := &Exports{
		byName: make(map[string]Export, len(list)),
		order:  make([]Export, 0, len(list)),
	}
	for _, x := range list {
		if _, dup := e.byName[x.Name()]; dup {
			continue
		}
		e.byName[x.Name()] = x
		e.order = append(e.order, x)
	}
	return e
}

func (e *Exports) Len() int {
	if e == nil {
		return 0
	}
	return len(e.order)
}

// All returns the exports in declaration order.
func (e *Exports) All() []Export {
	if e == nil {
		return nil
	}
	return e.order
}

// Names returns the export names in declaration order.
func (e *Exports) Names() []string {
	if e == nil {
		return nil
	}
	names := make([]string, len(e.order))
	for i, x := range e.order {
		names[i] = x.Name()
	}
	return names
}

func (e *Exports) Lookup(name string) (Export, bool) {
	if e == nil {
		return nil, false
	}
	x, ok := e.byName[name]
	return x, ok
}

// Function returns the export named name if it is a function.
func (e *Exports) Function(name string) (*Function, bool) {
	x, ok := e.Lookup(name)
	if !ok {
		return nil, false
	}
	fn, ok := x.(*Function)
	return fn, ok
}

func joinTypes(types []ValueType) string {
	parts := make([]string, len(types))
	for i, t := range types {
		parts[i] = t.String()
	}
	return strings.Join(parts, ", ")
}

func resultString(types []ValueType) string {
	switch len(types) {
	case 0:
		return "()"
	case 1:
		return types[0].String()
	default:
		return "(" + joinTypes(types) + ")"
	}
}
