package engine

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"github.com/tetratelabs/wazero/sys"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-loader/errors"
	"github.com/wippyai/wasm-loader/wasm"
)

// maxMemoryPages is the 4GiB ceiling of 32-bit linear memory.
const maxMemoryPages = 65536

// Substrings wazero uses when instantiation fails on import resolution
// rather than on guest code.
var linkErrorMarkers = []string{
	"not instantiated",
	"not exported",
	"signature mismatch",
}

// Config holds configuration for engine creation
type Config struct {
	// Stdout and Stderr receive guest output when WASI is enabled.
	// nil discards it.
	Stdout io.Writer
	Stderr io.Writer

	// MemoryLimitPages sets the maximum memory per instance in pages (64KB each).
	// 0 means default (65536 pages = 4GB).
	// 256 = 16MB, 1024 = 64MB, 4096 = 256MB
	MemoryLimitPages uint32

	// EnableWASI satisfies wasi_snapshot_preview1 imports with wazero's
	// implementation.
	EnableWASI bool

	// CloseOnContextDone aborts guest execution when the call context is
	// cancelled or times out.
	CloseOnContextDone bool
}

// WazeroEngine implements Engine using wazero runtime
type WazeroEngine struct {
	runtime      wazero.Runtime
	cfg          Config
	wasiInitMu   sync.Mutex
	wasiInitDone atomic.Bool
}

var _ Engine = (*WazeroEngine)(nil)

// NewWazeroEngine creates a new wazero-based engine
func NewWazeroEngine(ctx context.Context) (*WazeroEngine, error) {
	return NewWazeroEngineWithConfig(ctx, nil)
}

// NewWazeroEngineWithConfig creates a new engine with custom configuration
func NewWazeroEngineWithConfig(ctx context.Context, cfg *Config) (*WazeroEngine, error) {
	runtimeCfg := wazero.NewRuntimeConfig()

	var c Config
	if cfg != nil {
		c = *cfg
		if c.MemoryLimitPages > maxMemoryPages {
			return nil, errors.InvalidInput(errors.PhaseConfig,
				fmt.Sprintf("memory limit %d pages exceeds %d", c.MemoryLimitPages, maxMemoryPages))
		}
		if c.MemoryLimitPages > 0 {
			runtimeCfg = runtimeCfg.WithMemoryLimitPages(c.MemoryLimitPages)
		}
		if c.CloseOnContextDone {
			runtimeCfg = runtimeCfg.WithCloseOnContextDone(true)
		}
	}

	return &WazeroEngine{
		runtime: wazero.NewRuntimeWithConfig(ctx, runtimeCfg),
		cfg:     c,
	}, nil
}

// Compile validates and compiles binary. Any rejection by wazero is a
// compilation error.
func (e *WazeroEngine) Compile(ctx context.Context, binary []byte) (Module, error) {
	compiled, err := e.runtime.CompileModule(ctx, binary)
	if err != nil {
		return nil, errors.Compilation(err)
	}

	iface, err := wasm.ReadInterface(binary)
	if err != nil {
		_ = compiled.Close(ctx)
		return nil, errors.Compilation(err)
	}

	Logger().Debug("module compiled",
		zap.Int("bytes", len(binary)),
		zap.Int("imports", len(iface.Imports)),
		zap.Int("exports", len(iface.Exports)))

	return &WazeroModule{compiled: compiled, iface: iface}, nil
}

// Instantiate links mod against imports. Missing imports are all reported
// in one link error before any guest code runs. The instance is anonymous,
// so the same module can be instantiated any number of times.
func (e *WazeroEngine) Instantiate(ctx context.Context, mod Module, imports ImportObject) (Instance, error) {
	m, ok := mod.(*WazeroModule)
	if !ok {
		return nil, errors.InvalidInput(errors.PhaseLink, fmt.Sprintf("module %T was not compiled by this engine", mod))
	}
	if m.closed.Load() {
		return nil, errors.Closed(errors.PhaseLink, "module")
	}
	if _, ok := imports[wasi_snapshot_preview1.ModuleName]; ok && e.cfg.EnableWASI {
		return nil, errors.InvalidInput(errors.PhaseLink,
			"import object redefines "+wasi_snapshot_preview1.ModuleName)
	}

	if missing := e.missingImports(m.iface.Imports, imports); len(missing) > 0 {
		return nil, errors.Link(missing, nil)
	}

	if e.cfg.EnableWASI && importsNamespace(m.iface.Imports, wasi_snapshot_preview1.ModuleName) {
		if err := e.initWASI(ctx); err != nil {
			return nil, err
		}
	}

	hosts, err := e.instantiateHosts(ctx, m.iface.Imports, imports)
	if err != nil {
		return nil, err
	}

	modCfg := wazero.NewModuleConfig().
		WithName("").
		WithStartFunctions()
	if e.cfg.Stdout != nil {
		modCfg = modCfg.WithStdout(e.cfg.Stdout)
	}
	if e.cfg.Stderr != nil {
		modCfg = modCfg.WithStderr(e.cfg.Stderr)
	}

	inst, err := e.runtime.InstantiateModule(ctx, m.compiled, modCfg)
	if err != nil {
		closeModules(ctx, hosts)
		return nil, classifyInstantiateError(err)
	}

	exports, err := e.buildExports(inst, m, imports)
	if err != nil {
		_ = inst.Close(ctx)
		closeModules(ctx, hosts)
		return nil, err
	}
	Logger().Debug("module instantiated",
		zap.Int("host_modules", len(hosts)),
		zap.Strings("exports", exports.Names()))

	return &WazeroInstance{
		module:  inst,
		hosts:   hosts,
		exports: exports,
	}, nil
}

func (e *WazeroEngine) Close(ctx context.Context) error {
	return e.runtime.Close(ctx)
}

func (e *WazeroEngine) missingImports(required []wasm.Import, imports ImportObject) []errors.MissingImport {
	var missing []errors.MissingImport
	for _, imp := range required {
		if e.cfg.EnableWASI && imp.Module == wasi_snapshot_preview1.ModuleName {
			continue
		}
		if imp.Kind == wasm.KindFunc && imports.Has(imp.Module, imp.Name) {
			continue
		}
		missing = append(missing, errors.MissingImport{
			Module: imp.Module,
			Name:   imp.Name,
			Kind:   imp.Kind.String(),
		})
	}
	return missing
}

// initWASI instantiates the WASI singleton for this engine's runtime.
func (e *WazeroEngine) initWASI(ctx context.Context) error {
	if e.wasiInitDone.Load() {
		return nil
	}

	e.wasiInitMu.Lock()
	defer e.wasiInitMu.Unlock()

	if e.wasiInitDone.Load() {
		return nil
	}

	if e.runtime.Module(wasi_snapshot_preview1.ModuleName) == nil {
		if _, err := wasi_snapshot_preview1.Instantiate(ctx, e.runtime); err != nil {
			return errors.New(errors.PhaseLink, errors.KindLink).
				Path(wasi_snapshot_preview1.ModuleName).
				Detail("instantiate WASI").
				Cause(err).
				Build()
		}
	}

	e.wasiInitDone.Store(true)
	return nil
}

// instantiateHosts registers one host module per namespace the module
// imports from. A host module left over from a previous instantiation under
// the same name is replaced.
func (e *WazeroEngine) instantiateHosts(ctx context.Context, required []wasm.Import, imports ImportObject) ([]api.Module, error) {
	var hosts []api.Module
	seen := make(map[string]bool)

	for _, imp := range required {
		funcs, ok := imports[imp.Module]
		if !ok || seen[imp.Module] {
			continue
		}
		seen[imp.Module] = true

		if stale := e.runtime.Module(imp.Module); stale != nil {
			_ = stale.Close(ctx)
		}

		b := e.runtime.NewHostModuleBuilder(imp.Module)
		for name, fn := range funcs {
			if fn.Fn == nil {
				closeModules(ctx, hosts)
				return nil, errors.New(errors.PhaseLink, errors.KindInvalidInput).
					Path(imp.Module + "#" + name).
					Detail("host function has no implementation").
					Build()
			}
			b.NewFunctionBuilder().
				WithGoFunction(api.GoFunc(fn.Fn), toAPITypes(fn.Params), toAPITypes(fn.Results)).
				Export(name)
		}

		host, err := b.Instantiate(ctx)
		if err != nil {
			closeModules(ctx, hosts)
			return nil, errors.New(errors.PhaseLink, errors.KindLink).
				Path(imp.Module).
				Detail("instantiate host module").
				Cause(err).
				Build()
		}
		hosts = append(hosts, host)
	}
	return hosts, nil
}

func classifyInstantiateError(err error) error {
	msg := err.Error()
	for _, marker := range linkErrorMarkers {
		if strings.Contains(msg, marker) {
			return errors.Link(nil, err)
		}
	}
	return errors.RuntimeTrap(errors.PhaseInstantiate, "", err)
}

func importsNamespace(required []wasm.Import, namespace string) bool {
	for _, imp := range required {
		if imp.Module == namespace {
			return true
		}
	}
	return false
}

func closeModules(ctx context.Context, mods []api.Module) {
	for _, m := range mods {
		_ = m.Close(ctx)
	}
}

// WazeroModule is a compiled WASM module
type WazeroModule struct {
	compiled wazero.CompiledModule
	iface    *wasm.Interface
	closed   atomic.Bool
}

func (m *WazeroModule) Imports() []wasm.Import {
	return m.iface.Imports
}

// ExportNames returns the names of all exports in declaration order
func (m *WazeroModule) ExportNames() []string {
	names := make([]string, len(m.iface.Exports))
	for i, x := range m.iface.Exports {
		names[i] = x.Name
	}
	return names
}

func (m *WazeroModule) Close(ctx context.Context) error {
	if m.closed.Swap(true) {
		return nil
	}
	return m.compiled.Close(ctx)
}

// WazeroInstance is a running module instance
type WazeroInstance struct {
	module  api.Module
	exports *Exports
	hosts   []api.Module
	closed  atomic.Bool
}

func (i *WazeroInstance) Exports() *Exports {
	return i.exports
}

// Close releases the instance and the host modules created for it.
func (i *WazeroInstance) Close(ctx context.Context) error {
	if i.closed.Swap(true) {
		return nil
	}
	err := i.module.Close(ctx)
	for _, h := range i.hosts {
		if cerr := h.Close(ctx); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// buildExports lists the instance's exports in declaration order. A function
// export whose index falls in the imported range is a re-exported import: it
// is typed from the compiled module and called through the import object or
// the host module, never through the guest instance.
func (e *WazeroEngine) buildExports(inst api.Module, m *WazeroModule, imports ImportObject) (exports *Exports, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New(errors.PhaseInstantiate, errors.KindRuntimeTrap).
				Detail("resolve exports").
				Cause(fmt.Errorf("%v", r)).
				Build()
		}
	}()

	var funcImports []wasm.Import
	for _, imp := range m.iface.Imports {
		if imp.Kind == wasm.KindFunc {
			funcImports = append(funcImports, imp)
		}
	}
	defs := m.compiled.ExportedFunctions()

	list := make([]Export, 0, len(m.iface.Exports))
	for _, x := range m.iface.Exports {
		switch x.Kind {
		case wasm.KindFunc:
			if int(x.Index) < len(funcImports) {
				def, ok := defs[x.Name]
				if !ok {
					continue
				}
				imp := funcImports[x.Index]
				params, results := fromAPITypes(def.ParamTypes()), fromAPITypes(def.ResultTypes())
				list = append(list, NewFunction(x.Name, params, results,
					e.importedCall(x.Name, imp, imports, len(params), len(results))))
				continue
			}
			fn := inst.ExportedFunction(x.Name)
			if fn == nil {
				continue
			}
			def := fn.Definition()
			list = append(list, NewFunction(x.Name,
				fromAPITypes(def.ParamTypes()),
				fromAPITypes(def.ResultTypes()),
				callFunc(x.Name, fn)))
		case wasm.KindMemory:
			mem := inst.ExportedMemory(x.Name)
			if mem == nil {
				continue
			}
			list = append(list, NewMemory(x.Name, mem.Size))
		case wasm.KindGlobal:
			g := inst.ExportedGlobal(x.Name)
			if g == nil {
				continue
			}
			_, mutable := g.(api.MutableGlobal)
			list = append(list, NewGlobal(x.Name, ValueType(g.Type()), mutable, g.Get))
		case wasm.KindTable:
			list = append(list, NewTable(x.Name))
		}
	}
	return NewExports(list...), nil
}

// importedCall calls a re-exported import. Host functions from the import
// object run directly on a value stack; anything else (WASI) is looked up
// on its host module at call time.
func (e *WazeroEngine) importedCall(name string, imp wasm.Import, imports ImportObject, nParams, nResults int) CallFunc {
	if host, ok := imports[imp.Module][imp.Name]; ok {
		return func(ctx context.Context, params []uint64) (results []uint64, err error) {
			defer func() {
				if r := recover(); r != nil {
					err = errors.RuntimeTrap(errors.PhaseInvoke, name, fmt.Errorf("host function panicked: %v", r))
				}
			}()
			stack := make([]uint64, max(nParams, nResults))
			copy(stack, params)
			host.Fn(ctx, stack)
			return stack[:nResults], nil
		}
	}

	return func(ctx context.Context, params []uint64) (results []uint64, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = errors.RuntimeTrap(errors.PhaseInvoke, name, fmt.Errorf("%v", r))
			}
		}()
		mod := e.runtime.Module(imp.Module)
		if mod == nil {
			return nil, errors.RuntimeTrap(errors.PhaseInvoke, name,
				fmt.Errorf("host module %s is not instantiated", imp.Module))
		}
		fn := mod.ExportedFunction(imp.Name)
		if fn == nil {
			return nil, errors.RuntimeTrap(errors.PhaseInvoke, name,
				fmt.Errorf("%s#%s is not exported", imp.Module, imp.Name))
		}
		return callFunc(name, fn)(ctx, params)
	}
}

// callFunc adapts a wazero function to CallFunc. A WASI exit with code 0
// counts as a normal return without results; every other failure is a trap.
func callFunc(name string, fn api.Function) CallFunc {
	return func(ctx context.Context, params []uint64) ([]uint64, error) {
		Logger().Debug("calling export", zap.String("name", name), zap.Int("params", len(params)))

		results, err := fn.Call(ctx, params...)
		if err != nil {
			var exitErr *sys.ExitError
			if stderrors.As(err, &exitErr) && exitErr.ExitCode() == 0 {
				return nil, nil
			}
			return nil, errors.RuntimeTrap(errors.PhaseInvoke, name, err)
		}
		return results, nil
	}
}
