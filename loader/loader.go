package loader

import (
	"context"
	stderrors "errors"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/wippyai/wasm-loader/engine"
	"github.com/wippyai/wasm-loader/errors"
)

const (
	// DefaultPath is the binary loaded when no path is configured, relative
	// to the working directory.
	DefaultPath = "output.wasm"

	// DefaultEntryPoint is the export invoked after instantiation.
	DefaultEntryPoint = "main"
)

// Loader reads one module binary, instantiates it and invokes its entry
// point. A Loader holds no per-run state and can run any number of times.
type Loader struct {
	engine   engine.Engine
	readFile func(name string) ([]byte, error)
	stdout   io.Writer
	stderr   io.Writer
	log      *zap.Logger
	imports  engine.ImportObject
	path     string
	entry    string
}

// Option configures a Loader.
type Option func(*Loader)

// WithPath sets the binary to load.
func WithPath(path string) Option {
	return func(l *Loader) { l.path = path }
}

// WithEntryPoint sets the export invoked after instantiation.
func WithEntryPoint(name string) Option {
	return func(l *Loader) { l.entry = name }
}

// WithImports sets the import object. The default is empty.
func WithImports(imports engine.ImportObject) Option {
	return func(l *Loader) { l.imports = imports }
}

func WithStdout(w io.Writer) Option {
	return func(l *Loader) { l.stdout = w }
}

func WithStderr(w io.Writer) Option {
	return func(l *Loader) { l.stderr = w }
}

func WithLogger(log *zap.Logger) Option {
	return func(l *Loader) { l.log = log }
}

// WithReadFile replaces os.ReadFile.
func WithReadFile(fn func(name string) ([]byte, error)) Option {
	return func(l *Loader) { l.readFile = fn }
}

// New creates a Loader running modules on eng.
func New(eng engine.Engine, opts ...Option) *Loader {
	l := &Loader{
		engine:   eng,
		readFile: os.ReadFile,
		stdout:   os.Stdout,
		stderr:   os.Stderr,
		path:     DefaultPath,
		entry:    DefaultEntryPoint,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.log == nil {
		l.log = Logger()
	}
	return l
}

// Path returns the binary the loader reads.
func (l *Loader) Path() string {
	return l.path
}

// Output returns the writers the loader reports to.
func (l *Loader) Output() (stdout, stderr io.Writer) {
	return l.stdout, l.stderr
}

// ExportInfo describes one export of the instance.
type ExportInfo struct {
	Name      string
	Kind      engine.ExportKind
	Signature string // functions only
}

// Result is the outcome of a successful run.
type Result struct {
	Exports []ExportInfo
	Values  []engine.Value
	Invoked bool
}

// ExportNames returns the export names in declaration order.
func (r *Result) ExportNames() []string {
	names := make([]string, len(r.Exports))
	for i, e := range r.Exports {
		names[i] = e.Name
	}
	return names
}

// RunOnce reads the binary, compiles and instantiates it, reports its
// exports, and calls the entry point if it is an exported function. The
// returned error is always an *errors.Error.
func (l *Loader) RunOnce(ctx context.Context) (*Result, error) {
	sess, err := l.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer sess.Close(ctx)

	log := sess.log
	exports := sess.Exports()
	res := &Result{Exports: describe(exports)}
	printExports(l.stdout, res.ExportNames())

	x, ok := exports.Lookup(l.entry)
	if !ok {
		log.Debug("no entry point export", zap.String("entry", l.entry))
		return res, nil
	}
	fn, ok := x.(*engine.Function)
	if !ok {
		log.Warn("entry point is not a function, skipping invocation",
			zap.String("entry", l.entry),
			zap.String("kind", string(x.Kind())))
		return res, nil
	}

	log.Debug("invoking entry point", zap.String("entry", l.entry), zap.Int("arity", fn.Arity()))
	values, err := fn.Call(ctx)
	if err != nil {
		return nil, classify(err, func(cause error) *errors.Error {
			return errors.RuntimeTrap(errors.PhaseInvoke, l.entry, cause)
		})
	}

	res.Invoked = true
	res.Values = values
	printResult(l.stdout, values)
	return res, nil
}

// Open reads, compiles and instantiates the binary without printing
// anything. The caller owns the session and must close it.
func (l *Loader) Open(ctx context.Context) (*Session, error) {
	log := l.log.With(zap.String("path", l.path))

	binary, err := l.readFile(l.path)
	if err != nil {
		return nil, errors.FileAccess(l.path, err)
	}
	log.Debug("module read", zap.Int("bytes", len(binary)))

	mod, err := l.engine.Compile(ctx, binary)
	if err != nil {
		return nil, classify(err, errors.Compilation)
	}

	inst, err := l.engine.Instantiate(ctx, mod, l.imports)
	if err != nil {
		closeLogged(ctx, log, "module", mod)
		return nil, classify(err, func(cause error) *errors.Error {
			return errors.RuntimeTrap(errors.PhaseInstantiate, "", cause)
		})
	}
	log.Debug("module instantiated", zap.Int("exports", inst.Exports().Len()))

	return &Session{module: mod, instance: inst, log: log}, nil
}

// Session is an instantiated module kept open for repeated calls.
type Session struct {
	module   engine.Module
	instance engine.Instance
	log      *zap.Logger
}

// Exports returns the instance's exports in declaration order.
func (s *Session) Exports() *engine.Exports {
	return s.instance.Exports()
}

// Describe returns the name, kind and signature of each export.
func (s *Session) Describe() []ExportInfo {
	return describe(s.instance.Exports())
}

// Close releases the instance, then the compiled module. Failures are
// logged, not returned.
func (s *Session) Close(ctx context.Context) {
	closeLogged(ctx, s.log, "instance", s.instance)
	closeLogged(ctx, s.log, "module", s.module)
}

func describe(exports *engine.Exports) []ExportInfo {
	all := exports.All()
	infos := make([]ExportInfo, len(all))
	for i, x := range all {
		infos[i] = ExportInfo{Name: x.Name(), Kind: x.Kind()}
		if fn, ok := x.(*engine.Function); ok {
			infos[i].Signature = fn.Signature()
		}
	}
	return infos
}

// classify keeps structured errors from the engine and wraps anything else
// with the error kind of the failing step.
func classify(err error, wrap func(error) *errors.Error) error {
	var e *errors.Error
	if stderrors.As(err, &e) {
		return e
	}
	return wrap(err)
}

type closer interface {
	Close(ctx context.Context) error
}

func closeLogged(ctx context.Context, log *zap.Logger, what string, c closer) {
	if err := c.Close(ctx); err != nil {
		log.Warn("close failed", zap.String("what", what), zap.Error(err))
	}
}
