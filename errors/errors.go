package errors

import (
	"fmt"
	"strings"
)

// Phase indicates which pipeline step produced the error
type Phase string

const (
	PhaseRead        Phase = "read"        // reading the binary from disk
	PhaseCompile     Phase = "compile"     // validating and compiling the binary
	PhaseLink        Phase = "link"        // resolving imports against the import object
	PhaseInstantiate Phase = "instantiate" // running the start function
	PhaseInvoke      Phase = "invoke"      // calling an exported function
	PhaseConfig      Phase = "config"      // loading runner configuration
)

// Kind categorizes the error
type Kind string

const (
	KindFileAccess   Kind = "file_access"
	KindCompilation  Kind = "compilation"
	KindLink         Kind = "link"
	KindRuntimeTrap  Kind = "runtime_trap"
	KindInvalidInput Kind = "invalid_input"
	KindClosed       Kind = "closed"
)

// Sentinels matching any error of the given kind, regardless of phase.
//
//	if errors.Is(err, wlerrors.ErrLink) { ... }
var (
	ErrFileAccess  = &Error{Kind: KindFileAccess}
	ErrCompilation = &Error{Kind: KindCompilation}
	ErrLink        = &Error{Kind: KindLink}
	ErrRuntimeTrap = &Error{Kind: KindRuntimeTrap}
)

// MissingImport is a single import the import object could not satisfy
type MissingImport struct {
	Module string // e.g. "env"
	Name   string // e.g. "log"
	Kind   string // func, table, memory, global or tag
}

func (m MissingImport) String() string {
	if m.Kind == "" {
		return m.Module + "#" + m.Name
	}
	return m.Module + "#" + m.Name + " (" + m.Kind + ")"
}

// Error is the structured error type returned by every package in the module
type Error struct {
	Cause   error
	Phase   Phase
	Kind    Kind
	Path    string // file path or export name the error relates to
	Detail  string
	Imports []MissingImport
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Path != "" {
		b.WriteString(" at ")
		b.WriteString(e.Path)
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if len(e.Imports) > 0 {
		names := make([]string, len(e.Imports))
		for i, imp := range e.Imports {
			names[i] = imp.String()
		}
		b.WriteString(" [")
		b.WriteString(strings.Join(names, ", "))
		b.WriteByte(']')
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(firstLine(e.Cause.Error()))
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error. A target without a phase
// matches on kind alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Phase == "" {
		return e.Kind == t.Kind
	}
	return e.Phase == t.Phase && e.Kind == t.Kind
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the file path or export name
func (b *Builder) Path(path string) *Builder {
	b.err.Path = path
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Imports sets the unresolved imports
func (b *Builder) Imports(imports ...MissingImport) *Builder {
	b.err.Imports = imports
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// FileAccess creates an error for a binary that is missing or unreadable
func FileAccess(path string, cause error) *Error {
	return &Error{
		Phase:  PhaseRead,
		Kind:   KindFileAccess,
		Path:   path,
		Detail: "read module binary",
		Cause:  cause,
	}
}

// Compilation creates an error for a binary the engine rejected
func Compilation(cause error) *Error {
	return &Error{
		Phase:  PhaseCompile,
		Kind:   KindCompilation,
		Detail: "compile module",
		Cause:  cause,
	}
}

// Link creates an error for imports absent from the import object
func Link(imports []MissingImport, cause error) *Error {
	var detail string
	switch len(imports) {
	case 0:
		detail = "resolve imports"
	case 1:
		detail = "unresolved import"
	default:
		detail = fmt.Sprintf("%d unresolved imports", len(imports))
	}
	return &Error{
		Phase:   PhaseLink,
		Kind:    KindLink,
		Detail:  detail,
		Imports: imports,
		Cause:   cause,
	}
}

// RuntimeTrap creates an error for guest code that trapped. name is the
// export being called, or empty for the start function.
func RuntimeTrap(phase Phase, name string, cause error) *Error {
	detail := "start function trapped"
	if name != "" {
		detail = "call trapped"
	}
	return &Error{
		Phase:  phase,
		Kind:   KindRuntimeTrap,
		Path:   name,
		Detail: detail,
		Cause:  cause,
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Closed creates an error for use of a released module or instance
func Closed(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindClosed,
		Detail: fmt.Sprintf("%s already closed", what),
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
