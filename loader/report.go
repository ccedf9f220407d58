package loader

import (
	"fmt"
	"io"
	"strings"

	"github.com/wippyai/wasm-loader/engine"
	"github.com/wippyai/wasm-loader/errors"
)

func printExports(w io.Writer, names []string) {
	fmt.Fprintf(w, "WASM exports: [%s]\n", strings.Join(names, " "))
}

// printResult prints the entry point's results: the value itself for one
// result, "undefined" for none, a list for several.
func printResult(w io.Writer, values []engine.Value) {
	fmt.Fprintf(w, "Result: %s\n", FormatValues(values))
}

// printFailure prints the message and diagnostic trace of a failed run.
func printFailure(w io.Writer, err error) {
	fmt.Fprintf(w, "Error: %s\n", err)
	fmt.Fprintf(w, "Stack: %s\n", errors.Trace(err))
}

// FormatValues renders function results the way a run reports them.
func FormatValues(values []engine.Value) string {
	switch len(values) {
	case 0:
		return "undefined"
	case 1:
		return values[0].String()
	default:
		parts := make([]string, len(values))
		for i, v := range values {
			parts[i] = v.String()
		}
		return "[" + strings.Join(parts, " ") + "]"
	}
}
