package errors

import (
	stderrors "errors"
	"strings"
)

const wasmStackMarker = "wasm stack trace:"

// Trace renders the diagnostic trace of err: one line per link of the cause
// chain, outermost first, followed by any wasm stack trace the engine
// attached to the innermost error.
func Trace(err error) string {
	if err == nil {
		return ""
	}

	var b strings.Builder
	var stack string
	depth := 0
	for cur := err; cur != nil; cur = stderrors.Unwrap(cur) {
		line := ownMessage(cur)
		if i := strings.Index(cur.Error(), wasmStackMarker); i >= 0 {
			stack = strings.TrimSpace(cur.Error()[i:])
		}
		if line == "" {
			continue
		}
		if depth > 0 {
			b.WriteByte('\n')
			b.WriteString(strings.Repeat("  ", depth))
			b.WriteString("at ")
		}
		b.WriteString(line)
		depth++
	}

	if stack != "" {
		b.WriteByte('\n')
		b.WriteString(stack)
	}
	return b.String()
}

// ownMessage returns the part of err's message not contributed by its cause.
func ownMessage(err error) string {
	if e, ok := err.(*Error); ok {
		shallow := *e
		shallow.Cause = nil
		return shallow.Error()
	}

	msg := firstLine(err.Error())
	if cause := stderrors.Unwrap(err); cause != nil {
		causeMsg := firstLine(cause.Error())
		msg = strings.TrimSuffix(msg, causeMsg)
		msg = strings.TrimSuffix(strings.TrimSpace(msg), ":")
	}
	return msg
}
