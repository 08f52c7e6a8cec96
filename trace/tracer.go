// Package trace provides opt-in CALL/RETURN tracing for the interpreter,
// grounded on the teacher's trace.Tracer (verb-call/verb-return/exception
// logging for a MOO server) generalized from verb dispatch to this VM's
// function calls. Implements interp.CallTracer.
package trace

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"embervm/value"
)

// Tracer logs CALL/RETURN/error traffic, filtered by callee name.
type Tracer struct {
	enabled bool
	filters []string
	writer  io.Writer
	mu      sync.Mutex
}

// New builds a Tracer. A nil writer defaults to os.Stderr, matching the
// teacher's Init.
func New(enabled bool, filters []string, writer io.Writer) *Tracer {
	if writer == nil {
		writer = os.Stderr
	}
	return &Tracer{enabled: enabled, filters: filters, writer: writer}
}

// IsEnabled reports whether this Tracer will emit anything at all.
func (t *Tracer) IsEnabled() bool {
	return t != nil && t.enabled
}

// matchesFilter checks if a callee name matches any of the filter glob
// patterns; no filters means trace everything.
func (t *Tracer) matchesFilter(name string) bool {
	if len(t.filters) == 0 {
		return true
	}
	for _, pattern := range t.filters {
		if matched, _ := filepath.Match(pattern, name); matched {
			return true
		}
	}
	return false
}

// Call logs a CALL (function, native, module function, or method).
func (t *Tracer) Call(name string, args []value.Value) {
	if t == nil || !t.enabled || !t.matchesFilter(name) {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	argStrs := make([]string, len(args))
	for i, arg := range args {
		if arg == nil {
			argStrs[i] = "nil"
			continue
		}
		argStrs[i] = arg.String()
	}
	fmt.Fprintf(t.writer, "[TRACE] CALL %s(%s)\n", name, strings.Join(argStrs, ", "))
}

// Return logs a RETURN.
func (t *Tracer) Return(name string, result value.Value) {
	if t == nil || !t.enabled || !t.matchesFilter(name) {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	resultStr := "nil"
	if result != nil {
		resultStr = result.String()
	}
	fmt.Fprintf(t.writer, "[TRACE] RETURN %s => %s\n", name, resultStr)
}

// Error logs a call that failed with a Go error (a native's returned error,
// not a language-level ErrorUnion — those are ordinary RETURN values and
// already covered by Return).
func (t *Tracer) Error(name string, err error) {
	if t == nil || !t.enabled || !t.matchesFilter(name) {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	fmt.Fprintf(t.writer, "[TRACE] ERROR %s: %v\n", name, err)
}
