// Package diag centralizes the "log a warning and continue" recovery idiom
// used throughout §7's propagation policy. It deliberately does not wrap a
// logging framework: the teacher repo (termfx/morfx) has none in its
// dependency graph either, and writes diagnostics straight to stderr via
// fmt.Fprintf gated by a verbose flag (internal/cli/runner.go).
package diag

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Sink receives warnings recovered during a pipeline run. The default Sink
// writes to os.Stderr; tests substitute a buffer to assert on messages.
type Sink struct {
	mu  sync.Mutex
	out io.Writer
}

// NewSink creates a Sink writing to w. Passing nil defaults to os.Stderr.
func NewSink(w io.Writer) *Sink {
	if w == nil {
		w = os.Stderr
	}
	return &Sink{out: w}
}

// Default is the process-wide sink used by package-level Warn.
var Default = NewSink(os.Stderr)

// Warn records one recovered failure: a code, a human-readable message and
// the causing error (nil if none). Recoverable failures under §7
// (FileReadError, ManifestParseError, DependencyLoadError,
// HelperProtocolError) are reported this way and never abort the run.
func (s *Sink) Warn(code, message string, cause error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cause != nil {
		fmt.Fprintf(s.out, "warning: [%s] %s: %v\n", code, message, cause)
		return
	}
	fmt.Fprintf(s.out, "warning: [%s] %s\n", code, message)
}

// Warn reports to the default, process-wide sink.
func Warn(code, message string, cause error) {
	Default.Warn(code, message, cause)
}
