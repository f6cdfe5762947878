// Package diag provides the single writer through which the hook pipeline
// emits diagnostic-stream lines, so call sites stay one line; each call
// site composes its own message text (spec §6, §7: "Standard error:
// diagnostic traces only; never consumed by the host").
package diag

import (
	"fmt"
	"io"
)

// Writer emits a diagnostic trace line, prefixed and newline-terminated.
type Writer struct {
	out io.Writer
}

// New wraps w (typically os.Stderr) as a diagnostic writer.
func New(w io.Writer) Writer {
	return Writer{out: w}
}

// Trace writes a single diagnostic line.
func (w Writer) Trace(format string, args ...any) {
	if w.out == nil {
		return
	}
	fmt.Fprintf(w.out, format+"\n", args...)
}
