package codegen

import (
	"fmt"
	"io"
	"strings"
)

// emitter wraps an io.Writer with helpers for emitting indented C text.
// The current line stays open until the next line starts, so trailing
// comments can still be appended to it.
type emitter struct {
	w      io.Writer
	err    error // first write error
	unit   string
	indent int
	open   bool // a line has been started and not yet terminated
}

func (e *emitter) write(s string) {
	if e.err != nil {
		return
	}
	_, e.err = io.WriteString(e.w, s)
}

// endLine terminates the open line, if any.
func (e *emitter) endLine() {
	if e.open {
		e.write("\n")
		e.open = false
	}
}

// emit starts a new indented line.
func (e *emitter) emit(format string, args ...interface{}) {
	e.endLine()
	e.write(strings.Repeat(e.unit, e.indent))
	e.write(fmt.Sprintf(format, args...))
	e.open = true
}

// emitRaw appends to the open line, or starts one.
func (e *emitter) emitRaw(format string, args ...interface{}) {
	if !e.open {
		e.emit(format, args...)
		return
	}
	e.write(fmt.Sprintf(format, args...))
}

// emitLine writes a blank line.
func (e *emitter) emitLine() {
	e.endLine()
	e.write("\n")
}

// emitComment writes a comment on a line of its own.
func (e *emitter) emitComment(text string) {
	e.emit("%s", text)
}

func (e *emitter) in()  { e.indent++ }
func (e *emitter) out() { e.indent-- }

// finish terminates the last line and returns the first write error.
func (e *emitter) finish() error {
	e.endLine()
	return e.err
}
