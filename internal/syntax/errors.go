package syntax

import "fmt"

// SyntaxError represents a lexical or syntax error.
type SyntaxError struct {
	Pos  Pos
	Near string // source text of the offending token, empty at end of input
	Msg  string
}

func (e *SyntaxError) Error() string {
	if e.Near == "" {
		return e.Pos.String() + ": " + e.Msg
	}
	return fmt.Sprintf("%s: %s (near %q)", e.Pos, e.Msg, e.Near)
}

// Error priorities. Among errors at the same token the higher priority is
// reported.
const (
	prioSyntax     = iota // generic syntax error
	prioUndeclared        // use of an undeclared name
)
