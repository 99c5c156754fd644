// Package codegen prints a lowered AST as C source.
package codegen

import (
	"fmt"
	"io"
	"strings"

	"github.com/you-not-fish/fieldc/internal/syntax"
)

// Header is the preamble declaring what lowered code relies on: bool,
// malloc and free, memcpy.
const Header = `#include <stdbool.h>
#include <stdlib.h>
#include <string.h>
`

// Config controls the generated text.
type Config struct {
	NoHeader bool   // omit the #include preamble
	Indent   string // one level of indentation; four spaces if empty
}

type generator struct {
	e emitter
}

// Generate writes root as C to w. root must have been lowered: a for_field
// loop, an element access or a call of an unimplemented builtin panics.
// Builtin declarations are skipped; their concrete counterparts are
// printed in their place.
func Generate(w io.Writer, root *syntax.Scope, cfg Config) error {
	g := &generator{e: emitter{w: w, unit: cfg.Indent}}
	if g.e.unit == "" {
		g.e.unit = "    "
	}
	if !cfg.NoHeader {
		for _, line := range strings.Split(strings.TrimSuffix(Header, "\n"), "\n") {
			g.e.emit("%s", line)
		}
		g.e.emitLine()
	}
	g.stmts(root)
	return g.e.finish()
}

// ----------------------------------------------------------------------------
// Statements

// stmts prints the statements of s, then the comments closing it.
func (g *generator) stmts(s *syntax.Scope) {
	first := true
	for _, n := range s.Nodes {
		if builtin(n) {
			continue
		}
		if syntax.BlankBefore(n) && !first {
			g.e.emitLine()
		}
		first = false
		g.stmt(n)
	}
	for _, c := range syntax.Trailing(s) {
		g.e.emitComment(c.Lit)
	}
}

func builtin(n syntax.Node) bool {
	switch d := n.(type) {
	case *syntax.TypeDecl:
		return d.IsBuiltin
	case *syntax.FuncDecl:
		return d.IsBuiltin
	}
	return false
}

// stmt prints one statement with its comments.
func (g *generator) stmt(n syntax.Node) {
	for _, c := range syntax.Leading(n) {
		g.e.emitComment(c.Lit)
	}
	switch n := n.(type) {
	case *syntax.Scope:
		g.e.emit("{")
		g.block(n)
		g.e.emit("}")

	case *syntax.VarDecl:
		g.e.emit("%s;", varDecl(n))

	case *syntax.FuncDecl:
		g.funcDecl(n)

	case *syntax.TypeDecl:
		g.typeDecl(n)

	case *syntax.Typedef:
		g.e.emit("typedef %s;", declarator(n.Type, n.Ident.Name))

	case *syntax.Control:
		g.control(n)

	case *syntax.Cond:
		g.cond(n, "")

	case *syntax.Loop:
		g.loop(n)

	case *syntax.Parallel:
		panic(fmt.Sprintf("codegen: for_field at %s was not lowered", n.Pos()))

	default:
		g.e.emit("%s;", expr(n))
	}
	g.trailing(n)
}

// trailing appends the comments that followed n on its last line. Scopes
// carry their closing comments inside.
func (g *generator) trailing(n syntax.Node) {
	if _, ok := n.(*syntax.Scope); ok {
		return
	}
	for _, c := range syntax.Trailing(n) {
		g.e.emitRaw(" %s", c.Lit)
	}
}

// block prints the statements of s one level deeper.
func (g *generator) block(s *syntax.Scope) {
	g.e.in()
	g.stmts(s)
	g.e.out()
}

func varDecl(d *syntax.VarDecl) string {
	s := declarator(d.Type, d.Ident.Name)
	if d.Value != nil {
		s += " = " + operand(d.Value, syntax.PrecAssign)
	}
	return s
}

func (g *generator) funcDecl(fn *syntax.FuncDecl) {
	params := make([]string, len(fn.Params))
	for i, p := range fn.Params {
		params[i] = declarator(p.Type, p.Ident.Name)
	}
	if len(params) == 0 {
		params = []string{"void"}
	}
	head := declarator(fn.ReturnType, fn.Ident.Name) + "(" + strings.Join(params, ", ") + ")"
	if fn.Body == nil {
		g.e.emit("%s;", head)
		return
	}
	g.e.emit("%s {", head)
	g.block(fn.Body)
	g.e.emit("}")
}

func (g *generator) typeDecl(d *syntax.TypeDecl) {
	if d.Body == nil {
		g.e.emit("struct %s;", d.Ident.Name)
		return
	}
	g.e.emit("struct %s {", d.Ident.Name)
	g.block(d.Body)
	g.e.emit("};")
}

func (g *generator) control(c *syntax.Control) {
	switch c.CtrlKind {
	case syntax.CtrlReturn:
		if c.Value == nil {
			g.e.emit("return;")
			return
		}
		g.e.emit("return %s;", expr(c.Value))
	case syntax.CtrlBreak:
		g.e.emit("break;")
	case syntax.CtrlContinue:
		g.e.emit("continue;")
	case syntax.CtrlGoto:
		g.e.emit("goto %s;", expr(c.Value))
	case syntax.CtrlLabel:
		// A label must precede a statement.
		g.e.emit("%s: ;", expr(c.Value))
	default:
		panic(fmt.Sprintf("codegen: unknown control %s", c.CtrlKind))
	}
}

// clause prints head followed by body. A braced body leaves its closing
// brace unwritten so an else can join it; clause reports whether it did.
func (g *generator) clause(head string, body syntax.Node) bool {
	if s, ok := body.(*syntax.Scope); ok && len(syntax.Leading(s)) == 0 {
		g.e.emit("%s {", head)
		g.block(s)
		return true
	}
	g.e.emit("%s", head)
	g.e.in()
	g.stmt(body)
	g.e.out()
	return false
}

// cond prints an if statement; prefix joins it to a preceding else.
func (g *generator) cond(c *syntax.Cond, prefix string) {
	open := g.clause(prefix+"if ("+expr(c.Expr)+")", c.Body)
	join := "else"
	if open {
		join = "} else"
	}
	switch after := c.AfterElse.(type) {
	case nil:
		if open {
			g.e.emit("}")
		}
	case *syntax.Cond:
		if len(syntax.Leading(after)) > 0 {
			if g.clause(join, after) {
				g.e.emit("}")
			}
			return
		}
		g.cond(after, join+" ")
		g.trailing(after)
	default:
		if g.clause(join, after) {
			g.e.emit("}")
		}
	}
}

func (g *generator) loop(l *syntax.Loop) {
	var head string
	if l.IsWhile {
		head = "while (" + expr(l.Cond) + ")"
	} else {
		var init string
		if d, ok := l.Init.(*syntax.VarDecl); ok {
			init = varDecl(d)
		} else {
			init = expr(l.Init)
		}
		head = "for (" + init + "; " + expr(l.Cond) + "; " + expr(l.Incr) + ")"
	}
	if g.clause(head, l.Body) {
		g.e.emit("}")
	}
}
