package syntax

import (
	"fmt"
	"io"
	"strings"
)

// Fprint writes a textual representation of the AST to w.
func Fprint(w io.Writer, node Node) {
	p := &printer{w: w}
	p.print(node)
}

type printer struct {
	w      io.Writer
	indent int
}

func (p *printer) printf(format string, args ...interface{}) {
	fmt.Fprintf(p.w, "%s%s", strings.Repeat("  ", p.indent), fmt.Sprintf(format, args...))
}

// child prints a labelled child one level deeper.
func (p *printer) child(label string, n Node) {
	if n == nil {
		return
	}
	p.printf("%s:\n", label)
	p.indent++
	p.print(n)
	p.indent--
}

func (p *printer) list(label string, list []Node) {
	if len(list) == 0 {
		return
	}
	p.printf("%s:\n", label)
	p.indent++
	for _, n := range list {
		p.print(n)
	}
	p.indent--
}

func (p *printer) print(node Node) {
	if node == nil {
		return
	}

	switch n := node.(type) {
	case *Scope:
		if n.IsRoot {
			p.printf("Scope (root) %s\n", n.Pos())
		} else {
			p.printf("Scope %s\n", n.Pos())
		}
		p.indent++
		for _, s := range n.Nodes {
			p.print(s)
		}
		p.indent--

	case *Ident:
		p.printf("Ident %s%s\n", n.Name, declSuffix(n.Decl))

	case *Type:
		p.printf("Type %s\n", TypeString(n))

	case *TypeDecl:
		if n.IsBuiltin {
			p.printf("TypeDecl %s (builtin %s)\n", n.Ident.Name, n.Builtin)
			return
		}
		p.printf("TypeDecl %s %s\n", n.Ident.Name, n.Pos())
		p.indent++
		p.child("Body", wrap(n.Body))
		p.indent--

	case *VarDecl:
		p.printf("VarDecl %s %s %s\n", n.Ident.Name, TypeString(n.Type), n.Pos())
		p.indent++
		p.child("Value", n.Value)
		p.indent--

	case *FuncDecl:
		if n.IsBuiltin {
			p.printf("FuncDecl %s (builtin) %s\n", n.Ident.Name, TypeString(n.ReturnType))
		} else {
			p.printf("FuncDecl %s %s %s\n", n.Ident.Name, TypeString(n.ReturnType), n.Pos())
		}
		p.indent++
		if len(n.Params) > 0 {
			p.printf("Params:\n")
			p.indent++
			for _, f := range n.Params {
				p.printf("%s %s\n", f.Ident.Name, TypeString(f.Type))
			}
			p.indent--
		}
		p.child("Body", wrap(n.Body))
		p.indent--

	case *Literal:
		switch n.LitKind {
		case LitCompound:
			p.printf("Compound %s\n", n.Pos())
			p.indent++
			for _, e := range n.Elems {
				p.print(e)
			}
			p.indent--
		default:
			p.printf("Literal %s\n", literalString(n))
		}

	case *Biop:
		switch {
		case n.Lhs == nil:
			p.printf("Unary %s\n", n.Op)
		case n.Rhs == nil:
			p.printf("Postfix %s\n", n.Op)
		default:
			p.printf("Biop %s\n", n.Op)
		}
		p.indent++
		p.print(n.Lhs)
		p.print(n.Rhs)
		p.indent--

	case *Control:
		p.printf("Control %s\n", n.CtrlKind)
		p.indent++
		p.print(n.Value)
		p.indent--

	case *Call:
		p.printf("Call %s%s\n", n.Ident.Name, declSuffix(n.Ident.Decl))
		p.indent++
		for _, a := range n.Args {
			p.print(a)
		}
		p.indent--

	case *Access:
		p.printf("Access %s\n", accessNames[n.AccessKind])
		p.indent++
		p.print(n.Base)
		p.list("Args", n.Args)
		p.indent--

	case *Cond:
		p.printf("Cond %s\n", n.Pos())
		p.indent++
		p.child("Expr", n.Expr)
		p.child("Body", n.Body)
		p.child("Else", n.AfterElse)
		p.indent--

	case *Loop:
		if n.IsWhile {
			p.printf("Loop (while) %s\n", n.Pos())
		} else {
			p.printf("Loop %s\n", n.Pos())
		}
		p.indent++
		p.child("Init", n.Init)
		p.child("Cond", n.Cond)
		p.child("Incr", n.Incr)
		p.child("Body", n.Body)
		p.indent--

	case *Cast:
		p.printf("Cast %s\n", TypeString(n.Type))
		p.indent++
		p.print(n.Target)
		p.indent--

	case *Typedef:
		p.printf("Typedef %s %s\n", n.Ident.Name, TypeString(n.Type))

	case *Parallel:
		p.printf("Parallel dim=%d %s\n", n.Dim, n.Pos())
		p.indent++
		p.list("Outputs", n.Outputs)
		p.list("Inputs", n.Inputs)
		p.child("Body", wrap(n.Body))
		p.indent--

	default:
		p.printf("<unknown %T>\n", n)
	}
}

var accessNames = [...]string{
	AccessMember:    "member",
	AccessPtrMember: "ptr-member",
	AccessArray:     "array",
	AccessElement:   "element",
}

func declSuffix(d Node) string {
	if d == nil {
		return " (unresolved)"
	}
	return " -> " + d.Kind().String()
}

// TypeString returns the source spelling of a type reference.
func TypeString(t *Type) string {
	if t == nil {
		return "<nil>"
	}
	var b strings.Builder
	if t.IsConst {
		b.WriteString("const ")
	}
	switch {
	case t.Typedef != nil:
		b.WriteString(t.Typedef.Ident.Name)
	case t.BaseDecl == nil:
		b.WriteString("<unresolved>")
	case t.BaseDecl.IsBuiltin:
		b.WriteString(t.BaseDecl.Builtin.String())
	default:
		b.WriteString("struct " + t.BaseDecl.Ident.Name)
	}
	depth := t.PtrDepth
	if t.Typedef != nil && t.Typedef.Type != nil {
		depth -= t.Typedef.Type.PtrDepth
	}
	b.WriteString(strings.Repeat("*", depth))
	if t.ArraySize > 0 && (t.Typedef == nil || t.Typedef.Type.ArraySize == 0) {
		fmt.Fprintf(&b, "[%d]", t.ArraySize)
	}
	return b.String()
}

func literalString(l *Literal) string {
	switch l.LitKind {
	case LitInt:
		return fmt.Sprint(l.Int)
	case LitFloat:
		return fmt.Sprint(l.Float)
	case LitString, LitChar:
		return l.Str
	case LitBool:
		return fmt.Sprint(l.Bool)
	case LitNull:
		return "null"
	}
	return "{...}"
}
