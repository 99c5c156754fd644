// Package resource reads and writes resource descriptions: compound
// literals such as
//
//	{.name = "grid", .size = {64, 64}, .scale = 0.5, .parent = null}
//
// parsed with the language's own parser. Names inside a description need
// not be declared anywhere.
package resource

import (
	"fmt"
	"strconv"

	"github.com/you-not-fish/fieldc/internal/syntax"
)

// Doc is a parsed resource description.
type Doc struct {
	root *syntax.Scope
	val  Value
}

// Parse parses src as a single compound literal.
func Parse(name string, src []byte) (*Doc, error) {
	var lexErr error
	toks := syntax.Tokenize(name, src, func(pos syntax.Pos, msg string) {
		if lexErr == nil {
			lexErr = &syntax.SyntaxError{Pos: pos, Msg: msg}
		}
	})
	if lexErr != nil {
		return nil, lexErr
	}
	root, x, err := syntax.ParseFragment(name, toks, syntax.AllowUndeclared)
	if err != nil {
		return nil, err
	}
	if lit, ok := x.(*syntax.Literal); !ok || lit.LitKind != syntax.LitCompound || len(userNodes(root)) != 1 {
		return nil, fmt.Errorf("%s: resource description must be one compound literal", name)
	}
	return &Doc{root: root, val: Value{x}}, nil
}

func userNodes(root *syntax.Scope) []syntax.Node {
	var out []syntax.Node
	for _, n := range root.Nodes {
		switch d := n.(type) {
		case *syntax.TypeDecl:
			if d.IsBuiltin {
				continue
			}
		case *syntax.FuncDecl:
			if d.IsBuiltin {
				continue
			}
		}
		out = append(out, n)
	}
	return out
}

// Root returns the top-level compound.
func (d *Doc) Root() Value { return d.val }

// ----------------------------------------------------------------------------
// Values

// Value is one node of a description. The zero Value stands for a missing
// member and reads as null.
type Value struct {
	n syntax.Node
}

func (v Value) literal() *syntax.Literal {
	if v.n == nil {
		return nil
	}
	if l, ok := v.n.(*syntax.Literal); ok {
		return l
	}
	return syntax.EvalConstExpr(v.n)
}

// IsNull reports whether v is null or missing. The C spelling NULL counts
// as null.
func (v Value) IsNull() bool {
	if id, ok := v.n.(*syntax.Ident); ok {
		return id.Decl == nil && id.Name == "NULL"
	}
	l := v.literal()
	return v.n == nil || (l != nil && l.LitKind == syntax.LitNull)
}

// IsCompound reports whether v is a braced list.
func (v Value) IsCompound() bool {
	l, ok := v.n.(*syntax.Literal)
	return ok && l.LitKind == syntax.LitCompound
}

func (v Value) elems() []syntax.Node {
	if !v.IsCompound() {
		return nil
	}
	return v.n.(*syntax.Literal).Elems
}

// Len returns the number of elements of a compound, or 0.
func (v Value) Len() int { return len(v.elems()) }

// designated splits a .key = value element.
func designated(e syntax.Node) (string, syntax.Node, bool) {
	b, ok := e.(*syntax.Biop)
	if !ok || b.Op != syntax.Assign {
		return "", e, false
	}
	id, ok := b.Lhs.(*syntax.Ident)
	if !ok || !id.Designated {
		return "", e, false
	}
	return id.Name, b.Rhs, true
}

// Member returns the element designated .key, or the zero Value.
func (v Value) Member(key string) Value {
	for _, e := range v.elems() {
		if k, x, ok := designated(e); ok && k == key {
			return Value{x}
		}
	}
	return Value{}
}

// Index returns the i-th element, designated or not.
func (v Value) Index(i int) Value {
	elems := v.elems()
	if i < 0 || i >= len(elems) {
		return Value{}
	}
	_, x, _ := designated(elems[i])
	return Value{x}
}

// Key returns the designator of the i-th element, or "".
func (v Value) Key(i int) string {
	elems := v.elems()
	if i < 0 || i >= len(elems) {
		return ""
	}
	k, _, _ := designated(elems[i])
	return k
}

// Int returns the integer value of v. Constant sums and negations fold.
func (v Value) Int() (int64, bool) {
	l := v.literal()
	if l == nil || l.LitKind != syntax.LitInt {
		return 0, false
	}
	return l.Int, true
}

// Float returns the numeric value of v; integers convert.
func (v Value) Float() (float64, bool) {
	l := v.literal()
	switch {
	case l == nil:
		return 0, false
	case l.LitKind == syntax.LitFloat:
		return l.Float, true
	case l.LitKind == syntax.LitInt:
		return float64(l.Int), true
	}
	return 0, false
}

// Str returns the unquoted value of a string literal.
func (v Value) Str() (string, bool) {
	l := v.literal()
	if l == nil || l.LitKind != syntax.LitString {
		return "", false
	}
	s, err := strconv.Unquote(l.Str)
	if err != nil {
		return l.Str[1 : len(l.Str)-1], true
	}
	return s, true
}

// Bool returns the value of true or false.
func (v Value) Bool() (bool, bool) {
	l := v.literal()
	if l == nil || l.LitKind != syntax.LitBool {
		return false, false
	}
	return l.Bool, true
}

// Node returns the syntax node behind v, or nil.
func (v Value) Node() syntax.Node { return v.n }
