package codegen

import (
	"fmt"
	"strings"

	"github.com/you-not-fish/fieldc/internal/syntax"
)

// cType returns the C spelling of t without array suffix: int, float *,
// struct P, float_matrix_2x2.
func cType(t *syntax.Type) string {
	if t == nil {
		panic("codegen: missing type")
	}
	var b strings.Builder
	if t.IsConst {
		b.WriteString("const ")
	}
	depth := t.PtrDepth
	switch {
	case t.Typedef != nil:
		b.WriteString(t.Typedef.Ident.Name)
		if t.Typedef.Type != nil {
			depth -= t.Typedef.Type.PtrDepth
		}
	case t.BaseDecl == nil:
		panic(fmt.Sprintf("codegen: unresolved type at %s", t.Pos()))
	default:
		b.WriteString(baseName(t.BaseDecl))
	}
	if depth > 0 {
		b.WriteString(" " + strings.Repeat("*", depth))
	}
	return b.String()
}

// baseName returns the C name of a struct or builtin type declaration.
// Matrix and field types are spelled through the typedef of their concrete
// struct.
func baseName(d *syntax.TypeDecl) string {
	switch {
	case !d.IsBuiltin:
		return "struct " + d.Ident.Name
	case d.Builtin.IsPrimitive():
		return d.Builtin.CName()
	case d.Concrete == nil:
		panic(fmt.Sprintf("codegen: builtin type %s was not lowered", d.Builtin))
	}
	return d.Concrete.Ident.Name
}

// arraySuffix returns the [N] suffix of an array declarator.
func arraySuffix(t *syntax.Type) string {
	if t.ArraySize == 0 || (t.Typedef != nil && t.Typedef.Type != nil && t.Typedef.Type.ArraySize != 0) {
		return ""
	}
	return fmt.Sprintf("[%d]", t.ArraySize)
}

// declarator returns "T name" for a declaration of name with type t.
func declarator(t *syntax.Type, name string) string {
	s := cType(t)
	if !strings.HasSuffix(s, "*") {
		s += " "
	}
	return s + name + arraySuffix(t)
}

// typeName returns the spelling of t as an abstract type, as used in casts
// and sizeof.
func typeName(t *syntax.Type) string {
	return cType(t) + arraySuffix(t)
}
