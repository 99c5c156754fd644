package codegen

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/you-not-fish/fieldc/internal/syntax"
)

// precPrimary binds tighter than any operator.
const precPrimary = syntax.PrecPostfix + 1

// ExprString returns the C spelling of the expression x. Subexpressions are
// parenthesized only where precedence requires it.
func ExprString(x syntax.Node) string {
	return expr(x)
}

// prec returns the precedence of the operator at the top of x.
func prec(x syntax.Node) int {
	switch x := x.(type) {
	case *syntax.Biop:
		switch {
		case x.Lhs == nil:
			return syntax.PrecUnary
		case x.Rhs == nil:
			return syntax.PrecPostfix
		}
		return x.Op.Precedence()
	case *syntax.Cast:
		return syntax.PrecUnary
	case *syntax.Access, *syntax.Call:
		return syntax.PrecPostfix
	}
	return precPrimary
}

// operand spells x as an operand of an operator of precedence p.
func operand(x syntax.Node, p int) string {
	s := expr(x)
	if prec(x) < p {
		return "(" + s + ")"
	}
	return s
}

func expr(x syntax.Node) string {
	switch x := x.(type) {
	case *syntax.Ident:
		if x.Designated {
			return "." + x.Name
		}
		return x.Name

	case *syntax.Literal:
		return literal(x)

	case *syntax.Biop:
		return biop(x)

	case *syntax.Call:
		args := make([]string, len(x.Args))
		for i, a := range x.Args {
			args[i] = operand(a, syntax.PrecAssign)
		}
		return callee(x) + "(" + strings.Join(args, ", ") + ")"

	case *syntax.Access:
		base := operand(x.Base, syntax.PrecPostfix)
		switch x.AccessKind {
		case syntax.AccessMember:
			return base + "." + expr(x.Args[0])
		case syntax.AccessPtrMember:
			return base + "->" + expr(x.Args[0])
		case syntax.AccessArray:
			return base + "[" + expr(x.Args[0]) + "]"
		}
		panic(fmt.Sprintf("codegen: element access at %s was not lowered", x.Pos()))

	case *syntax.Cast:
		return "(" + typeName(x.Type) + ")" + operand(x.Target, syntax.PrecUnary)

	case *syntax.Type:
		return typeName(x)

	case nil:
		return ""
	}
	panic(fmt.Sprintf("codegen: %s is not an expression", x.Kind()))
}

func biop(x *syntax.Biop) string {
	op := x.Op.String()
	switch {
	case x.Op == syntax.Sizeof:
		return "sizeof(" + expr(x.Rhs) + ")"
	case x.Lhs == nil:
		s := operand(x.Rhs, syntax.PrecUnary)
		// - -x must not become --x
		if strings.ContainsAny(op[len(op)-1:], "+-&") && strings.HasPrefix(s, op[len(op)-1:]) {
			return op + " " + s
		}
		return op + s
	case x.Rhs == nil:
		return operand(x.Lhs, syntax.PrecPostfix) + op
	}

	p := x.Op.Precedence()
	lp, rp := p, p+1 // left-associative
	if x.Op.IsAssign() {
		lp, rp = p+1, p
	}
	return operand(x.Lhs, lp) + " " + op + " " + operand(x.Rhs, rp)
}

// callee returns the name a call is emitted with. Builtin functions are
// replaced by their concrete implementation.
func callee(c *syntax.Call) string {
	fn, ok := c.Ident.Decl.(*syntax.FuncDecl)
	if !ok || !fn.IsBuiltin || fn.Builtin == syntax.BuiltinExtern {
		return c.Ident.Name
	}
	if fn.Concrete == nil {
		panic(fmt.Sprintf("codegen: builtin %s at %s was not lowered", fn.Ident.Name, c.Pos()))
	}
	return fn.Concrete.Ident.Name
}

func literal(l *syntax.Literal) string {
	switch l.LitKind {
	case syntax.LitInt:
		s := strconv.FormatInt(l.Int, 10)
		if l.Base != nil && l.Base.Builtin.IsUnsigned {
			s += "u"
		}
		return s
	case syntax.LitFloat:
		s := floatString(l.Float)
		if l.Base != nil && l.Base.Builtin.IsFloat && l.Base.Builtin.BitSize == 32 && !strings.HasPrefix(s, "(") {
			s += "f"
		}
		return s
	case syntax.LitString, syntax.LitChar:
		return l.Str
	case syntax.LitBool:
		return strconv.FormatBool(l.Bool)
	case syntax.LitNull:
		return "NULL"
	case syntax.LitCompound:
		elems := make([]string, len(l.Elems))
		for i, e := range l.Elems {
			elems[i] = expr(e)
		}
		return "{" + strings.Join(elems, ", ") + "}"
	}
	panic(fmt.Sprintf("codegen: unknown literal kind %d", l.LitKind))
}

// floatString spells f so that C reads it back as a floating constant.
func floatString(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "(1.0 / 0.0)"
	case math.IsInf(f, -1):
		return "(-1.0 / 0.0)"
	case math.IsNaN(f):
		return "(0.0 / 0.0)"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}
