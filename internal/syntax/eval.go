package syntax

// EvalConstExpr folds integer and floating point literals combined with
// unary and binary + and -. It returns nil for any other operator or
// non-constant operand. The result is always a fresh literal.
func EvalConstExpr(e Node) *Literal {
	switch e := e.(type) {
	case *Literal:
		switch e.LitKind {
		case LitInt:
			return NewIntLiteral(e.tok, e.Int, e.Base)
		case LitFloat:
			return NewFloatLiteral(e.tok, e.Float, e.Base)
		}
		return nil

	case *Biop:
		if e.Op != _Add && e.Op != _Sub {
			return nil
		}
		if e.Lhs == nil {
			v := EvalConstExpr(e.Rhs)
			if v != nil && e.Op == _Sub {
				v.Int, v.Float = -v.Int, -v.Float
			}
			if v != nil {
				v.tok = e.tok
			}
			return v
		}
		if e.Rhs == nil {
			return nil
		}
		l := EvalConstExpr(e.Lhs)
		r := EvalConstExpr(e.Rhs)
		if l == nil || r == nil {
			return nil
		}
		if l.LitKind == LitInt && r.LitKind == LitInt {
			v := l.Int + r.Int
			if e.Op == _Sub {
				v = l.Int - r.Int
			}
			return NewIntLiteral(e.tok, v, l.Base)
		}
		lf, rf := l.asFloat(), r.asFloat()
		v := lf + rf
		if e.Op == _Sub {
			v = lf - rf
		}
		base := l.Base
		if l.LitKind != LitFloat {
			base = r.Base
		}
		return NewFloatLiteral(e.tok, v, base)
	}
	return nil
}

func (l *Literal) asFloat() float64 {
	if l.LitKind == LitInt {
		return float64(l.Int)
	}
	return l.Float
}
