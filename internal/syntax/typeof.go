package syntax

// ExprType infers the type of an expression. The result is always a fresh
// Type node the caller owns; nil means the type is unknown.
func ExprType(e Node) *Type {
	switch e := e.(type) {
	case *Ident:
		switch d := e.Decl.(type) {
		case *VarDecl:
			return copyType(d.Type)
		case *FuncDecl:
			return copyType(d.ReturnType)
		}
		return nil

	case *Literal:
		if e.Base == nil {
			return nil
		}
		t := NewType(e.tok, e.Base)
		switch e.LitKind {
		case LitString, LitNull:
			t.PtrDepth = 1
		case LitCompound:
			return nil
		}
		return t

	case *Access:
		switch e.AccessKind {
		case AccessMember, AccessPtrMember:
			if len(e.Args) == 0 {
				return nil
			}
			return ExprType(e.Args[0])
		case AccessArray:
			t := ExprType(e.Base)
			if t == nil {
				return nil
			}
			if t.ArraySize > 0 {
				t.ArraySize = 0
			} else if t.PtrDepth > 0 {
				t.PtrDepth--
			} else {
				return nil
			}
			return t
		case AccessElement:
			t := ExprType(e.Base)
			if t == nil || t.BaseDecl == nil || t.BaseDecl.Elem == nil {
				return nil
			}
			return NewType(e.tok, t.BaseDecl.Elem)
		}
		return nil

	case *Call:
		if fn, ok := e.Ident.Decl.(*FuncDecl); ok {
			return copyType(fn.ReturnType)
		}
		return nil

	case *Biop:
		switch {
		case e.Lhs == nil:
			t := ExprType(e.Rhs)
			if t == nil {
				return nil
			}
			switch e.Op {
			case _Mul:
				if t.PtrDepth == 0 {
					return nil
				}
				t.PtrDepth--
			case _And:
				t.PtrDepth++
			}
			return t
		case e.Rhs == nil:
			return ExprType(e.Lhs)
		case e.Op.IsAssign():
			return ExprType(e.Lhs)
		}
		if t := ExprType(e.Lhs); t != nil {
			return t
		}
		return ExprType(e.Rhs)

	case *Cast:
		return copyType(e.Type)
	}
	return nil
}

func copyType(t *Type) *Type {
	if t == nil {
		return nil
	}
	c := *t
	c.pre, c.post = nil, nil
	return &c
}

// TypesEqual reports whether a and b denote the same type: identical base
// declaration, pointer depth, array size and constness.
func TypesEqual(a, b *Type) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.BaseDecl == b.BaseDecl &&
		a.PtrDepth == b.PtrDepth &&
		a.ArraySize == b.ArraySize &&
		a.IsConst == b.IsConst
}

// Builtin returns the builtin descriptor of a plain (non-pointer) builtin
// type, or false.
func (t *Type) Builtin() (BuiltinType, bool) {
	if t == nil || t.BaseDecl == nil || !t.BaseDecl.IsBuiltin || t.PtrDepth != 0 || t.ArraySize != 0 {
		return BuiltinType{}, false
	}
	return t.BaseDecl.Builtin, true
}
