package syntax

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// ----------------------------------------------------------------------------
// Expressions

// expr parses an expression. hint is the type the context expects, used to
// pick between overloaded builtin functions; it may be nil.
func (p *Parser) expr(hint *Type) Node {
	return p.binaryExpr(PrecAssign, hint)
}

// binaryExpr parses operators of precedence prec and above by precedence
// climbing. Postfix forms bind tightest and are handled in the same loop.
func (p *Parser) binaryExpr(prec int, hint *Type) Node {
	start := p.cur
	x := p.unaryExpr(hint)
	if x == nil {
		return nil
	}
	for {
		y, applied := p.postfix(x, hint)
		if applied {
			if y == nil {
				p.cur = start
				return nil
			}
			x = y
			continue
		}
		if x == p.callee {
			p.errorAt(p.calleeAt, prioSyntax, "expected call")
			p.cur = start
			return nil
		}

		op := p.tok()
		oprec := op.Tok.Precedence()
		if oprec == precNone || oprec < prec {
			return x
		}
		p.next()
		next, rhint := oprec+1, (*Type)(nil)
		if op.Tok.IsAssign() {
			next, rhint = oprec, ExprType(x)
		}
		y = p.binaryExpr(next, rhint)
		if y == nil {
			p.rewind(start, x)
			return nil
		}
		z := p.binary(op, x, y)
		if z == nil {
			p.rewind(start, NewBiop(op, op.Tok, x, y))
			return nil
		}
		x = z
		hint = nil
	}
}

// binary builds x op y. A product of rank-2 matrices instantiates the
// multiply helper of the operand types; x *= y also needs the product to
// have the type of x.
func (p *Parser) binary(op *Lexeme, x, y Node) Node {
	if op.Tok != _Mul && op.Tok != _MulAssign {
		return NewBiop(op, op.Tok, x, y)
	}
	tx, okx := ExprType(x).Builtin()
	ty, oky := ExprType(y).Builtin()
	if okx && oky && tx.MatrixRank == 2 && ty.MatrixRank == 2 && !tx.IsField() && !ty.IsField() {
		dx := p.builtinType(tx)
		mul := p.builtins.Mul(dx, p.builtinType(ty))
		if mul == nil {
			p.errorf(prioSyntax, "matrix dimensions %s and %s do not match", tx, ty)
			return nil
		}
		if op.Tok == _MulAssign && mul.ReturnType.BaseDecl != dx {
			p.errorf(prioSyntax, "cannot assign %s product to %s", mul.ReturnType.BaseDecl.Builtin, tx)
			return nil
		}
	}
	return NewBiop(op, op.Tok, x, y)
}

// postfix applies one postfix form to x: a call, an element access, a
// member or array access, or ++ and --. It reports false when the current
// token does not continue x.
func (p *Parser) postfix(x Node, hint *Type) (Node, bool) {
	tok := p.tok()
	switch tok.Tok {
	case _Lparen:
		if x == p.callee {
			p.callee = nil
			return p.call(x.(*Ident), hint), true
		}
		t, ok := ExprType(x).Builtin()
		if !ok || t.IsPrimitive() {
			return x, false
		}
		p.next()
		args, ok := p.args()
		if !ok {
			return nil, true
		}
		want := t.MatrixRank
		if t.IsField() {
			want = t.FieldDim
		}
		if len(args) != want && !(len(args) == 1 && isIndexVector(args[0], want)) {
			p.errorf(prioSyntax, "%s takes %d indices, got %d", t, want, len(args))
			for _, a := range args {
				Destroy(a)
			}
			return nil, true
		}
		return NewAccess(tok, AccessElement, x, args...), true

	case _Lbrack:
		p.next()
		i := p.expr(nil)
		if i == nil {
			return nil, true
		}
		if !p.want(_Rbrack) {
			Destroy(i)
			return nil, true
		}
		return NewAccess(tok, AccessArray, x, i), true

	case _Dot, _Arrow:
		p.next()
		if !p.at(_Name) {
			p.errorf(prioSyntax, "expected member name")
			return nil, true
		}
		nameTok := p.tok()
		t := ExprType(x)
		kind := AccessMember
		if tok.Tok == _Arrow {
			kind = AccessPtrMember
			if t != nil && t.PtrDepth > 0 {
				t.PtrDepth--
			}
		}
		id := NewIdent(nameTok, nameTok.Lit)
		if m := Member(t, nameTok.Lit); m != nil {
			id.Decl = m
		} else if p.mode&AllowUndeclared == 0 {
			p.errorf(prioUndeclared, "undeclared member %s", nameTok.Lit)
			return nil, true
		}
		p.next()
		return NewAccess(tok, kind, x, id), true

	case _Inc, _Dec:
		p.next()
		return NewBiop(tok, tok.Tok, x, nil), true
	}
	return x, false
}

// isIndexVector reports whether x is a rank-1 integer matrix of n entries,
// usable as the whole index of an element access.
func isIndexVector(x Node, n int) bool {
	t, ok := ExprType(x).Builtin()
	return ok && !t.IsField() && t.MatrixRank == 1 && t.MatrixDim[0] == n && t.Scalar().IsInteger
}

// call parses the arguments of a call of id and resolves the callee by name,
// argument types and the context's type hint.
func (p *Parser) call(id *Ident, hint *Type) Node {
	at := p.calleeAt
	p.next()
	args, ok := p.args()
	if !ok {
		return nil
	}
	types := make([]*Type, len(args))
	for i, a := range args {
		types[i] = ExprType(a)
	}
	decl := p.resolve(Query{Name: id.Name, NS: ValueNames, Call: true, Args: types, Hint: hint})
	if decl == nil {
		if p.mode&AllowUndeclared == 0 {
			p.errorAt(at, prioUndeclared, "undeclared function "+id.Name)
			for _, a := range args {
				Destroy(a)
			}
			return nil
		}
	} else {
		id.Decl = decl
	}
	c := &Call{Ident: id, Args: args}
	c.tok = id.tok
	return c
}

// args parses a comma separated argument list after (, consuming the ).
func (p *Parser) args() ([]Node, bool) {
	args := make([]Node, 0)
	fail := func() ([]Node, bool) {
		for _, a := range args {
			Destroy(a)
		}
		return nil, false
	}
	for !p.at(_Rparen) {
		a := p.expr(nil)
		if a == nil {
			return fail()
		}
		args = append(args, a)
		if !p.got(_Comma) {
			break
		}
	}
	if !p.want(_Rparen) {
		return fail()
	}
	return args, true
}

// unaryExpr parses prefix operators, casts and sizeof.
func (p *Parser) unaryExpr(hint *Type) Node {
	start := p.cur
	tok := p.tok()
	switch tok.Tok {
	case _Sub, _Add, _Not, _Mul, _And, _Inc, _Dec, _Sizeof:
		p.next()
		if tok.Tok == _Sizeof && p.at(_Lparen) {
			save := p.cur
			p.next()
			if t := p.typeRef(); t != nil {
				if p.got(_Rparen) {
					return NewBiop(tok, _Sizeof, nil, t)
				}
				Destroy(t)
			}
			p.cur = save
		}
		x := p.binaryExpr(PrecPostfix, nil)
		if x == nil {
			p.cur = start
			return nil
		}
		return NewBiop(tok, tok.Tok, nil, x)

	case _Lparen:
		if t := p.castType(); t != nil {
			x := p.binaryExpr(PrecPostfix, nil)
			if x != nil {
				return NewCast(tok, t, x)
			}
			Destroy(t)
		}
		p.cur = start
	}
	return p.primary(hint)
}

// castType parses ( Type ) or rewinds.
func (p *Parser) castType() *Type {
	start := p.cur
	p.next()
	t := p.typeRef()
	if t == nil {
		p.cur = start
		return nil
	}
	if !p.got(_Rparen) {
		p.rewind(start, t)
		return nil
	}
	return t
}

// primary parses names, literals, compound literals and parenthesized
// expressions.
func (p *Parser) primary(hint *Type) Node {
	start := p.cur
	tok := p.tok()
	switch tok.Tok {
	case _Lparen:
		p.next()
		x := p.expr(hint)
		if x == nil {
			p.cur = start
			return nil
		}
		if !p.want(_Rparen) {
			p.rewind(start, x)
			return nil
		}
		return x

	case _Literal:
		return p.literal()

	case _True, _False:
		p.next()
		l := &Literal{LitKind: LitBool, Bool: tok.Tok == _True, Base: p.builtinType(mustPrimitive("bool"))}
		l.tok = tok
		return l

	case _Null:
		p.next()
		l := &Literal{LitKind: LitNull, Base: p.builtinType(mustPrimitive("void"))}
		l.tok = tok
		return l

	case _Lbrace:
		return p.compound(hint)

	case _Name:
		p.next()
		id := NewIdent(tok, tok.Lit)
		if p.at(_Lparen) {
			if v, ok := p.resolve(Query{Name: tok.Lit, NS: ValueNames}).(*VarDecl); ok {
				id.Decl = v
				return id
			}
			p.callee, p.calleeAt = id, start
			return id
		}
		d := p.resolve(Query{Name: tok.Lit, NS: ValueNames, Hint: hint})
		if d == nil {
			if p.isTypeName(tok.Lit) {
				p.errorAt(start, prioSyntax, "unexpected type name "+tok.Lit)
				p.cur = start
				return nil
			}
			if p.mode&AllowUndeclared != 0 {
				return id
			}
			p.errorAt(start, prioUndeclared, "undeclared identifier "+tok.Lit)
			p.cur = start
			return nil
		}
		id.Decl = d
		return id
	}
	p.errorf(prioSyntax, "expected expression")
	return nil
}

// isTypeName reports whether name spells a type in the current context.
func (p *Parser) isTypeName(name string) bool {
	if _, ok := PrimitiveType(name); ok {
		return true
	}
	return p.resolve(Query{Name: name, NS: TypeNames}) != nil
}

func mustPrimitive(name string) BuiltinType {
	t, ok := PrimitiveType(name)
	if !ok {
		panic("syntax: unknown primitive " + name)
	}
	return t
}

// literal converts a literal token.
func (p *Parser) literal() Node {
	tok := p.tok()
	l := &Literal{}
	l.tok = tok
	switch tok.Kind {
	case IntLit:
		text, base := tok.Lit, "int"
		if strings.HasSuffix(strings.ToLower(text), "u") {
			text, base = text[:len(text)-1], "uint"
		}
		v, err := strconv.ParseUint(text, 0, 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			p.errorf(prioSyntax, "invalid integer literal")
			return nil
		}
		if err != nil || v > math.MaxInt64 {
			p.errorf(prioSyntax, "integer literal %s out of range", tok.Lit)
			return nil
		}
		l.LitKind, l.Int = LitInt, int64(v)
		l.Base = p.builtinType(mustPrimitive(base))
	case FloatLit:
		text, base := tok.Lit, "double"
		if strings.HasSuffix(strings.ToLower(text), "f") {
			text, base = text[:len(text)-1], "float"
		}
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			p.errorf(prioSyntax, "invalid floating point literal")
			return nil
		}
		l.LitKind, l.Float = LitFloat, v
		l.Base = p.builtinType(mustPrimitive(base))
	case StringLit:
		l.LitKind, l.Str = LitString, tok.Lit
		l.Base = p.builtinType(mustPrimitive("char"))
	case CharLit:
		l.LitKind, l.Str = LitChar, tok.Lit
		l.Base = p.builtinType(mustPrimitive("char"))
	}
	p.next()
	return l
}

// compound parses { elem, .member = elem, ... }. A trailing comma is
// allowed.
func (p *Parser) compound(hint *Type) Node {
	start := p.cur
	c := NewCompound(p.tok())
	p.next()
	var elemHint *Type
	if hint != nil && hint.PtrDepth == 0 {
		if hint.ArraySize > 0 {
			elemHint = copyType(hint)
			elemHint.ArraySize = 0
		} else {
			c.Base = hint.BaseDecl
		}
	}
	for !p.at(_Rbrace) {
		var el Node
		if p.at(_Dot) && p.peek(1).Tok == _Name && p.peek(2).Tok == _Assign {
			p.next()
			nameTok := p.tok()
			p.next()
			eq := p.tok()
			p.next()
			id := NewIdent(nameTok, nameTok.Lit)
			id.Designated = true
			var mt *Type
			if m := Member(hint, nameTok.Lit); m != nil {
				id.Decl, mt = m, m.Type
			}
			v := p.expr(mt)
			if v == nil {
				p.rewind(start, c)
				return nil
			}
			el = NewBiop(eq, _Assign, id, v)
		} else {
			el = p.expr(elemHint)
			if el == nil {
				p.rewind(start, c)
				return nil
			}
		}
		c.Elems = append(c.Elems, el)
		if !p.got(_Comma) {
			break
		}
	}
	if !p.want(_Rbrace) {
		p.rewind(start, c)
		return nil
	}
	return c
}
