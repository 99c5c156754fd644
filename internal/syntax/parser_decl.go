package syntax

// ----------------------------------------------------------------------------
// Declarations

// typeDeclStmt parses struct Name { members }; and struct Name;
func (p *Parser) typeDeclStmt() Node {
	start := p.cur
	if !p.got(_Struct) {
		p.errorf(prioSyntax, "expected struct")
		return nil
	}
	if !p.at(_Name) {
		p.errorf(prioSyntax, "expected struct name")
		p.cur = start
		return nil
	}
	nameTok := p.tok()
	p.next()
	d := NewTypeDecl(nameTok, nameTok.Lit)
	if p.got(_Semi) {
		return d
	}
	if !p.at(_Lbrace) {
		p.errorf(prioSyntax, "expected { or ;")
		p.cur = start
		return nil
	}
	body := NewScope(p.tok())
	p.next()
	d.Body = body
	p.push(d)
	defer p.pop()
	p.push(body)
	defer p.pop()

	for !p.at(_Rbrace) {
		mstart := p.cur
		m := p.varDecl(false)
		if m == nil {
			p.rewind(start, d)
			return nil
		}
		if !p.want(_Semi) {
			p.rewind(start, d)
			Destroy(m)
			return nil
		}
		p.attachComments(m, mstart, p.cur)
		p.pm.Set(m, body)
		body.Nodes = append(body.Nodes, m)
	}
	p.closeScope(body)
	p.next()
	if !p.want(_Semi) {
		p.rewind(start, d)
		return nil
	}
	return d
}

// typedefStmt parses typedef Type Name;
func (p *Parser) typedefStmt() Node {
	start := p.cur
	tok := p.tok()
	if !p.got(_Typedef) {
		p.errorf(prioSyntax, "expected typedef")
		return nil
	}
	t := p.typeRef()
	if t == nil {
		p.cur = start
		return nil
	}
	if !p.at(_Name) {
		p.errorf(prioSyntax, "expected type name")
		p.rewind(start, t)
		return nil
	}
	nameTok := p.tok()
	p.next()
	if p.got(_Lbrack) {
		n := p.constInt()
		if n == 0 || !p.want(_Rbrack) {
			p.rewind(start, t)
			return nil
		}
		t.ArraySize = n
	}
	if !p.want(_Semi) {
		p.rewind(start, t)
		return nil
	}
	td := NewTypedef(nameTok, t, nameTok.Lit)
	SetAnchor(td, tok)
	return td
}

// varDeclStmt parses Type name [= value];
func (p *Parser) varDeclStmt() Node {
	start := p.cur
	d := p.varDecl(true)
	if d == nil {
		return nil
	}
	if !p.want(_Semi) {
		p.rewind(start, d)
		return nil
	}
	return d
}

// varDecl parses Type name [N] [= value] without the terminator.
func (p *Parser) varDecl(withInit bool) *VarDecl {
	start := p.cur
	t := p.typeRef()
	if t == nil {
		return nil
	}
	if !p.at(_Name) {
		p.errorf(prioSyntax, "expected name")
		p.rewind(start, t)
		return nil
	}
	nameTok := p.tok()
	p.next()
	d := NewVarDecl(nameTok, t, nameTok.Lit)
	if p.got(_Lbrack) {
		n := p.constInt()
		if n == 0 || !p.want(_Rbrack) {
			p.rewind(start, d)
			return nil
		}
		t.ArraySize = n
	}
	if withInit && p.got(_Assign) {
		v := p.expr(t)
		if v == nil {
			p.rewind(start, d)
			return nil
		}
		d.Value = v
	}
	return d
}

// funcDeclStmt parses Type name(params) { body } and prototypes.
func (p *Parser) funcDeclStmt() Node {
	start := p.cur
	ret := p.typeRef()
	if ret == nil {
		return nil
	}
	if !p.at(_Name) || p.peek(1).Tok != _Lparen {
		p.errorf(prioSyntax, "expected function name")
		p.rewind(start, ret)
		return nil
	}
	nameTok := p.tok()
	p.next()
	p.next()
	fn := NewFuncDecl(nameTok, ret, nameTok.Lit)
	p.push(fn)
	defer p.pop()

	if p.at(_Name) && p.tok().Lit == "void" && p.peek(1).Tok == _Rparen {
		p.next()
	}
	for !p.at(_Rparen) {
		param := p.varDecl(false)
		if param == nil {
			p.rewind(start, fn)
			return nil
		}
		p.pm.Set(param, fn)
		fn.Params = append(fn.Params, param)
		if !p.got(_Comma) {
			break
		}
	}
	if !p.want(_Rparen) {
		p.rewind(start, fn)
		return nil
	}
	if p.got(_Semi) {
		return fn
	}
	body := p.scope()
	if body == nil {
		p.rewind(start, fn)
		return nil
	}
	fn.Body = body
	return fn
}

// ----------------------------------------------------------------------------
// Types

// typeRef parses [const] TypeName {*}. TypeName is a primitive, a struct,
// a typedef, or a matrix or field specification.
func (p *Parser) typeRef() *Type {
	start := p.cur
	isConst := p.got(_Const)
	tok := p.tok()
	var t *Type
	switch tok.Tok {
	case _Matrix, _Field:
		bt, ok := p.builtinSpec()
		if !ok {
			p.cur = start
			return nil
		}
		t = NewType(tok, p.builtinType(bt))

	case _Struct:
		p.next()
		if !p.at(_Name) {
			p.errorf(prioSyntax, "expected struct name")
			p.cur = start
			return nil
		}
		name := p.tok().Lit
		d, _ := p.resolve(Query{Name: name, NS: TypeNames}).(*TypeDecl)
		if d == nil {
			p.errorf(prioUndeclared, "undeclared struct %s", name)
			p.cur = start
			return nil
		}
		p.next()
		t = NewType(tok, d)

	case _Name:
		t = p.namedType(tok)
		if t == nil {
			p.cur = start
			return nil
		}
		p.next()

	default:
		p.errorf(prioSyntax, "expected type")
		p.cur = start
		return nil
	}
	if isConst {
		t.IsConst = true
	}
	for p.got(_Mul) {
		t.PtrDepth++
	}
	return t
}

// namedType resolves a type spelled by a single name.
func (p *Parser) namedType(tok *Lexeme) *Type {
	if bt, ok := PrimitiveType(tok.Lit); ok {
		return NewType(tok, p.builtinType(bt))
	}
	switch d := p.resolve(Query{Name: tok.Lit, NS: TypeNames}).(type) {
	case *TypeDecl:
		return NewType(tok, d)
	case *Typedef:
		t := copyType(d.Type)
		t.tok = tok
		t.Typedef = d
		return t
	}
	p.errorf(prioSyntax, "unknown type %s", tok.Lit)
	return nil
}

// builtinSpec parses matrix(T, d0, ...) or field(T, N); the element type
// is optional and defaults to float.
func (p *Parser) builtinSpec() (BuiltinType, bool) {
	kw := p.tok().Tok
	p.next()
	if !p.want(_Lparen) {
		return BuiltinType{}, false
	}
	elem, _ := PrimitiveType("float")
	save := p.cur
	if et, ok := p.elemSpec(kw); ok && p.got(_Comma) {
		elem = et
	} else {
		p.cur = save
	}

	var t BuiltinType
	if kw == _Matrix {
		var dims []int
		for {
			if len(dims) == MaxMatrixRank {
				p.errorf(prioSyntax, "matrix has more than %d dimensions", MaxMatrixRank)
				return BuiltinType{}, false
			}
			d := p.constInt()
			if d == 0 {
				return BuiltinType{}, false
			}
			dims = append(dims, d)
			if !p.got(_Comma) {
				break
			}
		}
		t = MatrixOf(elem, dims...)
	} else {
		n := p.constInt()
		if n == 0 {
			return BuiltinType{}, false
		}
		t = FieldOf(elem, n)
	}
	if !p.want(_Rparen) {
		return BuiltinType{}, false
	}
	return t, true
}

// elemSpec parses the element type of a matrix (a primitive) or a field
// (a primitive or a matrix).
func (p *Parser) elemSpec(kw Token) (BuiltinType, bool) {
	tok := p.tok()
	switch {
	case tok.Tok == _Name:
		t, ok := PrimitiveType(tok.Lit)
		if !ok || t.IsVoid {
			return BuiltinType{}, false
		}
		p.next()
		return t, true
	case tok.Tok == _Matrix && kw == _Field:
		return p.builtinSpec()
	}
	return BuiltinType{}, false
}

// constInt parses a constant expression evaluating to a positive integer.
// It returns 0 after recording an error otherwise.
func (p *Parser) constInt() int {
	at := p.cur
	x := p.binaryExpr(PrecOrOr, nil)
	if x == nil {
		return 0
	}
	v := EvalConstExpr(x)
	Destroy(x)
	if v == nil || v.LitKind != LitInt || v.Int <= 0 {
		p.errorAt(at, prioSyntax, "expected positive integer constant")
		return 0
	}
	return int(v.Int)
}
