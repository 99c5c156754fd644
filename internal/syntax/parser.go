package syntax

import "fmt"

// Mode controls optional parser behaviour.
type Mode uint

const (
	// AllowUndeclared leaves identifiers that resolve to nothing unresolved
	// instead of failing. Used for fragments parsed outside their context.
	AllowUndeclared Mode = 1 << iota
)

// Parser is a backtracking recursive-descent parser over a token slice.
// Names are resolved while parsing; every grammar rule records where it
// started and rewinds there when it fails.
type Parser struct {
	filename string
	all      []Lexeme // full token slice, comments included; borrowed
	toks     []int    // indices into all of the non-comment tokens
	cur      int      // current index into toks
	mode     Mode

	errh func(pos Pos, msg string)

	pm       *ParentMap
	builtins *Builtins
	open     []Node // nodes under construction that open a naming context

	callee   *Ident // identifier parsed in call position, awaiting its arguments
	calleeAt int

	// Pending error: the furthest failure since the last committed statement.
	err     *SyntaxError
	errAt   int
	errPrio int

	attached []bool // comments already attached to a node, by index into all
}

// NewParser creates a Parser for the tokens of filename. The errh function,
// if not nil, is called once with the reported error when parsing fails.
func NewParser(filename string, toks []Lexeme, mode Mode, errh func(pos Pos, msg string)) *Parser {
	if len(toks) == 0 || toks[len(toks)-1].Tok != _EOF {
		eof := Lexeme{Tok: _EOF}
		if len(toks) > 0 {
			eof.Pos = toks[len(toks)-1].Pos
		}
		toks = append(toks[:len(toks):len(toks)], eof)
	}
	p := &Parser{
		filename: filename,
		all:      toks,
		mode:     mode,
		errh:     errh,
		pm:       NewParentMap(),
		builtins: NewBuiltins(),
		attached: make([]bool, len(toks)),
	}
	for i := range toks {
		if toks[i].Tok != _Comment {
			p.toks = append(p.toks, i)
		}
	}
	return p
}

// Parse parses a complete translation unit. On success the builtin
// declarations the program uses are inserted at the front of the root
// scope.
func Parse(filename string, toks []Lexeme, mode Mode) (*Scope, error) {
	return NewParser(filename, toks, mode, nil).Parse()
}

// ParseFragment parses a standalone expression, or failing that a list of
// statements. It returns the root scope holding the fragment and the
// expression or first statement parsed.
func ParseFragment(filename string, toks []Lexeme, mode Mode) (*Scope, Node, error) {
	return NewParser(filename, toks, mode, nil).ParseFragment()
}

// ParseFile tokenizes and parses src. Lexical errors are fatal.
func ParseFile(filename string, src []byte, mode Mode) (*Scope, error) {
	var first error
	toks := Tokenize(filename, src, func(pos Pos, msg string) {
		if first == nil {
			first = &SyntaxError{Pos: pos, Msg: msg}
		}
	})
	if first != nil {
		return nil, first
	}
	return Parse(filename, toks, mode)
}

// ParentMap returns the parent map built while parsing.
func (p *Parser) ParentMap() *ParentMap {
	return p.pm
}

// Parse parses the token slice as a translation unit.
func (p *Parser) Parse() (*Scope, error) {
	if err := p.lexicalError(); err != nil {
		return nil, err
	}
	root := p.beginRoot()
	for !p.at(_EOF) {
		s := p.statement()
		if s == nil {
			return nil, p.fail()
		}
		root.Nodes = append(root.Nodes, s)
	}
	p.closeScope(root)
	return p.finish(root), nil
}

// ParseFragment parses the token slice as a fragment.
func (p *Parser) ParseFragment() (*Scope, Node, error) {
	if err := p.lexicalError(); err != nil {
		return nil, nil, err
	}
	root := p.beginRoot()
	if x := p.expr(nil); x != nil {
		p.got(_Semi)
		if p.at(_EOF) {
			root.Nodes = append(root.Nodes, x)
			return p.finish(root), x, nil
		}
	}
	p.cur = 0
	p.clearError()
	for !p.at(_EOF) {
		s := p.statement()
		if s == nil {
			return nil, nil, p.fail()
		}
		root.Nodes = append(root.Nodes, s)
	}
	if len(root.Nodes) == 0 {
		p.errorf(prioSyntax, "empty fragment")
		return nil, nil, p.fail()
	}
	first := root.Nodes[0]
	return p.finish(root), first, nil
}

func (p *Parser) beginRoot() *Scope {
	root := NewScope(p.tok())
	root.IsRoot = true
	p.open = []Node{root}
	return root
}

func (p *Parser) finish(root *Scope) *Scope {
	root.Nodes = append(p.builtins.Decls(), root.Nodes...)
	p.pm.Builtins = nil
	p.pm.Build(root)
	return root
}

func (p *Parser) lexicalError() error {
	for i := range p.all {
		if p.all[i].Tok == _Error {
			err := &SyntaxError{Pos: p.all[i].Pos, Near: p.all[i].Lit, Msg: "invalid token"}
			p.report(err)
			return err
		}
	}
	return nil
}

// ----------------------------------------------------------------------------
// Token navigation

// tok returns the current token.
func (p *Parser) tok() *Lexeme {
	return &p.all[p.toks[p.cur]]
}

// peek returns the token k positions after the current one.
func (p *Parser) peek(k int) *Lexeme {
	i := p.cur + k
	if i >= len(p.toks) {
		i = len(p.toks) - 1
	}
	return &p.all[p.toks[i]]
}

func (p *Parser) next() {
	if p.cur < len(p.toks)-1 {
		p.cur++
	}
}

func (p *Parser) at(tok Token) bool {
	return p.tok().Tok == tok
}

// got reports whether the current token is tok.
// If so, it consumes the token and returns true.
func (p *Parser) got(tok Token) bool {
	if p.at(tok) {
		p.next()
		return true
	}
	return false
}

// want consumes the current token if it matches tok.
// Otherwise, it records an error and returns false.
func (p *Parser) want(tok Token) bool {
	if p.got(tok) {
		return true
	}
	p.errorf(prioSyntax, "expected %s", tok)
	return false
}

// ----------------------------------------------------------------------------
// Error handling

// errorf records an error at the current token.
func (p *Parser) errorf(prio int, format string, args ...any) {
	p.errorAt(p.cur, prio, fmt.Sprintf(format, args...))
}

// errorAt records an error at token index at. The pending error is replaced
// by one further into the input, or by one of higher priority.
func (p *Parser) errorAt(at, prio int, msg string) {
	if p.err != nil && at < p.errAt && prio <= p.errPrio {
		return
	}
	if p.err != nil && at == p.errAt && prio < p.errPrio {
		return
	}
	tok := &p.all[p.toks[at]]
	near := tok.Lit
	if tok.Tok == _EOF {
		near = ""
	}
	p.err = &SyntaxError{Pos: tok.Pos, Near: near, Msg: msg}
	p.errAt, p.errPrio = at, prio
}

func (p *Parser) clearError() {
	p.err = nil
	p.errAt, p.errPrio = 0, 0
}

// fail returns the pending error, reporting it through errh.
func (p *Parser) fail() error {
	err := p.err
	if err == nil {
		tok := p.tok()
		err = &SyntaxError{Pos: tok.Pos, Near: tok.Lit, Msg: "syntax error"}
	}
	p.report(err)
	return err
}

func (p *Parser) report(err *SyntaxError) {
	if p.errh != nil {
		p.errh(err.Pos, err.Msg)
	}
}

// ----------------------------------------------------------------------------
// Naming contexts

// top returns the innermost open node; lookups start there.
func (p *Parser) top() Node {
	return p.open[len(p.open)-1]
}

// push opens a naming context for n, a child of the current one.
func (p *Parser) push(n Node) {
	p.pm.Set(n, p.top())
	p.open = append(p.open, n)
}

func (p *Parser) pop() {
	p.open = p.open[:len(p.open)-1]
}

// rewind moves the cursor back to start and discards the partial node n.
func (p *Parser) rewind(start int, n Node) {
	p.cur = start
	if n != nil {
		p.pm.Forget(n)
		Destroy(n)
	}
}

// enclosingFunc returns the function whose body is being parsed, or nil.
func (p *Parser) enclosingFunc() *FuncDecl {
	for i := len(p.open) - 1; i >= 0; i-- {
		if fn, ok := p.open[i].(*FuncDecl); ok {
			return fn
		}
	}
	return nil
}

// resolve looks up q from the current context.
func (p *Parser) resolve(q Query) Node {
	return Select(p.visible(), q)
}

func (p *Parser) visible() []Node {
	return append(p.pm.Visible(p.top()), p.builtins.decls...)
}

// builtinType returns the deduplicated declaration of t.
func (p *Parser) builtinType(t BuiltinType) *TypeDecl {
	return p.builtins.Type(t)
}

// ----------------------------------------------------------------------------
// Comments

// attachComments binds the unattached comments right before token start to
// n, and the comments trailing token end-1 on the same line.
func (p *Parser) attachComments(n Node, start, end int) {
	first := p.toks[start]
	var lead []*Lexeme
	for i := first - 1; i >= 0 && p.all[i].Tok == _Comment && !p.attached[i]; i-- {
		lead = append(lead, &p.all[i])
		p.attached[i] = true
	}
	for i := len(lead) - 1; i >= 0; i-- {
		AddLeading(n, lead[i])
	}
	if len(lead) > 0 {
		SetBlankBefore(n, lead[len(lead)-1].EmptyLineBefore)
	} else {
		SetBlankBefore(n, p.all[first].EmptyLineBefore)
	}
	if end <= start {
		return
	}
	last := p.toks[end-1]
	for i := last + 1; i < len(p.all) && p.all[i].Tok == _Comment && !p.all[i].BindNext && !p.attached[i]; i++ {
		AddTrailing(n, &p.all[i])
		p.attached[i] = true
	}
}

// closeScope binds the comments before the closing token of s to s.
func (p *Parser) closeScope(s *Scope) {
	var tail []*Lexeme
	for i := p.toks[p.cur] - 1; i >= 0 && p.all[i].Tok == _Comment && !p.attached[i]; i-- {
		tail = append(tail, &p.all[i])
		p.attached[i] = true
	}
	for i := len(tail) - 1; i >= 0; i-- {
		AddTrailing(s, tail[i])
	}
}

// ----------------------------------------------------------------------------
// Statements

// statement parses one statement, trying each alternative in turn.
func (p *Parser) statement() Node {
	start := p.cur
	if p.at(_Semi) {
		p.errorf(prioSyntax, "empty statement")
		return nil
	}
	alts := [...]func() Node{
		p.typeDeclStmt,
		p.typedefStmt,
		p.varDeclStmt,
		p.funcDeclStmt,
		p.exprStmt,
		p.controlStmt,
		p.scopeStmt,
		p.condStmt,
		p.loopStmt,
		p.parallelStmt,
	}
	for _, alt := range alts {
		p.cur = start
		p.callee = nil
		if n := alt(); n != nil {
			p.attachComments(n, start, p.cur)
			p.clearError()
			return n
		}
	}
	p.cur = start
	return nil
}

// scopeStmt parses { statements }.
func (p *Parser) scopeStmt() Node {
	if s := p.scope(); s != nil {
		return s
	}
	return nil
}

func (p *Parser) scope() *Scope {
	start := p.cur
	if !p.at(_Lbrace) {
		p.errorf(prioSyntax, "expected {")
		return nil
	}
	s := NewScope(p.tok())
	p.next()
	p.push(s)
	defer p.pop()
	for !p.at(_Rbrace) {
		if p.at(_EOF) {
			p.errorf(prioSyntax, "expected }")
			p.rewind(start, s)
			return nil
		}
		n := p.statement()
		if n == nil {
			p.rewind(start, s)
			return nil
		}
		s.Nodes = append(s.Nodes, n)
	}
	p.closeScope(s)
	p.next()
	return s
}

// exprStmt parses expression ;
func (p *Parser) exprStmt() Node {
	start := p.cur
	x := p.expr(nil)
	if x == nil {
		return nil
	}
	if !p.want(_Semi) {
		p.rewind(start, x)
		return nil
	}
	return x
}

// controlStmt parses return, break, continue, goto and labels.
func (p *Parser) controlStmt() Node {
	start := p.cur
	tok := p.tok()
	switch tok.Tok {
	case _Return:
		p.next()
		c := NewControl(tok, CtrlReturn, nil)
		if !p.at(_Semi) {
			var hint *Type
			if fn := p.enclosingFunc(); fn != nil {
				hint = fn.ReturnType
			}
			x := p.expr(hint)
			if x == nil {
				p.cur = start
				return nil
			}
			c.Value = x
		}
		if !p.want(_Semi) {
			p.rewind(start, c)
			return nil
		}
		return c

	case _Break, _Continue:
		p.next()
		if !p.want(_Semi) {
			p.cur = start
			return nil
		}
		kind := CtrlBreak
		if tok.Tok == _Continue {
			kind = CtrlContinue
		}
		return NewControl(tok, kind, nil)

	case _Goto:
		p.next()
		if !p.at(_Name) {
			p.errorf(prioSyntax, "expected label name")
			p.cur = start
			return nil
		}
		label := NewIdent(p.tok(), p.tok().Lit)
		p.next()
		if !p.want(_Semi) {
			p.cur = start
			return nil
		}
		return NewControl(tok, CtrlGoto, label)

	case _Name:
		if p.peek(1).Tok != _Colon {
			p.errorf(prioSyntax, "expected statement")
			return nil
		}
		p.next()
		p.next()
		return NewControl(tok, CtrlLabel, NewIdent(tok, tok.Lit))
	}
	p.errorf(prioSyntax, "expected statement")
	return nil
}

// condStmt parses if (expr) stmt [else stmt].
func (p *Parser) condStmt() Node {
	start := p.cur
	tok := p.tok()
	if !p.got(_If) {
		p.errorf(prioSyntax, "expected if")
		return nil
	}
	if !p.want(_Lparen) {
		p.cur = start
		return nil
	}
	x := p.expr(nil)
	if x == nil {
		p.cur = start
		return nil
	}
	c := NewCond(tok, x, nil)
	if !p.want(_Rparen) {
		p.rewind(start, c)
		return nil
	}
	body := p.statement()
	if body == nil {
		p.rewind(start, c)
		return nil
	}
	c.Body = body
	if p.got(_Else) {
		els := p.statement()
		if els == nil {
			p.rewind(start, c)
			return nil
		}
		c.AfterElse = els
	}
	return c
}

// loopStmt parses for (init; cond; incr) stmt and while (cond) stmt.
func (p *Parser) loopStmt() Node {
	start := p.cur
	tok := p.tok()
	switch {
	case p.got(_While):
		if !p.want(_Lparen) {
			p.cur = start
			return nil
		}
		x := p.expr(nil)
		if x == nil {
			p.cur = start
			return nil
		}
		l := NewLoop(tok, nil, x, nil, nil)
		l.IsWhile = true
		if !p.want(_Rparen) {
			p.rewind(start, l)
			return nil
		}
		p.push(l)
		body := p.statement()
		p.pop()
		if body == nil {
			p.rewind(start, l)
			return nil
		}
		l.Body = body
		return l

	case p.got(_For):
		if !p.want(_Lparen) {
			p.cur = start
			return nil
		}
		l := NewLoop(tok, nil, nil, nil, nil)
		p.push(l)
		defer p.pop()
		if !p.got(_Semi) {
			init := p.loopInit()
			if init == nil {
				p.rewind(start, l)
				return nil
			}
			l.Init = init
		}
		if !p.at(_Semi) {
			if l.Cond = p.expr(nil); l.Cond == nil {
				p.rewind(start, l)
				return nil
			}
		}
		if !p.want(_Semi) {
			p.rewind(start, l)
			return nil
		}
		if !p.at(_Rparen) {
			if l.Incr = p.expr(nil); l.Incr == nil {
				p.rewind(start, l)
				return nil
			}
		}
		if !p.want(_Rparen) {
			p.rewind(start, l)
			return nil
		}
		body := p.statement()
		if body == nil {
			p.rewind(start, l)
			return nil
		}
		l.Body = body
		return l
	}
	p.errorf(prioSyntax, "expected for or while")
	return nil
}

// loopInit parses the declaration or expression before the first ; of a
// for header, consuming the ;.
func (p *Parser) loopInit() Node {
	start := p.cur
	if d := p.varDecl(true); d != nil {
		if p.got(_Semi) {
			return d
		}
		p.rewind(start, d)
	}
	p.cur = start
	x := p.expr(nil)
	if x == nil {
		return nil
	}
	if !p.want(_Semi) {
		p.rewind(start, x)
		return nil
	}
	return x
}

// parallelStmt parses for_field (outputs; inputs) { body }.
func (p *Parser) parallelStmt() Node {
	start := p.cur
	tok := p.tok()
	if !p.got(_ForField) {
		p.errorf(prioSyntax, "expected for_field")
		return nil
	}
	if !p.want(_Lparen) {
		p.cur = start
		return nil
	}
	par := NewParallel(tok)
	p.push(par)
	defer p.pop()

	outs, ok := p.fieldList(_Semi)
	if !ok || !p.want(_Semi) {
		p.rewind(start, par)
		return nil
	}
	if len(outs) == 0 {
		p.errorf(prioSyntax, "for_field needs at least one output")
		p.rewind(start, par)
		return nil
	}
	par.Outputs = outs
	ins, ok := p.fieldList(_Rparen)
	if !ok || !p.want(_Rparen) {
		p.rewind(start, par)
		return nil
	}
	par.Inputs = ins

	t, _ := ExprType(outs[0]).Builtin()
	par.Dim = t.FieldDim
	idxType := NewType(tok, p.builtinType(MatrixOf(p.intType(), par.Dim)))
	par.Index = NewVarDecl(tok, idxType, "id")
	p.pm.Set(par.Index, par)

	body := p.scope()
	if body == nil {
		p.rewind(start, par)
		return nil
	}
	par.Body = body
	return par
}

// fieldList parses field-typed expressions separated by commas up to end.
// All fields must have the same number of dimensions.
func (p *Parser) fieldList(end Token) ([]Node, bool) {
	var list []Node
	dim := 0
	for !p.at(end) {
		at := p.cur
		x := p.expr(nil)
		if x == nil {
			return nil, false
		}
		t, ok := ExprType(x).Builtin()
		if !ok || !t.IsField() {
			p.errorAt(at, prioSyntax, "for_field operand is not a field")
			return nil, false
		}
		if dim != 0 && t.FieldDim != dim {
			p.errorAt(at, prioSyntax, "for_field operands differ in dimension")
			return nil, false
		}
		dim = t.FieldDim
		list = append(list, x)
		if !p.got(_Comma) {
			break
		}
	}
	return list, true
}

func (p *Parser) intType() BuiltinType {
	t, _ := PrimitiveType("int")
	return t
}
