package syntax

import "fmt"

// ----------------------------------------------------------------------------
// Interfaces
//
// The AST is a sum type over 16 variants. Every variant embeds node, which
// carries the anchor token, the attached comments and a free-form attribute.
//
// Edges come in two flavours. Subnodes are owned: copying a node copies its
// subnodes, destroying it destroys them. Refnodes (resolved declarations,
// typedef chains, concrete implementations) are borrowed and are never
// followed by Destroy; Copy remaps them only when they point inside the
// copied subtree. Subnodes and Refnodes in walk.go are the single source of
// truth for both edge sets.

// Node is the interface implemented by all AST nodes.
type Node interface {
	Kind() NodeKind
	Anchor() *Lexeme // source token the node was parsed from, may be nil
	Pos() Pos
	base() *node
}

// NodeKind is the variant tag of a node.
type NodeKind uint8

const (
	KindScope NodeKind = iota
	KindIdent
	KindType
	KindTypeDecl
	KindVarDecl
	KindFuncDecl
	KindLiteral
	KindBiop
	KindControl
	KindCall
	KindAccess
	KindCond
	KindLoop
	KindCast
	KindTypedef
	KindParallel

	kindCount
)

var kindNames = [...]string{
	KindScope:    "Scope",
	KindIdent:    "Ident",
	KindType:     "Type",
	KindTypeDecl: "TypeDecl",
	KindVarDecl:  "VarDecl",
	KindFuncDecl: "FuncDecl",
	KindLiteral:  "Literal",
	KindBiop:     "Biop",
	KindControl:  "Control",
	KindCall:     "Call",
	KindAccess:   "Access",
	KindCond:     "Cond",
	KindLoop:     "Loop",
	KindCast:     "Cast",
	KindTypedef:  "Typedef",
	KindParallel: "Parallel",
}

func (k NodeKind) String() string {
	if k < kindCount {
		return kindNames[k]
	}
	return fmt.Sprintf("NodeKind(%d)", k)
}

// ----------------------------------------------------------------------------
// Base node

// node is the base struct embedded in all AST nodes.
type node struct {
	tok  *Lexeme
	pre  []*Lexeme // comments bound to the node's first token
	post []*Lexeme // comments trailing the node on its last line
	attr string
	gap  bool // a blank line precedes the statement
}

func (n *node) Anchor() *Lexeme { return n.tok }
func (n *node) base() *node     { return n }

// Pos returns the position of the anchor token.
func (n *node) Pos() Pos {
	if n.tok == nil {
		return Pos{}
	}
	return n.tok.Pos
}

// Attr returns the backend annotation of the node.
func (n *node) Attr() string { return n.attr }

// SetAttr sets the backend annotation of the node.
func (n *node) SetAttr(a string) { n.attr = a }

// ----------------------------------------------------------------------------
// Variants

// Scope is a braced statement list, or the program root.
type Scope struct {
	node
	Nodes  []Node
	IsRoot bool
}

// Ident is a name use or a declared name. Decl is the resolved declaration
// (VarDecl, FuncDecl, TypeDecl or Typedef); it is not owned.
type Ident struct {
	node
	Name       string
	Decl       Node
	Designated bool // .name inside a compound literal
}

// Type is a type reference. BaseDecl and Typedef are not owned.
type Type struct {
	node
	BaseDecl  *TypeDecl
	Typedef   *Typedef // set when the type was spelled through a typedef
	PtrDepth  int
	ArraySize int // 0 = not an array
	IsConst   bool
}

// TypeDecl declares a struct, or describes a builtin type. Builtin
// declarations live outside user scopes and are never printed; Concrete
// points at the struct synthesized for them by the lowering pipeline and Elem
// at the element type of a matrix or field.
type TypeDecl struct {
	node
	Ident     *Ident
	Body      *Scope // nil for forward and builtin declarations
	IsBuiltin bool
	Builtin   BuiltinType
	Concrete  *TypeDecl
	Elem      *TypeDecl
}

// VarDecl declares a variable, parameter or struct member.
type VarDecl struct {
	node
	Type  *Type
	Ident *Ident
	Value Node // initializer, may be nil
}

// BuiltinFunc identifies the synthesized helpers of builtin types.
type BuiltinFunc uint8

const (
	NotBuiltin BuiltinFunc = iota
	BuiltinAlloc
	BuiltinAllocDevice
	BuiltinFree
	BuiltinFreeDevice
	BuiltinCopy
	BuiltinSize
	BuiltinMul
	BuiltinExtern // target runtime function (malloc, free, memcpy)
)

// FuncDecl declares or defines a function. Builtin functions are declared
// without a body; Concrete points at the definition synthesized for them.
type FuncDecl struct {
	node
	ReturnType *Type
	Ident      *Ident
	Params     []*VarDecl
	Body       *Scope // nil for prototypes
	IsBuiltin  bool
	Builtin    BuiltinFunc
	Concrete   *FuncDecl
}

// LiteralKind distinguishes literal values.
type LiteralKind uint8

const (
	LitInt LiteralKind = iota
	LitFloat
	LitString
	LitChar
	LitBool
	LitNull
	LitCompound
)

// Literal is a constant value or a compound literal { ... }. Base is the
// builtin type of scalar literals and is not owned.
type Literal struct {
	node
	LitKind LiteralKind
	Int     int64
	Float   float64
	Str     string // source spelling of string and char literals, quotes included
	Bool    bool
	Elems   []Node // compound elements
	Base    *TypeDecl
}

// Biop is a binary, prefix unary (Lhs == nil) or postfix unary (Rhs == nil)
// operation.
type Biop struct {
	node
	Op  Token
	Lhs Node
	Rhs Node
}

// ControlKind identifies a control statement.
type ControlKind uint8

const (
	CtrlReturn ControlKind = iota
	CtrlBreak
	CtrlContinue
	CtrlGoto
	CtrlLabel
)

var controlNames = [...]string{"return", "break", "continue", "goto", "label"}

func (k ControlKind) String() string {
	if int(k) < len(controlNames) {
		return controlNames[k]
	}
	return fmt.Sprintf("ControlKind(%d)", k)
}

// Control is return, break, continue, goto or a label.
type Control struct {
	node
	CtrlKind ControlKind
	Value    Node // return value or label name, may be nil
}

// Call is a function call. The callee Ident resolves to a FuncDecl.
type Call struct {
	node
	Ident *Ident
	Args  []Node
}

// AccessKind identifies a postfix access.
type AccessKind uint8

const (
	AccessMember    AccessKind = iota // base.member
	AccessPtrMember                   // base->member
	AccessArray                       // base[index]
	AccessElement                     // base(i, j) on matrix and field values
)

// Access is a member, array or builtin element access.
type Access struct {
	node
	AccessKind AccessKind
	Base       Node
	Args       []Node
}

// Cond is if/else. AfterElse is nil, another Cond, or any statement.
type Cond struct {
	node
	Expr      Node
	Body      Node
	AfterElse Node
}

// Loop is a for or while loop. While loops only use Cond and Body.
type Loop struct {
	node
	Init    Node
	Cond    Node
	Incr    Node
	Body    Node
	IsWhile bool
}

// Cast is (Type)Target.
type Cast struct {
	node
	Type   *Type
	Target Node
}

// Typedef is typedef Type Ident;
type Typedef struct {
	node
	Type  *Type
	Ident *Ident
}

// Parallel is for_field (Outputs; Inputs) Body. Index declares the implicit
// per-dimension index variable visible in Body.
type Parallel struct {
	node
	Outputs []Node
	Inputs  []Node
	Index   *VarDecl
	Body    *Scope
	Dim     int
}

func (*Scope) Kind() NodeKind    { return KindScope }
func (*Ident) Kind() NodeKind    { return KindIdent }
func (*Type) Kind() NodeKind     { return KindType }
func (*TypeDecl) Kind() NodeKind { return KindTypeDecl }
func (*VarDecl) Kind() NodeKind  { return KindVarDecl }
func (*FuncDecl) Kind() NodeKind { return KindFuncDecl }
func (*Literal) Kind() NodeKind  { return KindLiteral }
func (*Biop) Kind() NodeKind     { return KindBiop }
func (*Control) Kind() NodeKind  { return KindControl }
func (*Call) Kind() NodeKind     { return KindCall }
func (*Access) Kind() NodeKind   { return KindAccess }
func (*Cond) Kind() NodeKind     { return KindCond }
func (*Loop) Kind() NodeKind     { return KindLoop }
func (*Cast) Kind() NodeKind     { return KindCast }
func (*Typedef) Kind() NodeKind  { return KindTypedef }
func (*Parallel) Kind() NodeKind { return KindParallel }

// ----------------------------------------------------------------------------
// Constructors

// NewScope returns an empty scope anchored at tok.
func NewScope(tok *Lexeme) *Scope {
	s := &Scope{Nodes: make([]Node, 0)}
	s.tok = tok
	return s
}

// NewIdent returns an unresolved identifier.
func NewIdent(tok *Lexeme, name string) *Ident {
	id := &Ident{Name: name}
	id.tok = tok
	return id
}

// NewType returns a type reference to decl.
func NewType(tok *Lexeme, decl *TypeDecl) *Type {
	t := &Type{BaseDecl: decl}
	t.tok = tok
	return t
}

// NewTypeDecl returns a struct declaration without a body.
func NewTypeDecl(tok *Lexeme, name string) *TypeDecl {
	d := &TypeDecl{Ident: NewIdent(tok, name)}
	d.tok = tok
	d.Ident.Decl = d
	return d
}

// NewVarDecl returns a variable declaration; its Ident resolves to itself.
func NewVarDecl(tok *Lexeme, typ *Type, name string) *VarDecl {
	d := &VarDecl{Type: typ, Ident: NewIdent(tok, name)}
	d.tok = tok
	d.Ident.Decl = d
	return d
}

// NewFuncDecl returns a function prototype; its Ident resolves to itself.
func NewFuncDecl(tok *Lexeme, ret *Type, name string) *FuncDecl {
	d := &FuncDecl{ReturnType: ret, Ident: NewIdent(tok, name), Params: make([]*VarDecl, 0)}
	d.tok = tok
	d.Ident.Decl = d
	return d
}

// NewIntLiteral returns an integer literal of builtin type base.
func NewIntLiteral(tok *Lexeme, v int64, base *TypeDecl) *Literal {
	l := &Literal{LitKind: LitInt, Int: v, Base: base}
	l.tok = tok
	return l
}

// NewFloatLiteral returns a floating point literal of builtin type base.
func NewFloatLiteral(tok *Lexeme, v float64, base *TypeDecl) *Literal {
	l := &Literal{LitKind: LitFloat, Float: v, Base: base}
	l.tok = tok
	return l
}

// NewCompound returns an empty compound literal.
func NewCompound(tok *Lexeme) *Literal {
	l := &Literal{LitKind: LitCompound, Elems: make([]Node, 0)}
	l.tok = tok
	return l
}

// NewBiop returns lhs op rhs.
func NewBiop(tok *Lexeme, op Token, lhs, rhs Node) *Biop {
	b := &Biop{Op: op, Lhs: lhs, Rhs: rhs}
	b.tok = tok
	return b
}

// NewControl returns a control statement.
func NewControl(tok *Lexeme, kind ControlKind, value Node) *Control {
	c := &Control{CtrlKind: kind, Value: value}
	c.tok = tok
	return c
}

// NewCall returns a call of fn; the callee ident resolves to fn when fn is
// not nil.
func NewCall(tok *Lexeme, name string, fn *FuncDecl, args ...Node) *Call {
	c := &Call{Ident: NewIdent(tok, name), Args: make([]Node, 0, len(args))}
	c.tok = tok
	if fn != nil {
		c.Ident.Decl = fn
	}
	c.Args = append(c.Args, args...)
	return c
}

// NewAccess returns an access of the given kind.
func NewAccess(tok *Lexeme, kind AccessKind, base Node, args ...Node) *Access {
	a := &Access{AccessKind: kind, Base: base, Args: make([]Node, 0, len(args))}
	a.tok = tok
	a.Args = append(a.Args, args...)
	return a
}

// NewCond returns if (expr) body.
func NewCond(tok *Lexeme, expr, body Node) *Cond {
	c := &Cond{Expr: expr, Body: body}
	c.tok = tok
	return c
}

// NewLoop returns for (init; cond; incr) body.
func NewLoop(tok *Lexeme, init, cond, incr, body Node) *Loop {
	l := &Loop{Init: init, Cond: cond, Incr: incr, Body: body}
	l.tok = tok
	return l
}

// NewCast returns (typ)target.
func NewCast(tok *Lexeme, typ *Type, target Node) *Cast {
	c := &Cast{Type: typ, Target: target}
	c.tok = tok
	return c
}

// NewTypedef returns typedef typ name; with the ident resolving to itself.
func NewTypedef(tok *Lexeme, typ *Type, name string) *Typedef {
	d := &Typedef{Type: typ, Ident: NewIdent(tok, name)}
	d.tok = tok
	d.Ident.Decl = d
	return d
}

// NewParallel returns an empty for_field construct.
func NewParallel(tok *Lexeme) *Parallel {
	p := &Parallel{Outputs: make([]Node, 0), Inputs: make([]Node, 0)}
	p.tok = tok
	return p
}

// ----------------------------------------------------------------------------
// Helpers

// DeclName returns the declared name of a declaration node, or "".
func DeclName(n Node) string {
	switch d := n.(type) {
	case *VarDecl:
		return d.Ident.Name
	case *FuncDecl:
		return d.Ident.Name
	case *TypeDecl:
		return d.Ident.Name
	case *Typedef:
		return d.Ident.Name
	}
	return ""
}

// IsDecl reports whether n declares a name.
func IsDecl(n Node) bool {
	switch n.(type) {
	case *VarDecl, *FuncDecl, *TypeDecl, *Typedef:
		return true
	}
	return false
}

// AddLeading attaches comment tokens before n.
func AddLeading(n Node, toks ...*Lexeme) {
	b := n.base()
	b.pre = append(b.pre, toks...)
}

// AddTrailing attaches comment tokens after n.
func AddTrailing(n Node, toks ...*Lexeme) {
	b := n.base()
	b.post = append(b.post, toks...)
}

// Leading returns the comments attached before n.
func Leading(n Node) []*Lexeme { return n.base().pre }

// Trailing returns the comments attached after n.
func Trailing(n Node) []*Lexeme { return n.base().post }

// MoveComments transfers the comments attached to src onto dst.
func MoveComments(dst, src Node) {
	d, s := dst.base(), src.base()
	d.pre = append(d.pre, s.pre...)
	d.post = append(d.post, s.post...)
	d.gap = d.gap || s.gap
	s.pre, s.post, s.gap = nil, nil, false
}

// BlankBefore reports whether a blank line preceded n in the source.
func BlankBefore(n Node) bool { return n.base().gap }

// SetBlankBefore records whether a blank line precedes n.
func SetBlankBefore(n Node, gap bool) { n.base().gap = gap }

// SetAnchor sets the source token of n.
func SetAnchor(n Node, tok *Lexeme) { n.base().tok = tok }
