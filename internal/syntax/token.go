// Package syntax implements lexical and syntactic analysis for the field language,
// together with the AST model shared by the lowering passes.
package syntax

import "fmt"

// Token represents the kind of a lexical token.
type Token uint

const (
	// Special tokens
	_EOF     Token = iota // end of input
	_Error                // malformed input
	_Comment              // line or block comment

	// Literals
	_Name    // identifier: foo, bar, Particle
	_Literal // literal value (used with LitKind)

	// Assignment operators (right associative)
	_Assign    // =
	_AddAssign // +=
	_SubAssign // -=
	_MulAssign // *=
	_DivAssign // /=

	// Binary operators (ordered by precedence, low to high)
	_OrOr   // ||
	_AndAnd // &&
	_Eql    // ==
	_Neq    // !=
	_Lss    // <
	_Leq    // <=
	_Gtr    // >
	_Geq    // >=
	_Add    // +
	_Sub    // -
	_Mul    // *
	_Div    // /
	_Rem    // %

	// Unary-only operators
	_Not // !
	_And // &
	_Inc // ++
	_Dec // --

	// Delimiters
	_Lparen // (
	_Rparen // )
	_Lbrack // [
	_Rbrack // ]
	_Lbrace // {
	_Rbrace // }
	_Comma  // ,
	_Semi   // ;
	_Colon  // :
	_Dot    // .
	_Arrow  // ->

	// Keywords
	_Break
	_Const
	_Continue
	_Else
	_False
	_Field
	_For
	_ForField
	_Goto
	_If
	_Matrix
	_Null
	_Return
	_Sizeof
	_Struct
	_True
	_Typedef
	_While

	tokenCount
)

// tokenNames maps tokens to their string representation.
var tokenNames = [...]string{
	_EOF:     "EOF",
	_Error:   "ERROR",
	_Comment: "COMMENT",

	_Name:    "NAME",
	_Literal: "LITERAL",

	_Assign:    "=",
	_AddAssign: "+=",
	_SubAssign: "-=",
	_MulAssign: "*=",
	_DivAssign: "/=",

	_OrOr:   "||",
	_AndAnd: "&&",
	_Eql:    "==",
	_Neq:    "!=",
	_Lss:    "<",
	_Leq:    "<=",
	_Gtr:    ">",
	_Geq:    ">=",
	_Add:    "+",
	_Sub:    "-",
	_Mul:    "*",
	_Div:    "/",
	_Rem:    "%",

	_Not: "!",
	_And: "&",
	_Inc: "++",
	_Dec: "--",

	_Lparen: "(",
	_Rparen: ")",
	_Lbrack: "[",
	_Rbrack: "]",
	_Lbrace: "{",
	_Rbrace: "}",
	_Comma:  ",",
	_Semi:   ";",
	_Colon:  ":",
	_Dot:    ".",
	_Arrow:  "->",

	_Break:    "break",
	_Const:    "const",
	_Continue: "continue",
	_Else:     "else",
	_False:    "false",
	_Field:    "field",
	_For:      "for",
	_ForField: "for_field",
	_Goto:     "goto",
	_If:       "if",
	_Matrix:   "matrix",
	_Null:     "null",
	_Return:   "return",
	_Sizeof:   "sizeof",
	_Struct:   "struct",
	_True:     "true",
	_Typedef:  "typedef",
	_While:    "while",
}

// String returns the string representation of the token.
func (t Token) String() string {
	if t < tokenCount {
		return tokenNames[t]
	}
	return fmt.Sprintf("token(%d)", t)
}

// Precedence levels (higher = binds tighter).
const (
	precNone    = 0
	PrecAssign  = 1 // = += -= *= /=
	PrecOrOr    = 2 // ||
	PrecAndAnd  = 3 // &&
	PrecEqual   = 4 // == !=
	PrecCompare = 5 // < <= > >=
	PrecAdd     = 6 // + -
	PrecMul     = 7 // * / %
	PrecUnary   = 8 // prefix - + ! * & ++ -- sizeof
	PrecPostfix = 9 // call, member, element access, postfix ++ --
)

// Precedence returns the binary precedence of t, or 0 for non-binary tokens.
func (t Token) Precedence() int {
	switch t {
	case _Assign, _AddAssign, _SubAssign, _MulAssign, _DivAssign:
		return PrecAssign
	case _OrOr:
		return PrecOrOr
	case _AndAnd:
		return PrecAndAnd
	case _Eql, _Neq:
		return PrecEqual
	case _Lss, _Leq, _Gtr, _Geq:
		return PrecCompare
	case _Add, _Sub:
		return PrecAdd
	case _Mul, _Div, _Rem:
		return PrecMul
	}
	return precNone
}

// IsAssign reports whether t is an assignment operator.
func (t Token) IsAssign() bool {
	return t >= _Assign && t <= _DivAssign
}

// IsKeyword reports whether t is a keyword token.
func (t Token) IsKeyword() bool {
	return t >= _Break && t <= _While
}

// IsEOF reports whether t is the end-of-input token.
func (t Token) IsEOF() bool {
	return t == _EOF
}

// Exported operator tokens for the lowering passes and the C printer.
const (
	Assign    Token = _Assign
	AddAssign Token = _AddAssign
	MulAssign Token = _MulAssign
	Lss       Token = _Lss
	Add       Token = _Add
	Sub       Token = _Sub
	Mul       Token = _Mul
	Div       Token = _Div
	Not       Token = _Not
	And       Token = _And
	Inc       Token = _Inc
	Dec       Token = _Dec
	Sizeof    Token = _Sizeof
)

// LitKind represents the kind of a literal token.
type LitKind uint8

const (
	IntLit    LitKind = iota // 123, 0x1F
	FloatLit                 // 3.14, 1e10, 2.5f
	StringLit                // "hello"
	CharLit                  // 'a'
)

var litKindNames = [...]string{
	IntLit:    "int",
	FloatLit:  "float",
	StringLit: "string",
	CharLit:   "char",
}

// String returns the string representation of the literal kind.
func (k LitKind) String() string {
	if k <= CharLit {
		return litKindNames[k]
	}
	return fmt.Sprintf("LitKind(%d)", k)
}

// keywords maps keyword strings to their token type.
// Primitive type names (int, float, ...) are not keywords: they are scanned as
// _Name and bound to builtin type declarations by the parser.
var keywords = map[string]Token{
	"break":     _Break,
	"const":     _Const,
	"continue":  _Continue,
	"else":      _Else,
	"false":     _False,
	"field":     _Field,
	"for":       _For,
	"for_field": _ForField,
	"goto":      _Goto,
	"if":        _If,
	"matrix":    _Matrix,
	"null":      _Null,
	"return":    _Return,
	"sizeof":    _Sizeof,
	"struct":    _Struct,
	"true":      _True,
	"typedef":   _Typedef,
	"while":     _While,
}

// LookupKeyword returns the keyword token for ident, or _Name.
func LookupKeyword(ident string) Token {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return _Name
}

// Lexeme is one token of a tokenized source buffer. Lit is a slice of the
// original source text; AST nodes reference lexemes but never own them.
type Lexeme struct {
	Tok  Token
	Lit  string
	Kind LitKind // only valid when Tok == _Literal
	Pos  Pos

	EmptyLineBefore bool // a blank source line precedes the token
	LastOnLine      bool // no other token follows on the same line

	// BindNext is set on comments that sit on their own line and belong to the
	// following token. Trailing comments bind to the preceding token.
	BindNext bool

	index int // position in the full token slice
}

// String returns a short description of the lexeme for diagnostics.
func (l *Lexeme) String() string {
	if l == nil {
		return "<nil>"
	}
	if l.Tok == _EOF {
		return "end of input"
	}
	return l.Lit
}

// IsComment reports whether l is a comment token.
func (l *Lexeme) IsComment() bool {
	return l != nil && l.Tok == _Comment
}
