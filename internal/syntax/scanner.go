package syntax

import "strings"

// scanState is the character class the scanner is currently matching.
type scanState uint8

const (
	stNone         scanState = iota // between tokens
	stMaybeTwoChar                  // first byte of an operator consumed
	stNumber                        // integer part of a number
	stFraction                      // after the decimal point or exponent
	stIdent                         // identifier or keyword
	stString                        // string or char literal
	stLineComment                   // // ...
	stBlockComment                  // /* ... */, nested
)

// twoCharOps lists the operators made of two bytes, keyed by their first byte.
var twoCharOps = map[int]map[int]Token{
	'+': {'=': _AddAssign, '+': _Inc},
	'-': {'=': _SubAssign, '-': _Dec, '>': _Arrow},
	'*': {'=': _MulAssign},
	'/': {'=': _DivAssign},
	'&': {'&': _AndAnd},
	'|': {'|': _OrOr},
	'=': {'=': _Eql},
	'!': {'=': _Neq},
	'<': {'=': _Leq},
	'>': {'=': _Geq},
}

// oneCharOps lists the operators and delimiters made of a single byte.
var oneCharOps = map[int]Token{
	'+': _Add, '-': _Sub, '*': _Mul, '/': _Div, '%': _Rem,
	'&': _And, '<': _Lss, '>': _Gtr, '=': _Assign, '!': _Not,
	':': _Colon, '(': _Lparen, ')': _Rparen, '[': _Lbrack, ']': _Rbrack,
	'{': _Lbrace, '}': _Rbrace, ',': _Comma, ';': _Semi, '.': _Dot,
}

// Scanner converts a source buffer into a flat token slice.
type Scanner struct {
	source // embedded byte reader

	state scanState
	start Pos // start of the token being matched
	first int // first byte of a two-char operator candidate
	quote int // closing quote of the string being matched
	depth int // block comment nesting depth
	kind  LitKind

	prevEnd int // offset just past the previous token
	toks    []Lexeme
}

// NewScanner creates a Scanner for src. The errh function is called for each
// lexical error; if nil, errors are only visible as _Error tokens.
func NewScanner(filename string, src []byte, errh func(pos Pos, msg string)) *Scanner {
	return &Scanner{source: *newSource(filename, src, errh)}
}

// Tokenize scans src completely. The result always ends with an _EOF token.
func Tokenize(filename string, src []byte, errh func(pos Pos, msg string)) []Lexeme {
	return NewScanner(filename, src, errh).Scan()
}

// Scan runs the state machine until end of input and returns all tokens.
func (s *Scanner) Scan() []Lexeme {
	for {
		c := s.ch
		switch s.state {
		case stNone:
			if c < 0 {
				s.begin(stNone)
				s.commit(_EOF)
				s.finish()
				return s.toks
			}
			s.scanStart(c)

		case stMaybeTwoChar:
			if tok, ok := twoCharOps[s.first][c]; ok {
				s.nextch()
				s.commit(tok)
			} else if tok, ok := oneCharOps[s.first]; ok {
				s.commit(tok)
			} else {
				s.fail("unexpected character " + string(rune(s.first)))
			}

		case stIdent:
			if isLetter(c) || isDigit(c) {
				s.nextch()
				continue
			}
			s.commit(LookupKeyword(s.text[s.start.offs:s.offs]))

		case stNumber:
			switch {
			case isDigit(c):
				s.nextch()
			case c == '.':
				s.kind = FloatLit
				s.state = stFraction
				s.nextch()
			case lower(c) == 'x' && s.offs == s.start.offs+1 && s.text[s.start.offs] == '0':
				s.nextch()
				if !isHexDigit(s.ch) {
					s.fail("invalid hex literal")
					continue
				}
				for isHexDigit(s.ch) {
					s.nextch()
				}
				s.commitNumber()
			case lower(c) == 'e':
				s.kind = FloatLit
				s.state = stFraction
				s.scanExponent()
			default:
				s.commitNumber()
			}

		case stFraction:
			switch {
			case isDigit(c):
				s.nextch()
			case lower(c) == 'e':
				s.scanExponent()
			default:
				s.commitNumber()
			}

		case stString:
			switch {
			case c == s.quote:
				s.nextch()
				s.commit(_Literal)
			case c == '\\':
				s.nextch()
				if s.ch >= 0 && s.ch != '\n' {
					s.nextch()
				}
			case c < 0 || c == '\n':
				s.fail("literal not terminated")
			default:
				s.nextch()
			}

		case stLineComment:
			if c < 0 || c == '\n' {
				s.commit(_Comment)
				continue
			}
			s.nextch()

		case stBlockComment:
			switch {
			case c < 0:
				s.fail("comment not terminated")
			case c == '/' && s.peek() == '*':
				s.depth++
				s.nextch()
				s.nextch()
			case c == '*' && s.peek() == '/':
				s.depth--
				s.nextch()
				s.nextch()
				if s.depth == 0 {
					s.commit(_Comment)
				}
			default:
				s.nextch()
			}
		}
	}
}

// scanStart picks the state for a token starting with c.
func (s *Scanner) scanStart(c int) {
	switch {
	case isWhitespace(c):
		s.nextch()

	case isLetter(c):
		s.begin(stIdent)
		s.nextch()

	case isDigit(c):
		s.begin(stNumber)
		s.kind = IntLit
		s.nextch()

	case c == '.' && isDigit(s.peek()):
		s.begin(stFraction)
		s.kind = FloatLit
		s.nextch()

	case c == '"' || c == '\'':
		s.begin(stString)
		s.quote = c
		s.kind = StringLit
		if c == '\'' {
			s.kind = CharLit
		}
		s.nextch()

	case c == '/' && s.peek() == '/':
		s.begin(stLineComment)
		s.nextch()
		s.nextch()

	case c == '/' && s.peek() == '*':
		s.begin(stBlockComment)
		s.depth = 1
		s.nextch()
		s.nextch()

	case isOperatorStart(c):
		s.begin(stMaybeTwoChar)
		s.first = c
		s.nextch()

	default:
		s.begin(stNone)
		s.nextch()
		s.fail("unexpected character " + string(rune(c)))
	}
}

// scanExponent consumes e[+-]digits. A missing digit sequence is a lexical error.
func (s *Scanner) scanExponent() {
	s.nextch()
	if s.ch == '+' || s.ch == '-' {
		s.nextch()
	}
	if !isDigit(s.ch) {
		s.fail("exponent has no digits")
		return
	}
	for isDigit(s.ch) {
		s.nextch()
	}
	s.commitNumber()
}

// commitNumber commits a numeric literal, accepting a float suffix and
// rejecting identifier characters glued to the digits.
func (s *Scanner) commitNumber() {
	if lower(s.ch) == 'f' {
		s.kind = FloatLit
		s.nextch()
	} else if lower(s.ch) == 'u' && s.kind == IntLit {
		s.nextch()
	}
	if isLetter(s.ch) || isDigit(s.ch) {
		for isLetter(s.ch) || isDigit(s.ch) {
			s.nextch()
		}
		s.fail("malformed number")
		return
	}
	s.commit(_Literal)
}

// begin marks the start of a new token.
func (s *Scanner) begin(state scanState) {
	s.state = state
	s.start = s.pos()
}

// fail commits the text matched so far as an _Error token.
func (s *Scanner) fail(msg string) {
	s.errorAt(s.start, msg)
	s.commit(_Error)
}

// commit appends the token spanning start..ch and returns to stNone.
func (s *Scanner) commit(tok Token) {
	gap := s.text[s.prevEnd:s.start.offs]
	lx := Lexeme{
		Tok:             tok,
		Lit:             s.text[s.start.offs:s.offs],
		Kind:            s.kind,
		Pos:             s.start,
		EmptyLineBefore: strings.Count(gap, "\n") >= 2,
		index:           len(s.toks),
	}
	if tok == _Comment {
		lx.BindNext = len(s.toks) == 0 || strings.Contains(gap, "\n")
	}
	s.toks = append(s.toks, lx)
	s.prevEnd = s.offs
	s.state = stNone
	s.kind = IntLit
}

// finish computes LastOnLine once every token is known.
func (s *Scanner) finish() {
	for i := range s.toks {
		t := &s.toks[i]
		if t.Tok == _EOF {
			t.LastOnLine = true
			continue
		}
		next := &s.toks[i+1]
		end := t.Pos.offs + len(t.Lit)
		t.LastOnLine = next.Tok == _EOF || strings.Contains(s.text[end:next.Pos.offs], "\n")
	}
}
