package syntax

// source is a byte reader with position tracking over an in-memory buffer.
// The field language is ASCII; bytes outside that range only appear inside
// comments and string literals and are passed through untouched.
type source struct {
	text     string // source buffer; token spans are slices of it
	filename string

	// Position of ch
	line uint32 // 1-based
	col  uint32 // 1-based
	offs int    // byte offset of ch

	ch int // current byte, -1 at end of input

	errh func(pos Pos, msg string)
}

// newSource creates a source positioned at the first byte of src.
func newSource(filename string, src []byte, errh func(pos Pos, msg string)) *source {
	s := &source{
		text:     string(src),
		filename: filename,
		line:     1,
		col:      1,
		errh:     errh,
	}
	s.load()
	return s
}

func (s *source) load() {
	if s.offs >= len(s.text) {
		s.ch = -1
		return
	}
	s.ch = int(s.text[s.offs])
}

// nextch advances to the next byte, updating line and column.
func (s *source) nextch() {
	if s.ch < 0 {
		return
	}
	if s.ch == '\n' {
		s.line++
		s.col = 1
	} else {
		s.col++
	}
	s.offs++
	s.load()
}

// peek returns the byte after ch without consuming it, or -1.
func (s *source) peek() int {
	if s.offs+1 >= len(s.text) {
		return -1
	}
	return int(s.text[s.offs+1])
}

// pos returns the position of ch.
func (s *source) pos() Pos {
	return Pos{filename: s.filename, line: s.line, col: s.col, offs: s.offs}
}

// errorAt reports a lexical error.
func (s *source) errorAt(pos Pos, msg string) {
	if s.errh != nil {
		s.errh(pos, msg)
	}
}

// Character classification helpers

func isLetter(c int) bool {
	return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || c == '_'
}

func isDigit(c int) bool {
	return '0' <= c && c <= '9'
}

func isHexDigit(c int) bool {
	return isDigit(c) || 'a' <= lower(c) && lower(c) <= 'f'
}

// lower returns the lowercase version of an ASCII letter; other bytes are
// returned with bit 0x20 set, which never turns them into letters.
func lower(c int) int {
	return ('a' - 'A') | c
}

func isWhitespace(c int) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '\f' || c == '\v'
}

func isOperatorStart(c int) bool {
	switch c {
	case '+', '-', '*', '/', '%', '&', '|', '<', '>', '=', '!', ':',
		'(', ')', '[', ']', '{', '}', ',', ';', '.':
		return true
	}
	return false
}
