package resource

import (
	"errors"
	"fmt"
	"strconv"
	"unicode"

	"github.com/you-not-fish/fieldc/internal/codegen"
	"github.com/you-not-fish/fieldc/internal/syntax"
)

// Writer builds a description value by value:
//
//	var w Writer
//	w.BeginCompound()
//	w.Member("size")
//	w.BeginList()
//	w.Int(64)
//	w.Int(64)
//	w.EndList()
//	w.EndCompound()
//	b, err := w.Bytes() // {.size = {64, 64}}
//
// The first misuse is latched and reported by Bytes.
type Writer struct {
	stack []frame
	key   string
	root  syntax.Node
	err   error
}

type frame struct {
	lit  *syntax.Literal
	list bool
}

func (w *Writer) fail(format string, args ...interface{}) {
	if w.err == nil {
		w.err = fmt.Errorf("resource: "+format, args...)
	}
}

// add places x in the open compound, or makes it the root.
func (w *Writer) add(x syntax.Node) {
	if w.err != nil {
		return
	}
	key := w.key
	w.key = ""
	if len(w.stack) == 0 {
		if w.root != nil {
			w.fail("second top-level value")
			return
		}
		if key != "" {
			w.fail("member %s outside a compound", key)
			return
		}
		w.root = x
		return
	}
	top := w.stack[len(w.stack)-1]
	if key != "" {
		x = syntax.NewBiop(nil, syntax.Assign, designator(key), x)
	} else if !top.list {
		w.fail("compound element without a member name")
		return
	}
	top.lit.Elems = append(top.lit.Elems, x)
}

func designator(key string) *syntax.Ident {
	id := syntax.NewIdent(nil, key)
	id.Designated = true
	return id
}

func (w *Writer) begin(list bool) {
	lit := syntax.NewCompound(nil)
	w.add(lit)
	w.stack = append(w.stack, frame{lit: lit, list: list})
}

func (w *Writer) end(list bool) {
	if len(w.stack) == 0 || w.stack[len(w.stack)-1].list != list {
		w.fail("unbalanced end")
		return
	}
	if w.key != "" {
		w.fail("member %s without a value", w.key)
	}
	w.stack = w.stack[:len(w.stack)-1]
}

// BeginCompound opens a compound whose elements are named with Member.
func (w *Writer) BeginCompound() { w.begin(false) }

// EndCompound closes the innermost compound.
func (w *Writer) EndCompound() { w.end(false) }

// BeginList opens a compound of positional elements.
func (w *Writer) BeginList() { w.begin(true) }

// EndList closes the innermost list.
func (w *Writer) EndList() { w.end(true) }

// Member names the next value.
func (w *Writer) Member(key string) {
	if w.key != "" {
		w.fail("member %s without a value", w.key)
		return
	}
	if !isIdent(key) {
		w.fail("invalid member name %q", key)
		return
	}
	w.key = key
}

// Int writes an integer.
func (w *Writer) Int(v int64) { w.add(syntax.NewIntLiteral(nil, v, nil)) }

// Float writes a floating point number.
func (w *Writer) Float(v float64) { w.add(syntax.NewFloatLiteral(nil, v, nil)) }

// Str writes a string literal.
func (w *Writer) Str(s string) {
	w.add(&syntax.Literal{LitKind: syntax.LitString, Str: strconv.Quote(s)})
}

// Bool writes true or false.
func (w *Writer) Bool(b bool) { w.add(&syntax.Literal{LitKind: syntax.LitBool, Bool: b}) }

// Null writes null.
func (w *Writer) Null() { w.add(&syntax.Literal{LitKind: syntax.LitNull}) }

// Node returns the value built so far.
func (w *Writer) Node() syntax.Node { return w.root }

// Bytes returns the finished description in source form.
func (w *Writer) Bytes() ([]byte, error) {
	switch {
	case w.err != nil:
		return nil, w.err
	case len(w.stack) != 0:
		return nil, errors.New("resource: unclosed compound")
	case w.root == nil:
		return nil, errors.New("resource: empty description")
	}
	return []byte(codegen.ExprString(w.root)), nil
}

func isIdent(s string) bool {
	for i, c := range s {
		if c != '_' && !unicode.IsLetter(c) && (i == 0 || !unicode.IsDigit(c)) {
			return false
		}
	}
	return s != ""
}
