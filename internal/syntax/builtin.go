package syntax

import (
	"fmt"
	"strings"
)

// MaxMatrixRank is the largest number of matrix dimensions.
const MaxMatrixRank = 10

// BuiltinType describes a primitive, matrix or field type. It is comparable
// with ==; two builtin declarations describing the same type are always the
// same node.
type BuiltinType struct {
	IsVoid     bool
	IsInteger  bool
	IsBoolean  bool
	IsChar     bool
	IsFloat    bool
	IsUnsigned bool
	BitSize    int

	MatrixRank int
	MatrixDim  [MaxMatrixRank]int

	// FieldDim is the number of runtime dimensions of a field; 0 for
	// anything that is not a field.
	FieldDim int
}

var primitiveTypes = []struct {
	name string
	typ  BuiltinType
}{
	{"void", BuiltinType{IsVoid: true}},
	{"bool", BuiltinType{IsBoolean: true, BitSize: 8}},
	{"char", BuiltinType{IsChar: true, IsInteger: true, BitSize: 8}},
	{"int", BuiltinType{IsInteger: true, BitSize: 32}},
	{"uint", BuiltinType{IsInteger: true, IsUnsigned: true, BitSize: 32}},
	{"float", BuiltinType{IsFloat: true, BitSize: 32}},
	{"double", BuiltinType{IsFloat: true, BitSize: 64}},
}

// PrimitiveType returns the builtin type spelled name.
func PrimitiveType(name string) (BuiltinType, bool) {
	for _, p := range primitiveTypes {
		if p.name == name {
			return p.typ, true
		}
	}
	return BuiltinType{}, false
}

// MatrixOf returns the matrix of elem with the given dimensions.
func MatrixOf(elem BuiltinType, dims ...int) BuiltinType {
	if len(dims) == 0 || len(dims) > MaxMatrixRank {
		panic(fmt.Sprintf("syntax: matrix rank %d out of range", len(dims)))
	}
	t := elem
	t.MatrixRank = len(dims)
	copy(t.MatrixDim[:], dims)
	return t
}

// FieldOf returns the field of elem with n runtime dimensions.
func FieldOf(elem BuiltinType, n int) BuiltinType {
	t := elem
	t.FieldDim = n
	return t
}

// IsMatrix reports whether t has matrix dimensions.
func (t BuiltinType) IsMatrix() bool { return t.MatrixRank > 0 }

// IsField reports whether t is a field.
func (t BuiltinType) IsField() bool { return t.FieldDim > 0 }

// IsPrimitive reports whether t is neither a matrix nor a field.
func (t BuiltinType) IsPrimitive() bool { return !t.IsMatrix() && !t.IsField() }

// Dims returns the matrix dimensions of t.
func (t BuiltinType) Dims() []int {
	return t.MatrixDim[:t.MatrixRank]
}

// Elems returns the number of scalars stored in one matrix value.
func (t BuiltinType) Elems() int {
	n := 1
	for _, d := range t.Dims() {
		n *= d
	}
	return n
}

// Element returns the type of one element: a field's element is its matrix
// or scalar, a matrix's element is its scalar.
func (t BuiltinType) Element() BuiltinType {
	if t.IsField() {
		t.FieldDim = 0
		return t
	}
	t.MatrixRank = 0
	t.MatrixDim = [MaxMatrixRank]int{}
	return t
}

// Scalar returns the primitive type underneath any matrix or field.
func (t BuiltinType) Scalar() BuiltinType {
	t.FieldDim = 0
	t.MatrixRank = 0
	t.MatrixDim = [MaxMatrixRank]int{}
	return t
}

func (t BuiltinType) primitiveName() string {
	s := t.Scalar()
	for _, p := range primitiveTypes {
		if p.typ == s {
			return p.name
		}
	}
	return fmt.Sprintf("builtin%d", s.BitSize)
}

// CName returns the C spelling of a primitive type.
func (t BuiltinType) CName() string {
	name := t.primitiveName()
	if name == "uint" {
		return "unsigned int"
	}
	return name
}

// Name returns a C identifier naming t: float, float_matrix_2x2,
// float_matrix_4_field_2.
func (t BuiltinType) Name() string {
	var b strings.Builder
	b.WriteString(t.primitiveName())
	if t.IsMatrix() {
		b.WriteString("_matrix_")
		for i, d := range t.Dims() {
			if i > 0 {
				b.WriteByte('x')
			}
			fmt.Fprintf(&b, "%d", d)
		}
	}
	if t.IsField() {
		fmt.Fprintf(&b, "_field_%d", t.FieldDim)
	}
	return b.String()
}

// String returns the source spelling of t.
func (t BuiltinType) String() string {
	s := t.primitiveName()
	if t.IsMatrix() {
		parts := make([]string, 0, t.MatrixRank+1)
		if e := t.Scalar(); e.primitiveName() != "float" {
			parts = append(parts, s)
		}
		for _, d := range t.Dims() {
			parts = append(parts, fmt.Sprint(d))
		}
		s = "matrix(" + strings.Join(parts, ", ") + ")"
	}
	if t.IsField() {
		if t.IsMatrix() || s != "float" {
			s = fmt.Sprintf("field(%s, %d)", s, t.FieldDim)
		} else {
			s = fmt.Sprintf("field(%d)", t.FieldDim)
		}
	}
	return s
}

// ----------------------------------------------------------------------------
// Builtin declarations

// Builtins owns the builtin declarations of one parse. Type declarations
// are deduplicated by descriptor; every field type also gets its helper
// functions, and every rank-2 matrix product its multiply helper.
type Builtins struct {
	types []*TypeDecl
	funcs []*FuncDecl
	decls []Node // creation order
}

// NewBuiltins returns an empty builtin table.
func NewBuiltins() *Builtins {
	return &Builtins{}
}

// BuiltinsOf returns a table holding the builtin declarations found at the
// top level of root, so that later lookups reuse them.
func BuiltinsOf(root *Scope) *Builtins {
	b := NewBuiltins()
	for _, n := range root.Nodes {
		switch d := n.(type) {
		case *TypeDecl:
			if d.IsBuiltin {
				b.types = append(b.types, d)
				b.decls = append(b.decls, d)
			}
		case *FuncDecl:
			if d.IsBuiltin {
				b.funcs = append(b.funcs, d)
				b.decls = append(b.decls, d)
			}
		}
	}
	return b
}

// Len returns the number of declarations in the table.
func (b *Builtins) Len() int {
	return len(b.decls)
}

// Decls returns every builtin declaration in creation order.
func (b *Builtins) Decls() []Node {
	return append([]Node(nil), b.decls...)
}

// Funcs returns the builtin function declarations.
func (b *Builtins) Funcs() []*FuncDecl {
	return append([]*FuncDecl(nil), b.funcs...)
}

// Lookup returns the declaration describing t, or nil.
func (b *Builtins) Lookup(t BuiltinType) *TypeDecl {
	for _, d := range b.types {
		if d.Builtin == t {
			return d
		}
	}
	return nil
}

// Type returns the declaration describing t, creating it and the
// declarations it depends on when needed.
func (b *Builtins) Type(t BuiltinType) *TypeDecl {
	if d := b.Lookup(t); d != nil {
		return d
	}
	var elem *TypeDecl
	if !t.IsPrimitive() {
		elem = b.Type(t.Element())
	}
	d := NewTypeDecl(nil, t.Name())
	d.IsBuiltin = true
	d.Builtin = t
	d.Elem = elem
	b.types = append(b.types, d)
	b.decls = append(b.decls, d)
	if t.IsField() {
		b.fieldHelpers(d)
	}
	return d
}

// Primitive returns the declaration of a primitive type by name.
func (b *Builtins) Primitive(name string) *TypeDecl {
	t, ok := PrimitiveType(name)
	if !ok {
		panic("syntax: unknown primitive " + name)
	}
	return b.Type(t)
}

// Helper names of field types, as spelled in source.
const (
	AllocField       = "alloc_field"
	AllocDeviceField = "alloc_device_field"
	FreeField        = "free_field"
	FreeDeviceField  = "free_device_field"
	CopyField        = "copy_field"
	SizeField        = "size_field"
	MulMatrix        = "mul_matrix"
)

func (b *Builtins) fieldHelpers(d *TypeDecl) {
	intDecl := b.Primitive("int")
	voidDecl := b.Primitive("void")
	sizes := func() []*VarDecl {
		params := make([]*VarDecl, d.Builtin.FieldDim)
		for i := range params {
			params[i] = NewVarDecl(nil, NewType(nil, intDecl), fmt.Sprintf("size%d", i))
		}
		return params
	}
	b.fn(AllocField, BuiltinAlloc, d, sizes()...)
	b.fn(AllocDeviceField, BuiltinAllocDevice, d, sizes()...)
	b.fn(FreeField, BuiltinFree, voidDecl, NewVarDecl(nil, NewType(nil, d), "field"))
	b.fn(FreeDeviceField, BuiltinFreeDevice, voidDecl, NewVarDecl(nil, NewType(nil, d), "field"))
	b.fn(CopyField, BuiltinCopy, voidDecl,
		NewVarDecl(nil, NewType(nil, d), "dst"),
		NewVarDecl(nil, NewType(nil, d), "src"))
	b.fn(SizeField, BuiltinSize, intDecl,
		NewVarDecl(nil, NewType(nil, d), "field"),
		NewVarDecl(nil, NewType(nil, intDecl), "axis"))
}

func (b *Builtins) fn(name string, kind BuiltinFunc, ret *TypeDecl, params ...*VarDecl) *FuncDecl {
	f := NewFuncDecl(nil, NewType(nil, ret), name)
	f.IsBuiltin = true
	f.Builtin = kind
	f.Params = append(f.Params, params...)
	b.funcs = append(b.funcs, f)
	b.decls = append(b.decls, f)
	return f
}

// Mul returns the multiply helper of two rank-2 matrix types, creating it
// when needed. It returns nil if the inner dimensions disagree.
func (b *Builtins) Mul(x, y *TypeDecl) *FuncDecl {
	bx, by := x.Builtin, y.Builtin
	if bx.MatrixRank != 2 || by.MatrixRank != 2 || bx.IsField() || by.IsField() {
		return nil
	}
	if bx.MatrixDim[1] != by.MatrixDim[0] {
		return nil
	}
	for _, f := range b.funcs {
		if f.Builtin == BuiltinMul && f.Params[0].Type.BaseDecl == x && f.Params[1].Type.BaseDecl == y {
			return f
		}
	}
	ret := b.Type(MatrixOf(bx.Scalar(), bx.MatrixDim[0], by.MatrixDim[1]))
	return b.fn(MulMatrix, BuiltinMul, ret,
		NewVarDecl(nil, NewType(nil, x), "a"),
		NewVarDecl(nil, NewType(nil, y), "b"))
}
