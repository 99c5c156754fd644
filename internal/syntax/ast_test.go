package syntax

import (
	"bytes"
	"testing"
)

const sampleProgram = `
struct P { int x; float y; };
int g = 2;
float f(struct P p, matrix(2, 2) m) {
	float s = m(0, 1) * p.y;
	for (int i = 0; i < g; i++) {
		s += i;
	}
	return s;
}
`

func dump(n Node) string {
	var buf bytes.Buffer
	Fprint(&buf, n)
	return buf.String()
}

// ----------------------------------------------------------------------------
// Subnodes, Refnodes and CopyNode

func TestSubnodesCopyNodeRoundTrip(t *testing.T) {
	root := mustParse(t, sampleProgram)
	count := 0
	Walk(root, func(n Node) bool {
		count++
		subs, refs := Subnodes(n), Refnodes(n)
		c := CopyNode(n, subs, refs)
		if c == n || c.Kind() != n.Kind() {
			t.Fatalf("CopyNode(%s) returned %v", n.Kind(), c)
		}
		if !sameNodes(Subnodes(c), subs) {
			t.Errorf("%s: subnodes differ after round trip", n.Kind())
		}
		if !sameNodes(Refnodes(c), refs) {
			t.Errorf("%s: refnodes differ after round trip", n.Kind())
		}
		return true
	})
	if count < 30 {
		t.Errorf("visited only %d nodes", count)
	}
}

func sameNodes(a, b []Node) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSetSubnodesKeepsAbsentSlots(t *testing.T) {
	l := NewLoop(nil, nil, NewIdent(nil, "c"), nil, NewScope(nil))
	subs := Subnodes(l)
	if len(subs) != 4 || subs[0] != nil || subs[2] != nil {
		t.Fatalf("Subnodes(loop) = %v", subs)
	}
	SetSubnodes(l, subs)
	if l.Init != nil || l.Incr != nil || l.Cond == nil || l.Body == nil {
		t.Errorf("loop after SetSubnodes = %+v", l)
	}
}

func TestSetSubnodesWrongVariantPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	d := NewVarDecl(nil, nil, "x")
	SetSubnodes(d, []Node{NewIdent(nil, "not a type"), d.Ident, nil})
}

func TestParallelSubnodeLayout(t *testing.T) {
	par := NewParallel(nil)
	a, b, c := NewIdent(nil, "a"), NewIdent(nil, "b"), NewIdent(nil, "c")
	par.Outputs = []Node{a}
	par.Inputs = []Node{b, c}
	par.Index = NewVarDecl(nil, nil, "id")
	par.Body = NewScope(nil)
	subs := Subnodes(par)
	if len(subs) != 5 || subs[2] != Node(a) || subs[4] != Node(c) {
		t.Fatalf("Subnodes(parallel) = %v", subs)
	}
	x := NewIdent(nil, "x")
	subs[3] = x
	SetSubnodes(par, subs)
	if len(par.Outputs) != 1 || len(par.Inputs) != 2 || par.Inputs[0] != Node(x) {
		t.Errorf("outputs=%v inputs=%v", par.Outputs, par.Inputs)
	}
}

// ----------------------------------------------------------------------------
// Copy and Destroy

func TestCopyThenDestroyLeavesOriginal(t *testing.T) {
	root := mustParse(t, sampleProgram)
	before := dump(root)

	c := Copy(root)
	if got := dump(c); got != before {
		t.Fatalf("copy differs from original:\n%s\nwant:\n%s", got, before)
	}
	Destroy(c)

	if got := dump(root); got != before {
		t.Errorf("original changed after destroying the copy:\n%s", got)
	}
	if err := Verify(root); err != nil {
		t.Errorf("Verify(original): %v", err)
	}
}

func TestCopyRemapsInternalReferences(t *testing.T) {
	root := mustParse(t, sampleProgram)
	c := Copy(root).(*Scope)

	orig := make(map[Node]bool)
	Walk(root, func(n Node) bool {
		orig[n] = true
		return true
	})
	Walk(c, func(n Node) bool {
		if orig[n] {
			t.Fatalf("copy shares owned node %s", n.Kind())
		}
		for _, r := range Refnodes(n) {
			if r != nil && orig[r] {
				t.Errorf("%s in copy still refers to original %s", n.Kind(), r.Kind())
			}
		}
		return true
	})
}

func TestCopySubtreeSharesOuterReferences(t *testing.T) {
	root := mustParse(t, sampleProgram)
	fn := funcNamed(t, root, "f")
	g := userNodes(root)[1].(*VarDecl)

	c := Copy(fn).(*FuncDecl)
	loop := c.Body.Nodes[1].(*Loop)
	cond := loop.Cond.(*Biop)
	if cond.Rhs.(*Ident).Decl != g {
		t.Error("reference to global g should keep pointing at the original")
	}
	if cond.Lhs.(*Ident).Decl != loop.Init {
		t.Error("reference to the loop variable should point into the copy")
	}
	if c.Ident.Decl != c {
		t.Error("function ident should resolve to the copied function")
	}
}

func TestCopierFilter(t *testing.T) {
	root := mustParse(t, sampleProgram)
	cp := NewCopier()
	cp.Filter = func(n Node, depth int) bool {
		fn, ok := n.(*FuncDecl)
		return !(depth == 1 && ok && !fn.IsBuiltin)
	}
	c := cp.Copy(root).(*Scope)
	cp.Remap(c)
	if len(c.Nodes) != len(root.Nodes)-1 {
		t.Errorf("filtered copy has %d statements, want %d", len(c.Nodes), len(root.Nodes)-1)
	}
	for _, n := range c.Nodes {
		if fn, ok := n.(*FuncDecl); ok && !fn.IsBuiltin {
			t.Error("user function survived the filter")
		}
	}
}

func TestShallowCopy(t *testing.T) {
	x := NewIdent(nil, "x")
	y := NewIdent(nil, "y")
	b := NewBiop(nil, _Add, x, y)
	z := NewIdent(nil, "z")
	c := ShallowCopy(b, []Node{z, y}).(*Biop)
	if c.Op != _Add || c.Lhs != Node(z) || c.Rhs != Node(y) || b.Lhs != Node(x) {
		t.Errorf("ShallowCopy = %+v, original %+v", c, b)
	}
}

func TestDestroy(t *testing.T) {
	root := mustParse(t, sampleProgram)
	fn := funcNamed(t, root, "f")
	body := fn.Body
	Destroy(fn)
	if fn.Body != nil || fn.Params != nil || body.Nodes != nil {
		t.Error("Destroy did not release owned children")
	}
	// Declarations referenced from the destroyed subtree survive.
	if g := userNodes(root)[1].(*VarDecl); g.Type == nil || g.Ident.Name != "g" {
		t.Error("referenced global was destroyed")
	}
}

// ----------------------------------------------------------------------------
// ReplaceNodes

func TestReplaceNodesSimple(t *testing.T) {
	x, y := NewIdent(nil, "x"), NewIdent(nil, "y")
	sum := NewBiop(nil, _Add, x, NewIntLiteral(nil, 1, nil))
	got := ReplaceNodes(sum, []Node{x}, []Node{y})
	if got != Node(sum) || sum.Lhs != Node(y) {
		t.Errorf("lhs = %v, want y", sum.Lhs)
	}
}

func TestReplaceNodesRoot(t *testing.T) {
	x, y := NewIdent(nil, "x"), NewIdent(nil, "y")
	if got := ReplaceNodes(x, []Node{x}, []Node{y}); got != Node(y) {
		t.Errorf("got %v, want y", got)
	}
}

func TestReplaceNodesSelfContaining(t *testing.T) {
	// x -> x * 2, where the replacement owns x itself: the walk must stop.
	x := NewIdent(nil, "x")
	sum := NewBiop(nil, _Add, x, NewIntLiteral(nil, 1, nil))
	twice := NewBiop(nil, _Mul, x, NewIntLiteral(nil, 2, nil))
	ReplaceNodes(sum, []Node{x}, []Node{twice})
	if sum.Lhs != Node(twice) || twice.Lhs != Node(x) {
		t.Errorf("got %s", paren(sum))
	}
	if err := Verify(sum); err != nil {
		t.Errorf("Verify: %v", err)
	}
}

func TestReplaceNodesComposes(t *testing.T) {
	// a -> b * 2 and b -> c: the b inside the first replacement is rewritten too.
	a, b, c := NewIdent(nil, "a"), NewIdent(nil, "b"), NewIdent(nil, "c")
	root := NewBiop(nil, _Add, a, NewIntLiteral(nil, 1, nil))
	p := NewBiop(nil, _Mul, b, NewIntLiteral(nil, 2, nil))
	ReplaceNodes(root, []Node{a, b}, []Node{p, c})
	if got, want := paren(root), "((c * 2) + 1)"; got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestReplaceNodesRefnodes(t *testing.T) {
	old := NewVarDecl(nil, nil, "old")
	repl := NewVarDecl(nil, nil, "new")
	use := NewIdent(nil, "old")
	use.Decl = old
	s := NewScope(nil)
	s.Nodes = append(s.Nodes, use)
	ReplaceNodes(s, []Node{old}, []Node{repl})
	if use.Decl != Node(repl) {
		t.Errorf("ident refers to %v, want the replacement", use.Decl)
	}
}

func TestReplaceNodesLengthMismatchPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	ReplaceNodes(NewScope(nil), []Node{NewScope(nil)}, nil)
}

// ----------------------------------------------------------------------------
// ParentMap

func TestParentMap(t *testing.T) {
	root := mustParse(t, sampleProgram)
	pm := BuildParentMap(root)
	fn := funcNamed(t, root, "f")
	loop := fn.Body.Nodes[1].(*Loop)
	inc := loop.Body.(*Scope).Nodes[0]

	if pm.Parent(root) != nil {
		t.Error("root has a parent")
	}
	if pm.Parent(inc) != loop.Body || pm.Parent(loop.Body) != loop || pm.Parent(loop) != fn.Body {
		t.Error("wrong parent chain")
	}
	if !pm.IsAncestor(fn, inc) || pm.IsAncestor(inc, fn) || pm.IsAncestor(inc, inc) {
		t.Error("IsAncestor")
	}
	if pm.EnclosingFunc(inc) != fn || pm.EnclosingFunc(fn) != nil {
		t.Error("EnclosingFunc")
	}
	if pm.EnclosingScope(inc) != loop.Body {
		t.Error("EnclosingScope")
	}

	n := pm.Len()
	pm.Forget(loop)
	if pm.Parent(inc) != nil || pm.Parent(loop) != nil || pm.Len() >= n {
		t.Error("Forget left entries behind")
	}
}

func TestParentMapRejectsCycles(t *testing.T) {
	root := mustParse(t, sampleProgram)
	pm := BuildParentMap(root)
	fn := funcNamed(t, root, "f")
	defer func() {
		if recover() == nil {
			t.Error("making a node its own ancestor did not panic")
		}
	}()
	pm.Set(fn, fn.Body.Nodes[0])
}

func TestVisibleOrder(t *testing.T) {
	root := mustParse(t, sampleProgram)
	pm := BuildParentMap(root)
	fn := funcNamed(t, root, "f")
	loop := fn.Body.Nodes[1].(*Loop)
	inc := loop.Body.(*Scope).Nodes[0]

	names := []string{}
	for _, d := range pm.Visible(inc) {
		names = append(names, DeclName(d))
	}
	// innermost first: loop variable, local s, parameters, the function,
	// then the globals before it.
	want := []string{"i", "s", "p", "m", "f", "g", "P"}
	for i, w := range want {
		if i >= len(names) || names[i] != w {
			t.Fatalf("visible = %v, want prefix %v", names, want)
		}
	}
}

// ----------------------------------------------------------------------------
// EvalConstExpr

func TestEvalConstExpr(t *testing.T) {
	tests := []struct {
		src     string
		isFloat bool
		i       int64
		f       float64
		folds   bool
	}{
		{"1 + 2", false, 3, 0, true},
		{"-(3 - 5)", false, 2, 0, true},
		{"10 - 4 - 3", false, 3, 0, true},
		{"+7", false, 7, 0, true},
		{"1.5 + 2", true, 0, 3.5, true},
		{"-0.5", true, 0, -0.5, true},
		{"x", false, 0, 0, false},
		{"1 + x", false, 0, 0, false},
		{"2 * 3", false, 0, 0, false},
		{"1 < 2", false, 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			toks := Tokenize("e.fld", []byte(tt.src), nil)
			_, x, err := ParseFragment("e.fld", toks, AllowUndeclared)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			v := EvalConstExpr(x)
			if !tt.folds {
				if v != nil {
					t.Errorf("folded to %s, want nil", literalString(v))
				}
				return
			}
			if v == nil {
				t.Fatal("did not fold")
			}
			if v == x {
				t.Error("result aliases the input")
			}
			if tt.isFloat {
				if v.LitKind != LitFloat || v.Float != tt.f {
					t.Errorf("got %s, want %v", literalString(v), tt.f)
				}
			} else if v.LitKind != LitInt || v.Int != tt.i {
				t.Errorf("got %s, want %d", literalString(v), tt.i)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// ExprType

func TestExprType(t *testing.T) {
	root := mustParse(t, `
struct P { int x; float *w; };
int a[4];
matrix(2, 3) m;
field(matrix(3), 2) fm;
struct P p;
struct P *pp;
float h(int k) { return k; }
`)
	lookup := func(name string) *Ident {
		d := Select(userNodes(root), Query{Name: name})
		if d == nil {
			t.Fatalf("%s not declared", name)
		}
		id := NewIdent(nil, name)
		id.Decl = d
		return id
	}
	member := func(base Node, kind AccessKind, name string) Node {
		typ := ExprType(base)
		if kind == AccessPtrMember {
			typ.PtrDepth--
		}
		id := NewIdent(nil, name)
		id.Decl = Member(typ, name)
		return NewAccess(nil, kind, base, id)
	}

	tests := []struct {
		name string
		expr Node
		want string
	}{
		{"array_var", lookup("a"), "int[4]"},
		{"array_index", NewAccess(nil, AccessArray, lookup("a"), NewIntLiteral(nil, 0, nil)), "int"},
		{"matrix_element", NewAccess(nil, AccessElement, lookup("m"), NewIntLiteral(nil, 0, nil), NewIntLiteral(nil, 1, nil)), "float"},
		{"field_element", NewAccess(nil, AccessElement, lookup("fm"), NewIntLiteral(nil, 0, nil), NewIntLiteral(nil, 1, nil)), "matrix(3)"},
		{"member", member(lookup("p"), AccessMember, "x"), "int"},
		{"ptr_member", member(lookup("pp"), AccessPtrMember, "w"), "float*"},
		{"deref", NewBiop(nil, _Mul, nil, member(lookup("p"), AccessMember, "w")), "float"},
		{"address", NewBiop(nil, _And, nil, lookup("p")), "struct P*"},
		{"call", NewCall(nil, "h", lookup("h").Decl.(*FuncDecl), NewIntLiteral(nil, 1, nil)), "float"},
		{"assign", NewBiop(nil, _Assign, member(lookup("p"), AccessMember, "x"), lookup("h")), "int"},
		{"cast", NewCast(nil, NewType(nil, lookup("m").Decl.(*VarDecl).Type.BaseDecl), lookup("a")), "matrix(2, 3)"},
		{"unresolved", NewIdent(nil, "nope"), "<nil>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TypeString(ExprType(tt.expr)); got != tt.want {
				t.Errorf("ExprType = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestExprTypeIsFresh(t *testing.T) {
	root := mustParse(t, "int v;")
	d := userNodes(root)[0].(*VarDecl)
	id := NewIdent(nil, "v")
	id.Decl = d
	et := ExprType(id)
	if et == d.Type {
		t.Fatal("ExprType aliases the declaration's type")
	}
	et.PtrDepth = 3
	if d.Type.PtrDepth != 0 {
		t.Error("mutating the result changed the declaration")
	}
	if !TypesEqual(ExprType(id), d.Type) {
		t.Error("TypesEqual")
	}
}

// ----------------------------------------------------------------------------
// Builtin types

func TestBuiltinTypeNames(t *testing.T) {
	f := mustPrimitive("float")
	i := mustPrimitive("int")
	tests := []struct {
		typ         BuiltinType
		name, spell string
	}{
		{f, "float", "float"},
		{mustPrimitive("uint"), "uint", "uint"},
		{MatrixOf(f, 2, 2), "float_matrix_2x2", "matrix(2, 2)"},
		{MatrixOf(i, 3), "int_matrix_3", "matrix(int, 3)"},
		{FieldOf(f, 2), "float_field_2", "field(2)"},
		{FieldOf(i, 1), "int_field_1", "field(int, 1)"},
		{FieldOf(MatrixOf(f, 4), 3), "float_matrix_4_field_3", "field(matrix(4), 3)"},
	}
	for _, tt := range tests {
		if got := tt.typ.Name(); got != tt.name {
			t.Errorf("Name() = %q, want %q", got, tt.name)
		}
		if got := tt.typ.String(); got != tt.spell {
			t.Errorf("String() = %q, want %q", got, tt.spell)
		}
	}
	if mustPrimitive("uint").CName() != "unsigned int" {
		t.Error("CName(uint)")
	}
}

func TestBuiltinElement(t *testing.T) {
	f := mustPrimitive("float")
	fm := FieldOf(MatrixOf(f, 2, 2), 3)
	if fm.Element() != MatrixOf(f, 2, 2) {
		t.Errorf("field element = %s", fm.Element())
	}
	if fm.Element().Element() != f || fm.Scalar() != f {
		t.Errorf("matrix element = %s", fm.Element().Element())
	}
	if MatrixOf(f, 2, 3, 4).Elems() != 24 {
		t.Error("Elems")
	}
}

func TestBuiltinsDedup(t *testing.T) {
	b := NewBuiltins()
	f := mustPrimitive("float")
	x := b.Type(FieldOf(f, 2))
	y := b.Type(FieldOf(f, 2))
	if x != y {
		t.Fatal("same descriptor produced two declarations")
	}
	if x.Elem != b.Lookup(f) || x.Elem == nil {
		t.Error("field element declaration missing")
	}
	helpers := 0
	for _, d := range b.Decls() {
		if fn, ok := d.(*FuncDecl); ok && fn.IsBuiltin {
			helpers++
		}
	}
	if helpers != 6 {
		t.Errorf("got %d helpers, want 6", helpers)
	}

	m23 := b.Type(MatrixOf(f, 2, 3))
	m34 := b.Type(MatrixOf(f, 3, 4))
	mul := b.Mul(m23, m34)
	if mul == nil || b.Mul(m23, m34) != mul {
		t.Fatal("multiply helper not deduplicated")
	}
	if b.Mul(m23, m23) != nil {
		t.Error("2x3 * 2x3 accepted")
	}
}

// ----------------------------------------------------------------------------
// Verify and dumps

func TestVerifyDetectsSharing(t *testing.T) {
	x := NewIdent(nil, "x")
	b := NewBiop(nil, _Add, x, x)
	if err := Verify(b); err == nil {
		t.Error("shared subnode not detected")
	}
}

func TestFprintJSON(t *testing.T) {
	root := mustParse(t, "int x = 1 + 2; // note")
	var buf bytes.Buffer
	if err := FprintJSON(&buf, root); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`"type": "VarDecl"`, `"op": "+"`, `"// note"`, `"builtin": "int"`} {
		if !bytes.Contains(buf.Bytes(), []byte(want)) {
			t.Errorf("JSON output lacks %s", want)
		}
	}
}
