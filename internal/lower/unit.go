package lower

import (
	"github.com/you-not-fish/fieldc/internal/syntax"
)

// Unit is one program being lowered. Passes mutate Root in place, except
// hoisting, which replaces it.
type Unit struct {
	Root *syntax.Scope

	pm       *syntax.ParentMap
	builtins *syntax.Builtins
	known    int // builtin declarations already present in Root
	externs  map[string]*syntax.FuncDecl
}

// NewUnit prepares root for lowering. root is mutated by the passes.
func NewUnit(root *syntax.Scope) *Unit {
	b := syntax.BuiltinsOf(root)
	return &Unit{
		Root:     root,
		pm:       syntax.BuildParentMap(root),
		builtins: b,
		known:    b.Len(),
		externs:  make(map[string]*syntax.FuncDecl),
	}
}

// refresh rebuilds the parent map after structural changes.
func (u *Unit) refresh() {
	u.flush()
	u.pm = syntax.BuildParentMap(u.Root)
}

// flush inserts builtin declarations created since the last flush after the
// existing builtin section of Root.
func (u *Unit) flush() {
	decls := u.builtins.Decls()
	if len(decls) == u.known {
		return
	}
	fresh := decls[u.known:]
	u.known = len(decls)
	u.insertTop(u.builtinEnd(), fresh...)
}

// builtinEnd returns the index of the first Root statement that is not a
// builtin declaration.
func (u *Unit) builtinEnd() int {
	for i, n := range u.Root.Nodes {
		if !isBuiltin(n) {
			return i
		}
	}
	return len(u.Root.Nodes)
}

func (u *Unit) insertTop(at int, nodes ...syntax.Node) {
	list := make([]syntax.Node, 0, len(u.Root.Nodes)+len(nodes))
	list = append(list, u.Root.Nodes[:at]...)
	list = append(list, nodes...)
	list = append(list, u.Root.Nodes[at:]...)
	u.Root.Nodes = list
}

func isBuiltin(n syntax.Node) bool {
	switch d := n.(type) {
	case *syntax.TypeDecl:
		return d.IsBuiltin
	case *syntax.FuncDecl:
		return d.IsBuiltin
	}
	return false
}

// ----------------------------------------------------------------------------
// Node construction

// builtinType returns the declaration of t, creating it when needed.
func (u *Unit) builtinType(t syntax.BuiltinType) *syntax.TypeDecl {
	return u.builtins.Type(t)
}

// prim returns the declaration of a primitive type.
func (u *Unit) prim(name string) *syntax.TypeDecl {
	return u.builtins.Primitive(name)
}

// typ returns a fresh reference to the type decl with ptr levels of
// indirection.
func typ(decl *syntax.TypeDecl, ptr int) *syntax.Type {
	t := syntax.NewType(nil, decl)
	t.PtrDepth = ptr
	return t
}

func (u *Unit) intLit(v int) *syntax.Literal {
	return syntax.NewIntLiteral(nil, int64(v), u.prim("int"))
}

func (u *Unit) boolLit(v bool) *syntax.Literal {
	l := syntax.NewIntLiteral(nil, 0, u.prim("bool"))
	l.LitKind = syntax.LitBool
	l.Bool = v
	return l
}

// ref returns an identifier resolving to decl.
func ref(decl syntax.Node) *syntax.Ident {
	id := syntax.NewIdent(nil, syntax.DeclName(decl))
	id.Decl = decl
	return id
}

func assign(lhs, rhs syntax.Node) *syntax.Biop {
	return syntax.NewBiop(nil, syntax.Assign, lhs, rhs)
}

func member(base syntax.Node, m *syntax.VarDecl) *syntax.Access {
	return syntax.NewAccess(nil, syntax.AccessMember, base, ref(m))
}

func index(base, i syntax.Node) *syntax.Access {
	return syntax.NewAccess(nil, syntax.AccessArray, base, i)
}

func call(fn *syntax.FuncDecl, args ...syntax.Node) *syntax.Call {
	return syntax.NewCall(nil, fn.Ident.Name, fn, args...)
}

// extern returns the declaration of a C library function, creating it
// among the builtin declarations on first use.
func (u *Unit) extern(name string, ret *syntax.Type, params ...*syntax.VarDecl) *syntax.FuncDecl {
	if fn, ok := u.externs[name]; ok {
		return fn
	}
	fn := syntax.NewFuncDecl(nil, ret, name)
	fn.IsBuiltin = true
	fn.Builtin = syntax.BuiltinExtern
	fn.Params = append(fn.Params, params...)
	u.externs[name] = fn
	u.insertTop(u.builtinEnd(), fn)
	return fn
}

func (u *Unit) malloc() *syntax.FuncDecl {
	void := u.prim("void")
	return u.extern("malloc", typ(void, 1), syntax.NewVarDecl(nil, typ(u.prim("int"), 0), "size"))
}

func (u *Unit) free() *syntax.FuncDecl {
	void := u.prim("void")
	return u.extern("free", typ(void, 0), syntax.NewVarDecl(nil, typ(void, 1), "ptr"))
}

func (u *Unit) memcpy() *syntax.FuncDecl {
	void := u.prim("void")
	return u.extern("memcpy", typ(void, 1),
		syntax.NewVarDecl(nil, typ(void, 1), "dst"),
		syntax.NewVarDecl(nil, typ(void, 1), "src"),
		syntax.NewVarDecl(nil, typ(u.prim("int"), 0), "size"))
}

// ----------------------------------------------------------------------------
// Rewriting

// rewrite replaces every node of n's subtree, children first, by f's
// result. f returns its argument to keep a node.
func rewrite(n syntax.Node, f func(syntax.Node) syntax.Node) syntax.Node {
	if n == nil {
		return nil
	}
	subs := syntax.Subnodes(n)
	changed := false
	for i, s := range subs {
		if s == nil {
			continue
		}
		if r := rewrite(s, f); r != s {
			subs[i] = r
			changed = true
		}
	}
	if changed {
		syntax.SetSubnodes(n, subs)
	}
	return f(n)
}
