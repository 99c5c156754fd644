package syntax

// Namespace selects which declarations a lookup considers.
type Namespace uint8

const (
	ValueNames Namespace = iota // variables and functions
	TypeNames                   // struct declarations and typedefs
)

// Query describes a name lookup.
type Query struct {
	Name string
	NS   Namespace

	// Call selects function declarations with len(Args) parameters; Args
	// entries that are nil match any parameter type.
	Call bool
	Args []*Type

	// Hint, if set, prefers declarations whose value or return type equals
	// it. A lookup whose hint matches nothing falls back to ignoring it.
	Hint *Type
}

// Visible returns every declaration visible from n, innermost first. A scope
// contributes the declarations that precede the statement containing n;
// loops contribute their init declaration, functions their parameters and
// themselves, and for_field its index. Builtins come last.
func (m *ParentMap) Visible(n Node) []Node {
	var decls []Node
	var prev Node
	for cur := n; cur != nil; prev, cur = cur, m.parents[cur] {
		switch c := cur.(type) {
		case *Scope:
			end := len(c.Nodes)
			for i, s := range c.Nodes {
				if s == prev {
					end = i
					break
				}
			}
			for i := end - 1; i >= 0; i-- {
				decls = appendDecl(decls, c.Nodes[i])
			}
		case *Loop:
			if c.Init != nil && c.Init != prev {
				decls = appendDecl(decls, c.Init)
			}
		case *FuncDecl:
			for _, p := range c.Params {
				decls = append(decls, p)
			}
			decls = append(decls, c)
		case *TypeDecl:
			decls = append(decls, c)
		case *Parallel:
			if c.Index != nil {
				decls = append(decls, c.Index)
			}
		}
	}
	return append(decls, m.Builtins...)
}

func appendDecl(decls []Node, n Node) []Node {
	if IsDecl(n) {
		return append(decls, n)
	}
	return decls
}

// Resolve returns the declaration q selects among those visible from n, or
// nil.
func (m *ParentMap) Resolve(n Node, q Query) Node {
	return Select(m.Visible(n), q)
}

// Select picks the first declaration of decls matching q.
func Select(decls []Node, q Query) Node {
	var fallback Node
	for _, d := range decls {
		if DeclName(d) != q.Name || !inNamespace(d, q.NS) {
			continue
		}
		if q.Call {
			fn, ok := d.(*FuncDecl)
			if !ok || !argsMatch(fn, q.Args) {
				continue
			}
		}
		if q.Hint == nil {
			return d
		}
		if TypesEqual(declType(d), q.Hint) {
			return d
		}
		if fallback == nil {
			fallback = d
		}
	}
	return fallback
}

func inNamespace(d Node, ns Namespace) bool {
	switch d.(type) {
	case *TypeDecl, *Typedef:
		return ns == TypeNames
	case *VarDecl, *FuncDecl:
		return ns == ValueNames
	}
	return false
}

func declType(d Node) *Type {
	switch d := d.(type) {
	case *VarDecl:
		return d.Type
	case *FuncDecl:
		return d.ReturnType
	}
	return nil
}

func argsMatch(fn *FuncDecl, args []*Type) bool {
	if len(fn.Params) != len(args) {
		return false
	}
	for i, a := range args {
		if a == nil || fn.Params[i].Type == nil {
			continue
		}
		if !assignable(fn.Params[i].Type, a) {
			return false
		}
	}
	return true
}

// assignable is a loose C compatibility check: distinct scalar types convert
// implicitly, composite types and pointers must match exactly.
func assignable(dst, src *Type) bool {
	if TypesEqual(dst, src) {
		return true
	}
	db, dok := dst.Builtin()
	sb, sok := src.Builtin()
	if dok && sok {
		return db.IsPrimitive() && sb.IsPrimitive() && !db.IsVoid && !sb.IsVoid
	}
	return dst.BaseDecl == src.BaseDecl && dst.PtrDepth == src.PtrDepth
}

// Member returns the member called name of the struct t names, or nil.
func Member(t *Type, name string) *VarDecl {
	if t == nil || t.BaseDecl == nil || t.BaseDecl.Body == nil {
		return nil
	}
	for _, n := range t.BaseDecl.Body.Nodes {
		if v, ok := n.(*VarDecl); ok && v.Ident.Name == name {
			return v
		}
	}
	return nil
}
