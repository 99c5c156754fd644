package syntax

import "fmt"

// clone returns a copy of n's own fields. Subnode and refnode slots still
// alias the original; comment lists are duplicated.
func clone(n Node) Node {
	var c Node
	switch n := n.(type) {
	case *Scope:
		d := *n
		c = &d
	case *Ident:
		d := *n
		c = &d
	case *Type:
		d := *n
		c = &d
	case *TypeDecl:
		d := *n
		c = &d
	case *VarDecl:
		d := *n
		c = &d
	case *FuncDecl:
		d := *n
		c = &d
	case *Literal:
		d := *n
		c = &d
	case *Biop:
		d := *n
		c = &d
	case *Control:
		d := *n
		c = &d
	case *Call:
		d := *n
		c = &d
	case *Access:
		d := *n
		c = &d
	case *Cond:
		d := *n
		c = &d
	case *Loop:
		d := *n
		c = &d
	case *Cast:
		d := *n
		c = &d
	case *Typedef:
		d := *n
		c = &d
	case *Parallel:
		d := *n
		c = &d
	default:
		panic(fmt.Sprintf("syntax: unknown node %T", n))
	}
	b := c.base()
	b.pre = append([]*Lexeme(nil), b.pre...)
	b.post = append([]*Lexeme(nil), b.post...)
	return c
}

// CopyNode returns a new node with the scalar fields of n and the given
// subnodes and refnodes, both in the layout of Subnodes and Refnodes.
// CopyNode(n, Subnodes(n), Refnodes(n)) is structurally equal to n.
func CopyNode(n Node, subs, refs []Node) Node {
	c := clone(n)
	SetSubnodes(c, subs)
	SetRefnodes(c, refs)
	return c
}

// ShallowCopy copies n's scalar fields and refnodes, taking its subnodes
// from subs. The caller owns subs.
func ShallowCopy(n Node, subs []Node) Node {
	return CopyNode(n, subs, Refnodes(n))
}

// ----------------------------------------------------------------------------
// Deep copy

// Copier deep-copies subtrees while recording every original node and its
// copy. A single Copier can copy several subtrees; Remap then redirects the
// refnodes of all copies that point at copied originals.
type Copier struct {
	// Map associates each copied original with its copy.
	Map map[Node]Node

	// Filter, if set, is asked about every subnode before it is copied; depth
	// is the subnode's distance from the node passed to Copy. Rejected
	// subnodes are left out of the copy.
	Filter func(n Node, depth int) bool
}

// NewCopier returns a Copier with an empty map.
func NewCopier() *Copier {
	return &Copier{Map: make(map[Node]Node)}
}

// Copy copies n's owned subtree. Refnodes of the copy still point at the
// originals until Remap runs.
func (c *Copier) Copy(n Node) Node {
	if n == nil {
		return nil
	}
	return c.copy(n, 0)
}

func (c *Copier) copy(n Node, depth int) Node {
	dup := clone(n)
	c.Map[n] = dup // before recursing, so descendants can refer back to n

	subs := Subnodes(n)
	for i, sub := range subs {
		if sub == nil {
			continue
		}
		if c.Filter != nil && !c.Filter(sub, depth+1) {
			subs[i] = nil
			continue
		}
		subs[i] = c.copy(sub, depth+1)
	}
	switch n.(type) {
	case *Scope, *Literal:
		subs = compact(subs)
	}
	SetSubnodes(dup, subs)
	return dup
}

// Remap rewrites the refnodes of root's subtree through the copy map.
// References to nodes that were not copied are left untouched.
func (c *Copier) Remap(root Node) {
	Walk(root, func(n Node) bool {
		refs := Refnodes(n)
		changed := false
		for i, r := range refs {
			if r == nil {
				continue
			}
			if dup, ok := c.Map[r]; ok {
				refs[i] = dup
				changed = true
			}
		}
		if changed {
			SetRefnodes(n, refs)
		}
		return true
	})
}

// Copy returns a deep copy of n. Refnodes pointing inside n's subtree point
// at the corresponding copies; refnodes pointing outside are shared.
func Copy(n Node) Node {
	c := NewCopier()
	dup := c.Copy(n)
	c.Remap(dup)
	return dup
}

func compact(list []Node) []Node {
	out := list[:0]
	for _, n := range list {
		if n != nil {
			out = append(out, n)
		}
	}
	return out
}

// ----------------------------------------------------------------------------
// Destruction

// Destroy releases n and every node it owns. Refnodes are never followed,
// so declarations referenced from inside n survive.
func Destroy(n Node) {
	if n == nil {
		return
	}
	for _, sub := range Subnodes(n) {
		Destroy(sub)
	}
	ShallowDestroy(n)
}

// ShallowDestroy releases n's own containers without touching its subnodes,
// for nodes whose children have been moved elsewhere.
func ShallowDestroy(n Node) {
	if n == nil {
		return
	}
	b := n.base()
	b.pre, b.post, b.attr, b.gap = nil, nil, "", false
	switch n := n.(type) {
	case *Scope:
		n.Nodes = nil
	case *Ident, *Type:
	case *TypeDecl:
		n.Ident, n.Body = nil, nil
	case *VarDecl:
		n.Type, n.Ident, n.Value = nil, nil, nil
	case *FuncDecl:
		n.ReturnType, n.Ident, n.Body, n.Params = nil, nil, nil, nil
	case *Literal:
		n.Elems = nil
	case *Biop:
		n.Lhs, n.Rhs = nil, nil
	case *Control:
		n.Value = nil
	case *Call:
		n.Ident, n.Args = nil, nil
	case *Access:
		n.Base, n.Args = nil, nil
	case *Cond:
		n.Expr, n.Body, n.AfterElse = nil, nil, nil
	case *Loop:
		n.Init, n.Cond, n.Incr, n.Body = nil, nil, nil, nil
	case *Cast:
		n.Type, n.Target = nil, nil
	case *Typedef:
		n.Type, n.Ident = nil, nil
	case *Parallel:
		n.Outputs, n.Inputs, n.Index, n.Body = nil, nil, nil, nil
	default:
		panic(fmt.Sprintf("syntax: unknown node %T", n))
	}
}
