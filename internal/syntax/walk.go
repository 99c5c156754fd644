package syntax

import "fmt"

// Subnodes returns the owned children of n in positional order. Absent
// optional slots are reported as nil so that SetSubnodes can restore them.
func Subnodes(n Node) []Node {
	switch n := n.(type) {
	case *Scope:
		return append([]Node(nil), n.Nodes...)
	case *Ident, *Type:
		return nil
	case *TypeDecl:
		return []Node{wrap(n.Ident), wrap(n.Body)}
	case *VarDecl:
		return []Node{wrap(n.Type), wrap(n.Ident), n.Value}
	case *FuncDecl:
		subs := []Node{wrap(n.ReturnType), wrap(n.Ident), wrap(n.Body)}
		for _, p := range n.Params {
			subs = append(subs, p)
		}
		return subs
	case *Literal:
		return append([]Node(nil), n.Elems...)
	case *Biop:
		return []Node{n.Lhs, n.Rhs}
	case *Control:
		return []Node{n.Value}
	case *Call:
		return append([]Node{wrap(n.Ident)}, n.Args...)
	case *Access:
		return append([]Node{n.Base}, n.Args...)
	case *Cond:
		return []Node{n.Expr, n.Body, n.AfterElse}
	case *Loop:
		return []Node{n.Init, n.Cond, n.Incr, n.Body}
	case *Cast:
		return []Node{wrap(n.Type), n.Target}
	case *Typedef:
		return []Node{wrap(n.Type), wrap(n.Ident)}
	case *Parallel:
		subs := []Node{wrap(n.Index), wrap(n.Body)}
		subs = append(subs, n.Outputs...)
		return append(subs, n.Inputs...)
	}
	panic(fmt.Sprintf("syntax: unknown node %T", n))
}

// Refnodes returns the borrowed references of n in positional order.
func Refnodes(n Node) []Node {
	switch n := n.(type) {
	case *Ident:
		return []Node{n.Decl}
	case *Type:
		return []Node{wrap(n.BaseDecl), wrap(n.Typedef)}
	case *TypeDecl:
		return []Node{wrap(n.Concrete), wrap(n.Elem)}
	case *FuncDecl:
		return []Node{wrap(n.Concrete)}
	case *Literal:
		return []Node{wrap(n.Base)}
	case *Scope, *VarDecl, *Biop, *Control, *Call, *Access, *Cond, *Loop, *Cast, *Typedef, *Parallel:
		return nil
	}
	panic(fmt.Sprintf("syntax: unknown node %T", n))
}

// SetSubnodes replaces the owned children of n. subs must have the layout
// Subnodes(n) reports; list-valued slots take their length from n itself
// except for the trailing list, which takes the remainder.
func SetSubnodes(n Node, subs []Node) {
	switch n := n.(type) {
	case *Scope:
		n.Nodes = append(make([]Node, 0, len(subs)), subs...)
	case *Ident, *Type:
		need(n, subs, 0)
	case *TypeDecl:
		need(n, subs, 2)
		n.Ident = as[*Ident](subs[0])
		n.Body = as[*Scope](subs[1])
	case *VarDecl:
		need(n, subs, 3)
		n.Type = as[*Type](subs[0])
		n.Ident = as[*Ident](subs[1])
		n.Value = subs[2]
	case *FuncDecl:
		atLeast(n, subs, 3)
		n.ReturnType = as[*Type](subs[0])
		n.Ident = as[*Ident](subs[1])
		n.Body = as[*Scope](subs[2])
		n.Params = make([]*VarDecl, 0, len(subs)-3)
		for _, p := range subs[3:] {
			n.Params = append(n.Params, as[*VarDecl](p))
		}
	case *Literal:
		if n.LitKind == LitCompound {
			n.Elems = append(make([]Node, 0, len(subs)), subs...)
		} else {
			need(n, subs, 0)
		}
	case *Biop:
		need(n, subs, 2)
		n.Lhs, n.Rhs = subs[0], subs[1]
	case *Control:
		need(n, subs, 1)
		n.Value = subs[0]
	case *Call:
		atLeast(n, subs, 1)
		n.Ident = as[*Ident](subs[0])
		n.Args = append(make([]Node, 0, len(subs)-1), subs[1:]...)
	case *Access:
		atLeast(n, subs, 1)
		n.Base = subs[0]
		n.Args = append(make([]Node, 0, len(subs)-1), subs[1:]...)
	case *Cond:
		need(n, subs, 3)
		n.Expr, n.Body, n.AfterElse = subs[0], subs[1], subs[2]
	case *Loop:
		need(n, subs, 4)
		n.Init, n.Cond, n.Incr, n.Body = subs[0], subs[1], subs[2], subs[3]
	case *Cast:
		need(n, subs, 2)
		n.Type = as[*Type](subs[0])
		n.Target = subs[1]
	case *Typedef:
		need(n, subs, 2)
		n.Type = as[*Type](subs[0])
		n.Ident = as[*Ident](subs[1])
	case *Parallel:
		outs := len(n.Outputs)
		atLeast(n, subs, 2+outs)
		n.Index = as[*VarDecl](subs[0])
		n.Body = as[*Scope](subs[1])
		n.Outputs = append(make([]Node, 0, outs), subs[2:2+outs]...)
		n.Inputs = append(make([]Node, 0, len(subs)-2-outs), subs[2+outs:]...)
	default:
		panic(fmt.Sprintf("syntax: unknown node %T", n))
	}
}

// SetRefnodes replaces the borrowed references of n, in Refnodes layout.
func SetRefnodes(n Node, refs []Node) {
	switch n := n.(type) {
	case *Ident:
		need(n, refs, 1)
		n.Decl = refs[0]
	case *Type:
		need(n, refs, 2)
		n.BaseDecl = as[*TypeDecl](refs[0])
		n.Typedef = as[*Typedef](refs[1])
	case *TypeDecl:
		need(n, refs, 2)
		n.Concrete = as[*TypeDecl](refs[0])
		n.Elem = as[*TypeDecl](refs[1])
	case *FuncDecl:
		need(n, refs, 1)
		n.Concrete = as[*FuncDecl](refs[0])
	case *Literal:
		need(n, refs, 1)
		n.Base = as[*TypeDecl](refs[0])
	case *Scope, *VarDecl, *Biop, *Control, *Call, *Access, *Cond, *Loop, *Cast, *Typedef, *Parallel:
		need(n, refs, 0)
	default:
		panic(fmt.Sprintf("syntax: unknown node %T", n))
	}
}

// wrap converts a possibly nil concrete pointer into a Node without
// producing a non-nil interface around a nil pointer.
func wrap[E any, P interface {
	*E
	Node
}](p P) Node {
	if p == nil {
		return nil
	}
	return p
}

// as converts a Node back into its concrete variant. A node of the wrong
// variant is an internal invariant violation.
func as[P Node](n Node) P {
	var zero P
	if n == nil {
		return zero
	}
	p, ok := n.(P)
	if !ok {
		panic(fmt.Sprintf("syntax: got %T, want %T", n, zero))
	}
	return p
}

func need(n Node, list []Node, count int) {
	if len(list) != count {
		panic(fmt.Sprintf("syntax: %s takes %d nodes, got %d", n.Kind(), count, len(list)))
	}
}

func atLeast(n Node, list []Node, count int) {
	if len(list) < count {
		panic(fmt.Sprintf("syntax: %s takes at least %d nodes, got %d", n.Kind(), count, len(list)))
	}
}

// ----------------------------------------------------------------------------
// Traversal

// Visitor is called for each node during Walk.
// If it returns false, the children of the node are not visited.
type Visitor func(node Node) bool

// Walk traverses the owned subtree of node in depth-first pre-order.
// Refnodes are never followed.
func Walk(node Node, v Visitor) {
	if node == nil || !v(node) {
		return
	}
	for _, sub := range Subnodes(node) {
		if sub != nil {
			Walk(sub, v)
		}
	}
}

// Inspect traverses an AST and calls f for each node.
// Convenience wrapper around Walk.
func Inspect(node Node, f func(Node) bool) {
	Walk(node, Visitor(f))
}

// FindSubnodes returns every node of the given kind in root's subtree,
// root included, innermost first (post-order).
func FindSubnodes(root Node, kind NodeKind) []Node {
	var found []Node
	var visit func(n Node)
	visit = func(n Node) {
		for _, sub := range Subnodes(n) {
			if sub != nil {
				visit(sub)
			}
		}
		if n.Kind() == kind {
			found = append(found, n)
		}
	}
	if root != nil {
		visit(root)
	}
	return found
}
