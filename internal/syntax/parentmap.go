package syntax

import "fmt"

// ParentMap maps every node of a tree to its immediate owner. Builtin
// declarations synthesized by the parser live outside any user scope and
// are kept in Builtins instead.
type ParentMap struct {
	parents  map[Node]Node
	Builtins []Node
}

// NewParentMap returns an empty parent map.
func NewParentMap() *ParentMap {
	return &ParentMap{parents: make(map[Node]Node)}
}

// BuildParentMap returns the parent map of root's subtree.
func BuildParentMap(root Node) *ParentMap {
	m := NewParentMap()
	m.Build(root)
	return m
}

// Build records the parent of every node in root's subtree. root itself
// keeps whatever parent it already had.
func (m *ParentMap) Build(root Node) {
	Walk(root, func(n Node) bool {
		for _, sub := range Subnodes(n) {
			if sub != nil {
				m.parents[sub] = n
			}
		}
		return true
	})
}

// Parent returns the parent of n, or nil.
func (m *ParentMap) Parent(n Node) Node {
	return m.parents[n]
}

// Set records parent as the parent of n. Making n its own ancestor would
// break the single-owner invariant and panics.
func (m *ParentMap) Set(n, parent Node) {
	if n == nil {
		return
	}
	if parent != nil && (parent == n || m.IsAncestor(n, parent)) {
		panic(fmt.Sprintf("syntax: setting parent of %s would create a cycle", n.Kind()))
	}
	if parent == nil {
		delete(m.parents, n)
		return
	}
	m.parents[n] = parent
}

// Delete removes the entry of n.
func (m *ParentMap) Delete(n Node) {
	delete(m.parents, n)
}

// Forget removes the entries of n and its whole subtree.
func (m *ParentMap) Forget(n Node) {
	Walk(n, func(x Node) bool {
		delete(m.parents, x)
		return true
	})
}

// IsAncestor reports whether anc is a strict ancestor of n.
func (m *ParentMap) IsAncestor(anc, n Node) bool {
	for p := m.parents[n]; p != nil; p = m.parents[p] {
		if p == anc {
			return true
		}
	}
	return false
}

// EnclosingFunc returns the function declaration containing n, or nil.
func (m *ParentMap) EnclosingFunc(n Node) *FuncDecl {
	for p := m.parents[n]; p != nil; p = m.parents[p] {
		if fn, ok := p.(*FuncDecl); ok {
			return fn
		}
	}
	return nil
}

// EnclosingScope returns the innermost scope containing n, or nil.
func (m *ParentMap) EnclosingScope(n Node) *Scope {
	for p := m.parents[n]; p != nil; p = m.parents[p] {
		if s, ok := p.(*Scope); ok {
			return s
		}
	}
	return nil
}

// Len returns the number of recorded entries.
func (m *ParentMap) Len() int {
	return len(m.parents)
}
